// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package issue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCollection_AddFieldKeepsFirst(t *testing.T) {
	var c ErrorCollection
	assert.False(t, c.HasAny())

	c.AddField("issuetype", "required")
	c.AddField("issuetype", "ignored")
	c.AddMessage("issue %s is locked", "ABC-1")

	require.True(t, c.HasAny())
	assert.Equal(t, "required", c.Fields["issuetype"])
	assert.Equal(t, []string{"issue ABC-1 is locked"}, c.Messages)
	assert.Equal(t, "issue ABC-1 is locked; issuetype: required", c.String())
}

func TestAsErrorCollection(t *testing.T) {
	var src ErrorCollection
	src.AddField("parentIssueKey", "missing")

	wrapped := fmt.Errorf("convert: %w", src.Err())
	got := AsErrorCollection(wrapped)
	assert.Equal(t, "missing", got.Fields["parentIssueKey"])

	plain := AsErrorCollection(errors.New("disk full"))
	assert.Equal(t, []string{"disk full"}, plain.Messages)

	assert.False(t, AsErrorCollection(nil).HasAny())
	assert.NoError(t, ErrorCollection{}.Err())
}

func TestIssue_CloneNoParent(t *testing.T) {
	parent := int64(7)
	src := Issue{ID: 10, Key: "ABC-10", ParentID: &parent, Fields: map[string]string{"priority": "high"}}

	out := src.CloneNoParent()
	assert.Nil(t, out.ParentID)
	assert.True(t, src.IsSubTask(), "source must keep its parent link")

	out.Fields["priority"] = "low"
	assert.Equal(t, "high", src.Fields["priority"])
}
