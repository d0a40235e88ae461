// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGuarded_BlocksOnFirstFailure(t *testing.T) {
	calls := 0
	step := func(context.Context) Result {
		calls++
		return RedirectTo("/issues")
	}
	var order []string
	first := func(context.Context) error { order = append(order, "first"); return errors.New("xsrf token missing") }
	second := func(context.Context) error { order = append(order, "second"); return nil }

	r := Guarded(step, first, second)(context.Background())

	assert.Equal(t, OutcomeError, r.Outcome)
	assert.Equal(t, []string{"xsrf token missing"}, r.Errors.Messages)
	assert.Zero(t, calls, "guarded step must not run")
	assert.Equal(t, []string{"first"}, order)
}

func TestGuarded_RunsStepWhenGuardsPass(t *testing.T) {
	pass := func(context.Context) error { return nil }
	r := Guarded(func(context.Context) Result { return RedirectTo("/issues") }, pass, nil)(context.Background())

	assert.True(t, r.IsRedirect())
	assert.Equal(t, "/issues", r.Redirect)
}

func TestObserve_CountsOutcome(t *testing.T) {
	before := testutil.ToFloat64(stepOutcomes.WithLabelValues("delete", "execute", "input"))
	Observe("delete", "execute", Input(NotFound("x").Errors))
	after := testutil.ToFloat64(stepOutcomes.WithLabelValues("delete", "execute", "input"))
	assert.Equal(t, before+1, after)
}
