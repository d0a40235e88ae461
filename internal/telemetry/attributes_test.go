// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("GET", "/issues/{id}/delete", "/issues/7/delete", 303)

	assert.Equal(t, []attribute.KeyValue{
		attribute.String(HTTPMethodKey, "GET"),
		attribute.String(HTTPRouteKey, "/issues/{id}/delete"),
		attribute.String(HTTPURLKey, "/issues/7/delete"),
		attribute.Int(HTTPStatusCodeKey, 303),
	}, attrs)
}

func TestWorkflowAttributes_OmitsZeroValues(t *testing.T) {
	assert.Len(t, WorkflowAttributes("convert", "start", 3), 3)
	assert.Len(t, WorkflowAttributes("pager", "", 0), 1)
	assert.Empty(t, WorkflowAttributes("", "", 0))
}
