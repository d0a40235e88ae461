// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by HTTP and workflow spans.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPRequestIDKey  = "http.request_id"

	WorkflowNameKey    = "workflow.name"
	WorkflowStepKey    = "workflow.step"
	WorkflowOutcomeKey = "workflow.outcome"
	IssueIDKey         = "issue.id"

	SessionBackendKey = "session.backend"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// WorkflowAttributes describes one workflow step. Zero values are omitted.
func WorkflowAttributes(workflow, step string, issueID int64) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if workflow != "" {
		attrs = append(attrs, attribute.String(WorkflowNameKey, workflow))
	}
	if step != "" {
		attrs = append(attrs, attribute.String(WorkflowStepKey, step))
	}
	if issueID > 0 {
		attrs = append(attrs, attribute.Int64(IssueIDKey, issueID))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// StartWorkflowSpan opens a span for a workflow step. The caller ends it with
// EndWorkflowSpan once the outcome is known.
func StartWorkflowSpan(ctx context.Context, workflow, step string, issueID int64) (context.Context, trace.Span) {
	return Tracer("issuedesk/workflow").Start(ctx, workflow+"."+step,
		trace.WithAttributes(WorkflowAttributes(workflow, step, issueID)...))
}

// EndWorkflowSpan records the outcome token and ends span.
func EndWorkflowSpan(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String(WorkflowOutcomeKey, outcome))
	if outcome == "error" {
		span.SetAttributes(ErrorAttributes("workflow")...)
	}
	span.End()
}
