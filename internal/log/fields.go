// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldUser      = "user"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Issue fields
	FieldIssueID   = "issue_id"
	FieldIssueKey  = "issue_key"
	FieldIssueType = "issue_type"

	// Workflow fields
	FieldWorkflow = "workflow"
	FieldStep     = "step"
	FieldOutcome  = "outcome"
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// HTTP fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldRoute    = "route"
	FieldStatus   = "status"
	FieldBytes    = "bytes"
	FieldDuration = "duration_ms"
)
