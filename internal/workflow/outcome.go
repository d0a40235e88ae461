// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package workflow holds what the request-driven issue workflows share: the
// outcome tokens handed to the dispatcher, pre-execution guards and metrics.
package workflow

import "github.com/ManuGH/issuedesk/internal/domain/issue"

// Outcome is the view-selection token returned by a workflow step.
type Outcome string

const (
	// OutcomeInput re-renders the current input step, usually with validation errors.
	OutcomeInput Outcome = "input"
	// OutcomeError renders the error view; the workflow cannot continue.
	OutcomeError Outcome = "error"
	// OutcomeSuccess renders the next step, or redirects when Redirect is set.
	OutcomeSuccess Outcome = "success"
)

// Result is what a step hands back to the dispatcher.
type Result struct {
	Outcome  Outcome               `json:"outcome"`
	Redirect string                `json:"redirect,omitempty"`
	Errors   issue.ErrorCollection `json:"errors,omitempty"`
	// NotFound marks error outcomes caused by a missing or hidden issue.
	NotFound bool `json:"-"`
}

// Success returns a plain success result.
func Success() Result {
	return Result{Outcome: OutcomeSuccess}
}

// RedirectTo returns a success result that redirects to target.
func RedirectTo(target string) Result {
	return Result{Outcome: OutcomeSuccess, Redirect: target}
}

// Input returns an input result carrying errs.
func Input(errs issue.ErrorCollection) Result {
	return Result{Outcome: OutcomeInput, Errors: errs.Clone()}
}

// Failure returns an error result carrying errs.
func Failure(errs issue.ErrorCollection) Result {
	return Result{Outcome: OutcomeError, Errors: errs.Clone()}
}

// NotFound returns the error result used for missing and hidden issues alike.
func NotFound(msg string) Result {
	var errs issue.ErrorCollection
	errs.AddMessage("%s", msg)
	return Result{Outcome: OutcomeError, Errors: errs, NotFound: true}
}

// IsRedirect reports whether the dispatcher should issue an HTTP redirect.
func (r Result) IsRedirect() bool {
	return r.Outcome == OutcomeSuccess && r.Redirect != ""
}
