// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package deletion implements the two-phase validate-then-confirm issue delete.
package deletion

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
	xglog "github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/workflow"
)

const workflowName = "delete"

// State is the position of an Action in the delete state machine.
type State string

const (
	StateInitial        State = "initial"
	StateValidating     State = "validating"
	StateInvalid        State = "invalid"
	StateReadyToConfirm State = "ready_to_confirm"
	StateExecuting      State = "executing"
	StateCommitted      State = "committed"
	StateFailed         State = "failed"
)

// Deps are the collaborators of the delete workflow.
type Deps struct {
	Lookup      issue.Lookup
	Permissions issue.Permissions
	Deleter     issue.Deleter
	// Guards run before the destructive step, e.g. an XSRF token check.
	Guards []workflow.Guard
	Logger *zerolog.Logger
}

// Request carries the parameters of one delete request.
type Request struct {
	IssueID   int64
	User      issue.User
	Confirm   bool
	ReturnURL string
	// Inline requests a plain success outcome (dialog mode) instead of a redirect.
	Inline bool
}

// Action is the request-scoped delete workflow. A validation result never
// outlives the Action that produced it.
type Action struct {
	deps   Deps
	req    Request
	logger zerolog.Logger

	state      State
	target     *issue.Issue
	parent     *issue.Issue
	subTasks   int
	validation *issue.DeleteValidation
	errs       issue.ErrorCollection
}

// NewAction returns an Action in StateInitial.
func NewAction(deps Deps, req Request) *Action {
	logger := xglog.WithComponent("delete-issue")
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	return &Action{
		deps:   deps,
		req:    req,
		logger: logger.With().Int64(xglog.FieldIssueID, req.IssueID).Logger(),
		state:  StateInitial,
	}
}

// State returns the current state.
func (a *Action) State() State { return a.state }

// Errors returns the errors collected so far.
func (a *Action) Errors() issue.ErrorCollection { return a.errs.Clone() }

// Issue returns the loaded target, or nil before DoDefault succeeded.
func (a *Action) Issue() *issue.Issue { return a.target }

// SubTaskCount is the number of sub-tasks deleted along with the target.
func (a *Action) SubTaskCount() int { return a.subTasks }

// Validation returns the validation result of this request, if any.
func (a *Action) Validation() *issue.DeleteValidation { return a.validation }

// DoDefault loads the target issue for the confirmation page.
func (a *Action) DoDefault(ctx context.Context) workflow.Result {
	return workflow.Observe(workflowName, "default", a.doDefault(ctx))
}

func (a *Action) doDefault(ctx context.Context) workflow.Result {
	if a.target != nil {
		return workflow.Success()
	}
	target, err := a.deps.Lookup.IssueByID(ctx, a.req.IssueID)
	if err == nil {
		err = a.requireBrowse(ctx, target)
	}
	if err != nil {
		if !errors.Is(err, issue.ErrNotFound) && !errors.Is(err, issue.ErrPermissionDenied) {
			a.logger.Error().Err(err).Str(xglog.FieldEvent, "delete.lookup_failed").Msg("issue lookup failed")
		}
		a.transition(StateInvalid)
		r := workflow.NotFound("The issue no longer exists.")
		a.errs.Merge(r.Errors)
		return r
	}
	a.target = &target

	if target.ParentID != nil {
		if parent, err := a.deps.Lookup.IssueByID(ctx, *target.ParentID); err == nil {
			a.parent = &parent
		} else {
			a.logger.Warn().Err(err).Msg("parent of sub-task could not be loaded")
		}
	}
	if subs, err := a.deps.Lookup.SubTasks(ctx, target.ID); err == nil {
		a.subTasks = len(subs)
	}
	return workflow.Success()
}

func (a *Action) requireBrowse(ctx context.Context, target issue.Issue) error {
	ok, err := a.deps.Permissions.HasPermission(ctx, issue.PermissionBrowse, target, a.req.User)
	if err != nil {
		return err
	}
	if !ok {
		return issue.ErrPermissionDenied
	}
	return nil
}

// DoValidation asks the delete service whether the target may be deleted.
func (a *Action) DoValidation(ctx context.Context) workflow.Result {
	return workflow.Observe(workflowName, "validate", a.doValidation(ctx))
}

func (a *Action) doValidation(ctx context.Context) workflow.Result {
	if r := a.doDefault(ctx); r.Outcome != workflow.OutcomeSuccess {
		return r
	}
	a.transition(StateValidating)
	a.validation = nil

	v, err := a.deps.Deleter.ValidateDelete(ctx, a.req.User, a.req.IssueID)
	if err != nil {
		a.logger.Error().Err(err).Str(xglog.FieldEvent, "delete.validate_failed").Msg("delete validation failed")
		a.errs.AddMessage("The issue could not be validated for deletion.")
		a.transition(StateInvalid)
		return workflow.Failure(a.errs)
	}
	if v.TargetID != a.req.IssueID {
		a.errs.AddMessage("Delete validation returned a result for a different issue.")
		a.transition(StateInvalid)
		return workflow.Failure(a.errs)
	}
	if !v.Valid || v.Errors.HasAny() {
		a.errs.Merge(v.Errors)
		if !a.errs.HasAny() {
			a.errs.AddMessage("The issue cannot be deleted.")
		}
		a.transition(StateInvalid)
		return workflow.Input(a.errs)
	}

	a.validation = &v
	a.transition(StateReadyToConfirm)
	return workflow.Success()
}

// DoExecute deletes the issue. It only acts when the caller confirmed and
// this request holds a ready validation result for the same issue; otherwise
// it returns an input outcome without side effects.
func (a *Action) DoExecute(ctx context.Context) workflow.Result {
	step := workflow.Guarded(a.execute, a.deps.Guards...)
	return workflow.Observe(workflowName, "execute", step(ctx))
}

func (a *Action) execute(ctx context.Context) workflow.Result {
	if !a.req.Confirm {
		return workflow.Input(a.errs)
	}
	if a.state != StateReadyToConfirm || a.validation == nil || a.validation.TargetID != a.req.IssueID || !a.validation.Valid {
		a.logger.Warn().
			Str(xglog.FieldEvent, "delete.unvalidated_execute").
			Str(xglog.FieldOldState, string(a.state)).
			Msg("refusing delete without a matching validation result")
		var errs issue.ErrorCollection
		errs.AddMessage("The delete request must be validated before it can be confirmed.")
		a.errs.Merge(errs)
		return workflow.Input(a.errs)
	}

	a.transition(StateExecuting)
	if err := a.deps.Deleter.Delete(ctx, a.req.User, *a.validation); err != nil {
		a.errs.Merge(issue.AsErrorCollection(err))
		a.transition(StateFailed)
		a.logger.Warn().Err(err).Str(xglog.FieldEvent, "delete.failed").Msg("issue delete failed")
		return workflow.Failure(a.errs)
	}
	a.validation = nil
	a.transition(StateCommitted)
	a.logger.Info().
		Str(xglog.FieldEvent, "delete.committed").
		Str(xglog.FieldIssueKey, a.target.Key).
		Str(xglog.FieldUser, a.req.User.Name).
		Msg("issue deleted")

	if a.req.Inline {
		return workflow.Success()
	}
	parentKey := ""
	if a.parent != nil {
		parentKey = a.parent.Key
	}
	return workflow.RedirectTo(RedirectTarget(a.req.ReturnURL, a.target.Key, parentKey))
}

// Run performs the full POST lifecycle: validation followed by execution.
func (a *Action) Run(ctx context.Context) workflow.Result {
	if r := a.DoValidation(ctx); r.Outcome != workflow.OutcomeSuccess {
		return r
	}
	return a.DoExecute(ctx)
}

func (a *Action) transition(to State) {
	if a.state == to {
		return
	}
	a.logger.Debug().
		Str(xglog.FieldWorkflow, workflowName).
		Str(xglog.FieldOldState, string(a.state)).
		Str(xglog.FieldNewState, string(to)).
		Msg("state transition")
	a.state = to
}
