// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package conversion implements the issue conversion wizard. A shared Engine
// drives the steps; a Strategy supplies the per-kind rules.
package conversion

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
	xglog "github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/session"
	"github.com/ManuGH/issuedesk/internal/workflow"
)

// Field names used for field errors of the type selection step.
const (
	FieldIssueType    = "issuetype"
	FieldTargetStatus = "targetStatusId"
)

// CantBrowsePath is shown when the converted issue is no longer visible.
const CantBrowsePath = "/issues/cant-browse"

// Deps are the collaborators of the conversion engine.
type Deps struct {
	Lookup      issue.Lookup
	Permissions issue.Permissions
	Converter   issue.Converter
	// Guards run before the final conversion, e.g. an XSRF token check.
	Guards []workflow.Guard
	Logger *zerolog.Logger
}

// Request carries the parameters of one wizard request.
type Request struct {
	IssueID int64
	// Version echoes the bean version the page was rendered with.
	Version        string
	TargetTypeID   string
	TargetStatusID string
	// Fields are field.* parameters with the prefix removed.
	Fields map[string]string
}

// View is the data the next wizard page needs.
type View struct {
	Issue                issue.Issue       `json:"issue"`
	Bean                 Bean              `json:"bean"`
	TargetTypes          []issue.IssueType `json:"targetTypes,omitempty"`
	TargetStatuses       []issue.Status    `json:"targetStatuses,omitempty"`
	StatusChangeRequired bool              `json:"statusChangeRequired"`
	RequiredFields       []string          `json:"requiredFields,omitempty"`
}

// Response is a step result plus the view of the page to render.
type Response struct {
	workflow.Result
	View *View `json:"view,omitempty"`
}

// Engine runs one strategy for one session and user.
type Engine struct {
	strategy Strategy
	deps     Deps
	scope    session.Scope
	user     issue.User
	logger   zerolog.Logger
}

// NewEngine returns an engine for strategy bound to a session scope.
func NewEngine(strategy Strategy, deps Deps, scope session.Scope, user issue.User) *Engine {
	logger := xglog.WithComponent("convert-issue")
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	return &Engine{
		strategy: strategy,
		deps:     deps,
		scope:    scope,
		user:     user,
		logger:   logger.With().Str(xglog.FieldWorkflow, strategy.Name).Logger(),
	}
}

// Strategy returns the engine's strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

type request struct {
	source issue.Issue
	bean   Bean
}

// Start resets the bean of the source issue and lists the candidate target types.
func (e *Engine) Start(ctx context.Context, issueID int64) Response {
	return e.observe("start", e.start(ctx, issueID))
}

func (e *Engine) start(ctx context.Context, issueID int64) Response {
	rq, fail := e.load(ctx, Request{IssueID: issueID}, true)
	if fail != nil {
		return *fail
	}
	types, err := e.candidates(ctx, rq.source)
	if err != nil {
		return e.infraFailure("candidates", err, "Target issue types could not be loaded.")
	}
	if len(types) == 0 {
		var errs issue.ErrorCollection
		errs.AddMessage("There are no issue types available to convert %s to.", rq.source.Key)
		return Response{Result: workflow.Failure(errs)}
	}
	if err := e.save(ctx, rq.bean); err != nil {
		return e.infraFailure("save", err, "The conversion could not be saved in your session.")
	}
	return Response{
		Result: workflow.Success(),
		View:   &View{Issue: rq.source, Bean: rq.bean, TargetTypes: types},
	}
}

// SetIssueType records the target type (and the target status when the
// source status does not exist in the target workflow).
func (e *Engine) SetIssueType(ctx context.Context, req Request) Response {
	return e.observe("set_type", e.setIssueType(ctx, req))
}

func (e *Engine) setIssueType(ctx context.Context, req Request) Response {
	rq, fail := e.load(ctx, req, false)
	if fail != nil {
		return *fail
	}
	bean := rq.bean.clone()
	bean.setFields(e.extraFields(req.Fields))

	view, errs, err := e.selectType(ctx, rq.source, &bean, req.TargetTypeID, req.TargetStatusID)
	if err != nil {
		return e.infraFailure("set_type", err, "The target issue type could not be validated.")
	}
	if errs.HasAny() {
		bean.CurrentStep = StepSelectType
		if err := e.save(ctx, bean); err != nil {
			return e.infraFailure("save", err, "The conversion could not be saved in your session.")
		}
		view.Bean = bean
		return Response{Result: workflow.Input(errs), View: view}
	}

	target, _ := e.buildTarget(ctx, rq.source, bean)
	required, err := e.deps.Converter.RequiredFields(ctx, target)
	if err != nil {
		return e.infraFailure("required_fields", err, "Required fields could not be determined.")
	}
	bean.CurrentStep = StepSetFields
	if err := e.save(ctx, bean); err != nil {
		return e.infraFailure("save", err, "The conversion could not be saved in your session.")
	}
	view.Bean = bean
	view.RequiredFields = required
	return Response{Result: workflow.Success(), View: view}
}

// selectType validates the requested type and status and stores them in bean.
func (e *Engine) selectType(ctx context.Context, source issue.Issue, bean *Bean, typeID, statusID string) (*View, issue.ErrorCollection, error) {
	var errs issue.ErrorCollection
	view := &View{Issue: source}

	types, err := e.candidates(ctx, source)
	if err != nil {
		return nil, errs, err
	}
	view.TargetTypes = types

	typeID = strings.TrimSpace(typeID)
	switch {
	case typeID == "":
		errs.AddField(FieldIssueType, "An issue type is required.")
	case !slices.ContainsFunc(types, func(t issue.IssueType) bool { return t.ID == typeID }):
		errs.AddField(FieldIssueType, "Issue type %s is not a valid conversion target.", typeID)
	}
	if errs.HasAny() {
		return view, errs, nil
	}

	required, err := e.deps.Converter.IsStatusChangeRequired(ctx, source, typeID)
	if err != nil {
		return nil, errs, err
	}
	view.StatusChangeRequired = required
	status := source.StatusID
	if required {
		statuses, err := e.deps.Converter.ValidTargetStatuses(ctx, source, typeID)
		if err != nil {
			return nil, errs, err
		}
		view.TargetStatuses = statuses
		status = strings.TrimSpace(statusID)
		switch {
		case status == "":
			errs.AddField(FieldTargetStatus, "The current status is not valid for the target workflow; select a new status.")
		case !slices.ContainsFunc(statuses, func(s issue.Status) bool { return s.ID == status }):
			errs.AddField(FieldTargetStatus, "Status %s is not valid for the target workflow.", status)
		}
	}
	if errs.HasAny() {
		return view, errs, nil
	}

	bean.TargetTypeID = typeID
	bean.TargetStatusID = status
	if _, prepErrs := e.buildTarget(ctx, source, *bean); prepErrs.HasAny() {
		errs.Merge(prepErrs)
	}
	return view, errs, nil
}

// UpdateFields collects field values and checks required fields are present.
func (e *Engine) UpdateFields(ctx context.Context, req Request) Response {
	return e.observe("set_fields", e.updateFields(ctx, req))
}

func (e *Engine) updateFields(ctx context.Context, req Request) Response {
	rq, fail := e.load(ctx, req, false)
	if fail != nil {
		return *fail
	}
	if !rq.bean.CurrentStep.reached(StepSetFields) {
		return e.invalidState(rq.source)
	}
	bean := rq.bean.clone()
	bean.setFields(req.Fields)

	required, errs, err := e.validateFields(ctx, rq.source, bean)
	if err != nil {
		return e.infraFailure("required_fields", err, "Required fields could not be determined.")
	}
	view := &View{Issue: rq.source, RequiredFields: required}
	if errs.HasAny() {
		bean.CurrentStep = StepSetFields
	} else {
		bean.CurrentStep = StepConfirm
	}
	if err := e.save(ctx, bean); err != nil {
		return e.infraFailure("save", err, "The conversion could not be saved in your session.")
	}
	view.Bean = bean
	if errs.HasAny() {
		return Response{Result: workflow.Input(errs), View: view}
	}
	return Response{Result: workflow.Success(), View: view}
}

func (e *Engine) validateFields(ctx context.Context, source issue.Issue, bean Bean) ([]string, issue.ErrorCollection, error) {
	target, errs := e.buildTarget(ctx, source, bean)
	required, err := e.deps.Converter.RequiredFields(ctx, target)
	if err != nil {
		return nil, errs, err
	}
	for _, f := range required {
		if strings.TrimSpace(target.Fields[f]) == "" {
			errs.AddField(f, "%s is required.", f)
		}
	}
	return required, errs, nil
}

// Convert performs the conversion. Any failure sends the wizard back to the
// field step with the errors attached.
func (e *Engine) Convert(ctx context.Context, req Request) Response {
	var (
		resp Response
		ran  bool
	)
	step := workflow.Guarded(func(ctx context.Context) workflow.Result {
		ran = true
		resp = e.convert(ctx, req)
		return resp.Result
	}, e.deps.Guards...)
	if r := step(ctx); !ran {
		resp = Response{Result: r}
	}
	return e.observe("convert", resp)
}

func (e *Engine) convert(ctx context.Context, req Request) Response {
	rq, fail := e.load(ctx, req, false)
	if fail != nil {
		return *fail
	}
	if rq.bean.CurrentStep != StepConfirm {
		return e.invalidState(rq.source)
	}
	bean := rq.bean.clone()

	back := func(errs issue.ErrorCollection, view *View) Response {
		bean.CurrentStep = StepSetFields
		if err := e.save(ctx, bean); err != nil {
			e.logger.Error().Err(err).Msg("conversion bean could not be saved")
		}
		if view == nil {
			view = &View{Issue: rq.source}
		}
		view.Bean = bean
		return Response{Result: workflow.Failure(errs), View: view}
	}

	if view, errs, err := e.selectType(ctx, rq.source, &bean, bean.TargetTypeID, bean.TargetStatusID); err != nil {
		return e.infraFailure("convert", err, "The target issue type could not be validated.")
	} else if errs.HasAny() {
		return back(errs, view)
	}
	required, errs, err := e.validateFields(ctx, rq.source, bean)
	if err != nil {
		return e.infraFailure("required_fields", err, "Required fields could not be determined.")
	}
	if errs.HasAny() {
		return back(errs, &View{Issue: rq.source, RequiredFields: required})
	}

	target, _ := e.buildTarget(ctx, rq.source, bean)
	if err := e.deps.Converter.Convert(ctx, e.user, rq.source, target); err != nil {
		e.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "convert.failed").
			Str(xglog.FieldIssueKey, rq.source.Key).
			Msg("issue conversion failed")
		return back(issue.AsErrorCollection(err), &View{Issue: rq.source, RequiredFields: required})
	}

	key := rq.source.Key
	if err := e.scope.Remove(ctx, SessionKey(rq.source.ID)); err != nil {
		e.logger.Warn().Err(err).Msg("conversion bean could not be removed")
	}
	e.logger.Info().
		Str(xglog.FieldEvent, "convert.committed").
		Str(xglog.FieldIssueKey, key).
		Str(xglog.FieldIssueType, target.TypeID).
		Str(xglog.FieldUser, e.user.Name).
		Msg("issue converted")

	converted, err := e.deps.Lookup.IssueByID(ctx, rq.source.ID)
	if err != nil {
		converted = target
	}
	if ok, err := e.deps.Permissions.HasPermission(ctx, issue.PermissionBrowse, converted, e.user); err == nil && ok {
		return Response{Result: workflow.RedirectTo(issue.BrowsePath(key))}
	}
	return Response{Result: workflow.RedirectTo(CantBrowseURL(key))}
}

// Cancel drops the bean and returns to the source issue, or to the root page
// when the issue is gone.
func (e *Engine) Cancel(ctx context.Context, issueID int64) Response {
	if err := e.scope.Remove(ctx, SessionKey(issueID)); err != nil {
		e.logger.Warn().Err(err).Msg("conversion bean could not be removed")
	}
	source, err := e.deps.Lookup.IssueByID(ctx, issueID)
	if err != nil {
		e.logger.Error().Err(err).Int64(xglog.FieldIssueID, issueID).Msg("could not retrieve issue on cancel")
		return e.observe("cancel", Response{Result: workflow.RedirectTo("/")})
	}
	return e.observe("cancel", Response{Result: workflow.RedirectTo(issue.BrowsePath(source.Key))})
}

// CantBrowseURL is where the user lands when the converted issue is hidden.
func CantBrowseURL(key string) string {
	q := url.Values{}
	q.Set("issueKey", key)
	q.Set("converted", "true")
	return CantBrowsePath + "?" + q.Encode()
}

// load resolves the source issue, checks edit permission and convertibility
// and returns the bean. fresh discards any stored bean.
func (e *Engine) load(ctx context.Context, req Request, fresh bool) (request, *Response) {
	source, err := e.deps.Lookup.IssueByID(ctx, req.IssueID)
	if err == nil {
		err = e.requireEdit(ctx, source)
	}
	if err != nil {
		if !errors.Is(err, issue.ErrNotFound) && !errors.Is(err, issue.ErrPermissionDenied) {
			e.logger.Error().Err(err).Int64(xglog.FieldIssueID, req.IssueID).Msg("issue lookup failed")
		}
		return request{}, &Response{Result: workflow.NotFound("The issue no longer exists.")}
	}

	if e.strategy.CheckSource != nil {
		if errs := e.strategy.CheckSource(ctx, e.deps.Lookup, source); errs.HasAny() {
			return request{}, &Response{Result: workflow.Failure(errs)}
		}
	}

	if fresh {
		return request{source: source, bean: newBean(source.ID)}, nil
	}

	var bean Bean
	ok, err := e.scope.Load(ctx, SessionKey(source.ID), &bean)
	if err != nil {
		if !errors.Is(err, session.ErrUndecodable) {
			r := e.infraFailure("load", err, "Your session could not be read.")
			return request{}, &r
		}
		e.logger.Warn().Err(err).Msg("discarding undecodable conversion bean")
		ok = false
	}

	var errs issue.ErrorCollection
	switch {
	case !ok && req.Version != "":
		errs.AddMessage("Your session has timed out. Please start the conversion again.")
	case !ok:
		errs.AddMessage("The conversion of %s has not been started.", source.Key)
	case req.Version == "" || req.Version != bean.Version || bean.SourceID != source.ID:
		r := e.invalidState(source)
		return request{}, &r
	}
	if errs.HasAny() {
		return request{}, &Response{Result: workflow.Failure(errs)}
	}
	return request{source: source, bean: bean}, nil
}

func (e *Engine) requireEdit(ctx context.Context, source issue.Issue) error {
	ok, err := e.deps.Permissions.HasPermission(ctx, issue.PermissionEdit, source, e.user)
	if err != nil {
		return err
	}
	if !ok {
		return issue.ErrPermissionDenied
	}
	return nil
}

func (e *Engine) candidates(ctx context.Context, source issue.Issue) ([]issue.IssueType, error) {
	eligible, err := e.deps.Converter.EligibleTargetTypes(ctx, source)
	if err != nil {
		return nil, err
	}
	if e.strategy.CandidateTargetTypes != nil {
		eligible = e.strategy.CandidateTargetTypes(source, eligible)
	}
	// The converter may hand out a shared slice; filter a copy.
	return slices.DeleteFunc(slices.Clone(eligible), func(t issue.IssueType) bool { return t.ID == source.TypeID }), nil
}

// buildTarget derives the target issue from source and the bean values.
func (e *Engine) buildTarget(ctx context.Context, source issue.Issue, bean Bean) (issue.Issue, issue.ErrorCollection) {
	target := source.Clone()
	var errs issue.ErrorCollection
	if e.strategy.PrepareTarget != nil {
		target, errs = e.strategy.PrepareTarget(ctx, e.deps.Lookup, source, bean)
	}
	target.TypeID = bean.TargetTypeID
	if bean.TargetStatusID != "" {
		target.StatusID = bean.TargetStatusID
	}
	for k, v := range bean.FieldValues {
		if slices.Contains(e.strategy.ExtraFields, k) {
			continue
		}
		if target.Fields == nil {
			target.Fields = map[string]string{}
		}
		target.Fields[k] = v
	}
	return target, errs
}

func (e *Engine) extraFields(fields map[string]string) map[string]string {
	out := map[string]string{}
	for _, name := range e.strategy.ExtraFields {
		if v, ok := fields[name]; ok {
			out[name] = v
		}
	}
	return out
}

func (e *Engine) save(ctx context.Context, bean Bean) error {
	return e.scope.Save(ctx, SessionKey(bean.SourceID), bean)
}

func (e *Engine) invalidState(source issue.Issue) Response {
	var errs issue.ErrorCollection
	errs.AddMessage("The conversion of %s is in an invalid state. Please start again.", source.Key)
	return Response{Result: workflow.Failure(errs)}
}

func (e *Engine) infraFailure(step string, err error, msg string) Response {
	e.logger.Error().Err(err).Str(xglog.FieldStep, step).Msg("conversion step failed")
	var errs issue.ErrorCollection
	errs.AddMessage("%s", msg)
	return Response{Result: workflow.Failure(errs)}
}

func (e *Engine) observe(step string, r Response) Response {
	workflow.Observe(e.strategy.Name, step, r.Result)
	return r
}
