// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
	xglog "github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/telemetry"
	"github.com/ManuGH/issuedesk/internal/workflow"
	"github.com/ManuGH/issuedesk/internal/workflow/deletion"
)

type deleteView struct {
	Issue        *issue.Issue `json:"issue,omitempty"`
	SubTaskCount int          `json:"subTaskCount"`
	State        string       `json:"state"`
}

func issueIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.FormValue(name))
	return v
}

func (s *Server) deleteAction(r *http.Request, id int64, guards ...workflow.Guard) *deletion.Action {
	logger := xglog.WithComponentFromContext(r.Context(), "delete-issue")
	return deletion.NewAction(deletion.Deps{
		Lookup:      s.repo,
		Permissions: s.repo,
		Deleter:     s.repo,
		Guards:      guards,
		Logger:      &logger,
	}, deletion.Request{
		IssueID:   id,
		User:      userFrom(r),
		Confirm:   boolParam(r, "confirm"),
		ReturnURL: r.FormValue("returnUrl"),
		Inline:    boolParam(r, "inline"),
	})
}

func viewOfDelete(a *deletion.Action) deleteView {
	return deleteView{Issue: a.Issue(), SubTaskCount: a.SubTaskCount(), State: string(a.State())}
}

// handleDeleteForm renders the confirmation data.
func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	id, ok := issueIDParam(r)
	if !ok {
		writeResult(w, r, workflow.NotFound("The issue no longer exists."), nil)
		return
	}
	ctx, span := telemetry.StartWorkflowSpan(r.Context(), "delete", "default", id)
	action := s.deleteAction(r.WithContext(ctx), id)
	res := action.DoDefault(ctx)
	telemetry.EndWorkflowSpan(span, string(res.Outcome))
	if res.Outcome != workflow.OutcomeSuccess {
		writeResult(w, r, res, nil)
		return
	}
	writeResult(w, r, workflow.Input(issue.ErrorCollection{}), viewOfDelete(action))
}

// handleDelete validates and, when confirmed, deletes the issue.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := issueIDParam(r)
	if !ok {
		writeResult(w, r, workflow.NotFound("The issue no longer exists."), nil)
		return
	}
	ctx, span := telemetry.StartWorkflowSpan(r.Context(), "delete", "execute", id)
	action := s.deleteAction(r.WithContext(ctx), id, s.xsrfGuard(r))
	res := action.Run(ctx)
	telemetry.EndWorkflowSpan(span, string(res.Outcome))
	writeResult(w, r, res, viewOfDelete(action))
}
