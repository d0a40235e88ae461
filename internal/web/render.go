// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package web

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
	xglog "github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/web/problem"
	"github.com/ManuGH/issuedesk/internal/workflow"
)

// outcomeBody is the JSON form of a non-redirect workflow result.
type outcomeBody struct {
	Outcome workflow.Outcome      `json:"outcome"`
	Errors  issue.ErrorCollection `json:"errors"`
	View    any                   `json:"view,omitempty"`
}

// writeResult dispatches a workflow outcome: redirects become 303 See Other,
// error outcomes become problem responses and everything else is JSON.
func writeResult(w http.ResponseWriter, r *http.Request, res workflow.Result, view any) {
	switch {
	case res.IsRedirect():
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
	case res.Outcome == workflow.OutcomeError && res.NotFound:
		problem.Write(w, r, http.StatusNotFound, "issue/not_found", "Not Found", "NOT_FOUND",
			res.Errors.String(), errorExtras(res.Errors))
	case res.Outcome == workflow.OutcomeError:
		problem.Write(w, r, http.StatusBadRequest, "issue/workflow_error", "Workflow Error", "WORKFLOW_ERROR",
			res.Errors.String(), withView(errorExtras(res.Errors), view))
	case res.Outcome == workflow.OutcomeInput && res.Errors.HasAny():
		writeJSON(w, r, http.StatusUnprocessableEntity, outcomeBody{Outcome: res.Outcome, Errors: res.Errors, View: view})
	default:
		writeJSON(w, r, http.StatusOK, outcomeBody{Outcome: res.Outcome, Errors: res.Errors, View: view})
	}
}

func errorExtras(errs issue.ErrorCollection) map[string]any {
	extras := map[string]any{}
	if len(errs.Messages) > 0 {
		extras["errorMessages"] = errs.Messages
	}
	if len(errs.Fields) > 0 {
		extras["errors"] = errs.Fields
	}
	return extras
}

func withView(extras map[string]any, view any) map[string]any {
	if view != nil {
		extras["view"] = view
	}
	return extras
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		xglog.FromContext(r.Context()).Error().Err(err).Str(xglog.FieldPath, r.URL.Path).Msg("failed to encode response")
	}
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	problem.Write(w, r, http.StatusBadRequest, "request/invalid", "Bad Request", "INVALID_INPUT", detail, nil)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	xglog.FromContext(r.Context()).Error().Err(err).Str(xglog.FieldEvent, "session.store_failed").Msg("session store failure")
	problem.Write(w, r, http.StatusServiceUnavailable, "system/session_unavailable", "Service Unavailable",
		"SESSION_UNAVAILABLE", "Your session could not be read or written.", nil)
}
