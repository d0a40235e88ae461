// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	xglog "github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/telemetry"
	"github.com/ManuGH/issuedesk/internal/web/problem"
	"github.com/ManuGH/issuedesk/internal/workflow"
	"github.com/ManuGH/issuedesk/internal/workflow/conversion"
)

// fieldPrefix marks request parameters that carry target field values.
const fieldPrefix = "field."

type convertStep func(ctx context.Context, e *conversion.Engine, req conversion.Request) conversion.Response

// convertHandler resolves the strategy and issue, then runs one wizard step.
func (s *Server) convertHandler(step string, guarded bool, run convertStep) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		strategy, ok := conversion.Strategies()[chi.URLParam(r, "kind")]
		if !ok {
			problem.Write(w, r, http.StatusNotFound, "convert/unknown_kind", "Not Found", "UNKNOWN_CONVERSION",
				"Unknown conversion kind.", nil)
			return
		}
		id, ok := issueIDParam(r)
		if !ok {
			writeResult(w, r, workflow.NotFound("The issue no longer exists."), nil)
			return
		}

		logger := xglog.WithComponentFromContext(r.Context(), "convert-issue")
		deps := conversion.Deps{
			Lookup:      s.repo,
			Permissions: s.repo,
			Converter:   s.repo,
			Logger:      &logger,
		}
		if guarded {
			deps.Guards = append(deps.Guards, s.xsrfGuard(r))
		}
		engine := conversion.NewEngine(strategy, deps, s.scope(r), userFrom(r))

		ctx, span := telemetry.StartWorkflowSpan(r.Context(), "convert:"+strategy.Name, step, id)
		resp := run(ctx, engine, conversion.Request{
			IssueID:        id,
			Version:        r.FormValue("version"),
			TargetTypeID:   strings.TrimSpace(r.FormValue(conversion.FieldIssueType)),
			TargetStatusID: strings.TrimSpace(r.FormValue(conversion.FieldTargetStatus)),
			Fields:         fieldParams(r),
		})
		telemetry.EndWorkflowSpan(span, string(resp.Outcome))

		var view any
		if resp.View != nil {
			view = resp.View
		}
		writeResult(w, r, resp.Result, view)
	}
}

func fieldParams(r *http.Request) map[string]string {
	if err := r.ParseForm(); err != nil {
		return nil
	}
	out := map[string]string{}
	for k, v := range r.Form {
		name, ok := strings.CutPrefix(k, fieldPrefix)
		if !ok || name == "" || len(v) == 0 {
			continue
		}
		out[name] = v[0]
	}
	return out
}

func (s *Server) handleConvertStart(w http.ResponseWriter, r *http.Request) {
	s.convertHandler("start", false, func(ctx context.Context, e *conversion.Engine, req conversion.Request) conversion.Response {
		return e.Start(ctx, req.IssueID)
	})(w, r)
}

func (s *Server) handleConvertType(w http.ResponseWriter, r *http.Request) {
	s.convertHandler("set_type", false, func(ctx context.Context, e *conversion.Engine, req conversion.Request) conversion.Response {
		return e.SetIssueType(ctx, req)
	})(w, r)
}

func (s *Server) handleConvertFields(w http.ResponseWriter, r *http.Request) {
	s.convertHandler("update_fields", false, func(ctx context.Context, e *conversion.Engine, req conversion.Request) conversion.Response {
		return e.UpdateFields(ctx, req)
	})(w, r)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	s.convertHandler("convert", true, func(ctx context.Context, e *conversion.Engine, req conversion.Request) conversion.Response {
		return e.Convert(ctx, req)
	})(w, r)
}

func (s *Server) handleConvertCancel(w http.ResponseWriter, r *http.Request) {
	s.convertHandler("cancel", false, func(ctx context.Context, e *conversion.Engine, req conversion.Request) conversion.Response {
		return e.Cancel(ctx, req.IssueID)
	})(w, r)
}

type cantBrowseResponse struct {
	IssueKey  string `json:"issueKey"`
	Converted bool   `json:"converted"`
	Message   string `json:"message"`
}

// handleCantBrowse tells the user an issue exists but is no longer visible to them.
func (s *Server) handleCantBrowse(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.FormValue("issueKey"))
	converted := boolParam(r, "converted")
	msg := "You do not have permission to view this issue."
	if converted && key != "" {
		msg = "Issue " + key + " was converted, but you no longer have permission to view it."
	}
	writeJSON(w, r, http.StatusOK, cantBrowseResponse{IssueKey: key, Converted: converted, Message: msg})
}
