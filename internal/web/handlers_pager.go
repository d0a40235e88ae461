// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
	xglog "github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/pager"
	"github.com/ManuGH/issuedesk/internal/web/problem"
)

type issueListResponse struct {
	Pager  pager.State   `json:"pager"`
	Window pager.Window  `json:"window"`
	Issues []issue.Issue `json:"issues"`
}

func (s *Server) coordinator(r *http.Request) *pager.Coordinator {
	return pager.NewCoordinator(s.scope(r), userFrom(r), s.repo,
		pager.WithDefaultPageSize(s.defaultPageSize()),
		pager.WithLogger(xglog.WithComponentFromContext(r.Context(), "pager")))
}

// optionalInt reads an integer parameter; an absent or blank value is nil.
func optionalInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &n, nil
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tempMax, err := optionalInt(r, "tempMax")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	start, err := optionalInt(r, "start")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	coord := s.coordinator(r)
	state, err := coord.GetPager(ctx, tempMax)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if start != nil {
		if state, err = coord.SetStart(ctx, *start); err != nil {
			s.writeStoreError(w, r, err)
			return
		}
	}

	issues, total, err := s.repo.ListIssues(ctx, state.Start, state.PageSize)
	if err != nil {
		s.writeRepoError(w, r, err)
		return
	}
	window := state.Window(total)
	if window.Start != state.Start {
		// Persist the clamped start so the next request does not clamp again.
		if state, err = coord.SetStart(ctx, window.Start); err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		if issues, _, err = s.repo.ListIssues(ctx, window.Start, state.PageSize); err != nil {
			s.writeRepoError(w, r, err)
			return
		}
	}

	visible := make([]issue.Issue, 0, len(issues))
	user := userFrom(r)
	for _, is := range issues {
		ok, err := s.repo.HasPermission(ctx, issue.PermissionBrowse, is, user)
		if err != nil {
			s.writeRepoError(w, r, err)
			return
		}
		if ok {
			visible = append(visible, is)
		}
	}

	writeJSON(w, r, http.StatusOK, issueListResponse{Pager: state, Window: window, Issues: visible})
}

func (s *Server) handleResetPager(w http.ResponseWriter, r *http.Request) {
	state, err := s.coordinator(r).ResetPager(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleTempMax(w http.ResponseWriter, r *http.Request) {
	tempMax, err := optionalInt(r, "tempMax")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	coord := s.coordinator(r)
	if err := coord.ResetPagerTempMax(r.Context(), tempMax); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	state, err := coord.GetPager(r.Context(), nil)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) writeRepoError(w http.ResponseWriter, r *http.Request, err error) {
	xglog.FromContext(r.Context()).Error().Err(err).Str(xglog.FieldEvent, "repository.failed").Msg("issue repository failure")
	problem.Write(w, r, http.StatusInternalServerError, "system/repository", "Internal Server Error",
		"REPOSITORY_ERROR", "The issue repository is unavailable.", nil)
}
