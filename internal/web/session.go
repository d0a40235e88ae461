// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
	xglog "github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/session"
	"github.com/ManuGH/issuedesk/internal/workflow"
)

const (
	// SessionCookie carries the session id.
	SessionCookie = "issuedesk_session"
	// HeaderUser names the acting user; authentication happens upstream.
	HeaderUser = "X-Issuedesk-User"
	// HeaderXSRFToken carries the XSRF token on mutating requests.
	HeaderXSRFToken = "X-XSRF-Token"
	// FormXSRFToken is the form field alternative to HeaderXSRFToken.
	FormXSRFToken = "xsrfToken"

	xsrfSessionKey = "xsrf"
)

var errXSRF = errors.New("XSRF check failed: the form token is missing or stale, reload the page and try again")

type ctxKey int

const (
	ctxKeySession ctxKey = iota
	ctxKeyUser
)

// withSession assigns a session id cookie when the client has none and puts
// the id and the acting user into the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(SessionCookie); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				sid = id.String()
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		user := issue.User{Name: strings.TrimSpace(r.Header.Get(HeaderUser))}

		ctx := xglog.ContextWithSessionID(r.Context(), sid)
		if user.Name != "" {
			ctx = xglog.ContextWithUser(ctx, user.Name)
		}
		ctx = context.WithValue(ctx, ctxKeySession, sid)
		ctx = context.WithValue(ctx, ctxKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) scope(r *http.Request) session.Scope {
	sid, _ := r.Context().Value(ctxKeySession).(string)
	return session.NewScope(s.sessions, sid)
}

func userFrom(r *http.Request) issue.User {
	u, _ := r.Context().Value(ctxKeyUser).(issue.User)
	return u
}

// xsrfToken returns the session's token, minting one on first use.
func (s *Server) xsrfToken(ctx context.Context, scope session.Scope) (string, error) {
	var token string
	ok, err := scope.Load(ctx, xsrfSessionKey, &token)
	if err != nil && !errors.Is(err, session.ErrUndecodable) {
		return "", err
	}
	if ok && token != "" {
		return token, nil
	}
	token = uuid.NewString()
	if err := scope.Save(ctx, xsrfSessionKey, token); err != nil {
		return "", err
	}
	return token, nil
}

// xsrfGuard checks the request token against the session token before a
// destructive workflow step.
func (s *Server) xsrfGuard(r *http.Request) workflow.Guard {
	return func(ctx context.Context) error {
		presented := r.Header.Get(HeaderXSRFToken)
		if presented == "" {
			presented = r.PostFormValue(FormXSRFToken)
		}
		var stored string
		ok, err := s.scope(r).Load(ctx, xsrfSessionKey, &stored)
		if err != nil || !ok || presented == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) != 1 {
			xglog.FromContext(ctx).Warn().
				Str(xglog.FieldEvent, "xsrf.rejected").
				Str(xglog.FieldPath, r.URL.Path).
				Msg("xsrf token check failed")
			return errXSRF
		}
		return nil
	}
}

type tokenResponse struct {
	Token     string    `json:"token"`
	Header    string    `json:"header"`
	FormField string    `json:"formField"`
	IssuedAt  time.Time `json:"issuedAt"`
}

func (s *Server) handleSessionToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.xsrfToken(r.Context(), s.scope(r))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tokenResponse{
		Token:     token,
		Header:    HeaderXSRFToken,
		FormField: FormXSRFToken,
		IssuedAt:  time.Now().UTC(),
	})
}

// handleEndSession drops every value of the session: pager state, wizard
// beans and the XSRF token. The cookie stays valid and starts empty.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sid := s.scope(r).SessionID()
	if err := s.sessions.Invalidate(r.Context(), sid); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	xglog.FromContext(r.Context()).Info().Str(xglog.FieldEvent, "session.invalidated").Msg("session values dropped")
	w.WriteHeader(http.StatusNoContent)
}
