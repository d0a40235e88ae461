// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pager

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
	xglog "github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/session"
)

// SessionKey is the session store key of the pager state.
const SessionKey = "pager"

// Coordinator reads and writes the pager state of one session. Preference
// problems never fail a request: the default page size applies instead.
type Coordinator struct {
	scope       session.Scope
	user        issue.User
	prefs       issue.Preferences
	defaultSize int
	logger      zerolog.Logger
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithDefaultPageSize overrides DefaultPageSize as the fallback.
func WithDefaultPageSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.defaultSize = n
		}
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator returns a coordinator bound to one session and user.
func NewCoordinator(scope session.Scope, user issue.User, prefs issue.Preferences, opts ...Option) *Coordinator {
	c := &Coordinator{
		scope:       scope,
		user:        user,
		prefs:       prefs,
		defaultSize: DefaultPageSize,
		logger:      xglog.WithComponent("pager"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPager returns the session's pager state, creating it from the user's
// preference on first access. A valid tempMax overrides the page size of the
// returned and stored state without touching the preference.
func (c *Coordinator) GetPager(ctx context.Context, tempMax *int) (State, error) {
	st, ok, err := c.load(ctx)
	if err != nil {
		return State{}, err
	}
	dirty := !ok
	if !ok {
		st = NewState(c.preferredPageSize(ctx))
	}
	if n, valid := c.tempMax(tempMax); valid && n != st.PageSize {
		st = st.WithPageSize(n)
		dirty = true
	}
	if dirty {
		if err := c.scope.Save(ctx, SessionKey, st); err != nil {
			return State{}, fmt.Errorf("pager: save state: %w", err)
		}
	}
	return st, nil
}

// ResetPager replaces the session's state with a fresh one built from the preference.
func (c *Coordinator) ResetPager(ctx context.Context) (State, error) {
	st := NewState(c.preferredPageSize(ctx))
	if err := c.scope.Save(ctx, SessionKey, st); err != nil {
		return State{}, fmt.Errorf("pager: save state: %w", err)
	}
	return st, nil
}

// ResetPagerTempMax applies tempMax to the current (or a new) state. A nil
// tempMax leaves any stored state untouched.
func (c *Coordinator) ResetPagerTempMax(ctx context.Context, tempMax *int) error {
	if tempMax == nil {
		return nil
	}
	_, err := c.GetPager(ctx, tempMax)
	return err
}

// SetStart moves the stored pager to start and returns the new state.
func (c *Coordinator) SetStart(ctx context.Context, start int) (State, error) {
	st, err := c.GetPager(ctx, nil)
	if err != nil {
		return State{}, err
	}
	st = st.WithStart(start)
	if err := c.scope.Save(ctx, SessionKey, st); err != nil {
		return State{}, fmt.Errorf("pager: save state: %w", err)
	}
	return st, nil
}

func (c *Coordinator) load(ctx context.Context) (State, bool, error) {
	var st State
	ok, err := c.scope.Load(ctx, SessionKey, &st)
	if err != nil && !errors.Is(err, session.ErrUndecodable) {
		return State{}, false, fmt.Errorf("pager: load state: %w", err)
	}
	if err != nil {
		// A corrupt pager is rebuilt rather than blocking navigation.
		c.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "pager.state_corrupt").
			Str(xglog.FieldSessionID, c.scope.SessionID()).
			Msg("discarding unreadable pager state")
		return State{}, false, nil
	}
	if ok && st.PageSize <= 0 {
		return State{}, false, nil
	}
	return st, ok, nil
}

func (c *Coordinator) tempMax(tempMax *int) (int, bool) {
	if tempMax == nil {
		return 0, false
	}
	if *tempMax <= 0 {
		c.logger.Warn().
			Int("temp_max", *tempMax).
			Str(xglog.FieldEvent, "pager.temp_max_ignored").
			Msg("ignoring non-positive temporary page size")
		return 0, false
	}
	return *tempMax, true
}

// preferredPageSize resolves the user's page size, falling back to the
// default on any lookup or parse problem.
func (c *Coordinator) preferredPageSize(ctx context.Context) int {
	if c.prefs == nil {
		return c.defaultSize
	}
	raw, ok, err := c.prefs.PageSize(ctx, c.user)
	if err != nil {
		c.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "pager.preference_lookup_failed").
			Str(xglog.FieldUser, c.user.Name).
			Int("fallback", c.defaultSize).
			Msg("page size preference lookup failed, using default")
		return c.defaultSize
	}
	if !ok {
		return c.defaultSize
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		c.logger.Warn().
			Str(xglog.FieldEvent, "pager.preference_invalid").
			Str(xglog.FieldUser, c.user.Name).
			Str("value", raw).
			Int("fallback", c.defaultSize).
			Msg("unusable page size preference, using default")
		return c.defaultSize
	}
	return n
}
