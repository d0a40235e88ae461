// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
	"github.com/ManuGH/issuedesk/internal/session"
)

type stubPrefs struct {
	value string
	ok    bool
	err   error
	calls int
}

func (p *stubPrefs) PageSize(context.Context, issue.User) (string, bool, error) {
	p.calls++
	return p.value, p.ok, p.err
}

func newCoordinator(t *testing.T, prefs issue.Preferences) (*Coordinator, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(time.Minute, 0)
	t.Cleanup(func() { _ = store.Close() })
	c := NewCoordinator(session.NewScope(store, "sess-1"), issue.User{Name: "alice"}, prefs, WithLogger(zerolog.Nop()))
	return c, store
}

func intPtr(n int) *int { return &n }

func TestGetPager_UsesPreferenceOrDefault(t *testing.T) {
	tests := []struct {
		name  string
		prefs *stubPrefs
		want  int
	}{
		{name: "preference set", prefs: &stubPrefs{value: "50", ok: true}, want: 50},
		{name: "preference with whitespace", prefs: &stubPrefs{value: " 35 ", ok: true}, want: 35},
		{name: "preference absent", prefs: &stubPrefs{}, want: DefaultPageSize},
		{name: "preference unparsable", prefs: &stubPrefs{value: "lots", ok: true}, want: DefaultPageSize},
		{name: "preference zero", prefs: &stubPrefs{value: "0", ok: true}, want: DefaultPageSize},
		{name: "preference negative", prefs: &stubPrefs{value: "-5", ok: true}, want: DefaultPageSize},
		{name: "lookup failure", prefs: &stubPrefs{err: errors.New("db down")}, want: DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCoordinator(t, tt.prefs)
			st, err := c.GetPager(context.Background(), nil)
			require.NoError(t, err, "preference problems must never fail the request")
			assert.Equal(t, tt.want, st.PageSize)
			assert.Zero(t, st.Start)
		})
	}
}

func TestGetPager_NilPreferences(t *testing.T) {
	store := session.NewMemoryStore(time.Minute, 0)
	defer store.Close()
	c := NewCoordinator(session.NewScope(store, "s"), issue.User{}, nil, WithDefaultPageSize(30), WithLogger(zerolog.Nop()))

	st, err := c.GetPager(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 30, st.PageSize)
}

func TestGetPager_Idempotent(t *testing.T) {
	prefs := &stubPrefs{value: "25", ok: true}
	c, _ := newCoordinator(t, prefs)
	ctx := context.Background()

	first, err := c.GetPager(ctx, nil)
	require.NoError(t, err)
	second, err := c.GetPager(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, prefs.calls, "existing state must be reused, not rebuilt from preferences")
}

func TestGetPager_TempMaxOverridesWithoutTouchingPreference(t *testing.T) {
	prefs := &stubPrefs{value: "25", ok: true}
	c, _ := newCoordinator(t, prefs)
	ctx := context.Background()

	st, err := c.GetPager(ctx, intPtr(100))
	require.NoError(t, err)
	assert.Equal(t, 100, st.PageSize)

	stored, err := c.GetPager(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.PageSize, "override is stored in the session")
	assert.Equal(t, "25", prefs.value, "preference must not change")

	reset, err := c.ResetPager(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, reset.PageSize, "reset goes back to the preference")
}

func TestGetPager_IgnoresNonPositiveTempMax(t *testing.T) {
	c, _ := newCoordinator(t, &stubPrefs{value: "25", ok: true})
	st, err := c.GetPager(context.Background(), intPtr(0))
	require.NoError(t, err)
	assert.Equal(t, 25, st.PageSize)
}

func TestResetPagerTempMax(t *testing.T) {
	ctx := context.Background()

	t.Run("nil leaves state untouched", func(t *testing.T) {
		c, store := newCoordinator(t, &stubPrefs{value: "25", ok: true})
		_, err := c.SetStart(ctx, 75)
		require.NoError(t, err)
		before, _, err := store.Get(ctx, "sess-1", SessionKey)
		require.NoError(t, err)

		require.NoError(t, c.ResetPagerTempMax(ctx, nil))

		after, _, err := store.Get(ctx, "sess-1", SessionKey)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("nil does not create state", func(t *testing.T) {
		c, store := newCoordinator(t, &stubPrefs{value: "25", ok: true})
		require.NoError(t, c.ResetPagerTempMax(ctx, nil))
		_, ok, err := store.Get(ctx, "sess-1", SessionKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("value sets page size", func(t *testing.T) {
		prefs := &stubPrefs{value: "25", ok: true}
		c, _ := newCoordinator(t, prefs)
		require.NoError(t, c.ResetPagerTempMax(ctx, intPtr(5)))

		st, err := c.GetPager(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 5, st.PageSize)
		assert.Equal(t, "25", prefs.value)
	})
}

func TestResetPager_ReplacesState(t *testing.T) {
	c, _ := newCoordinator(t, &stubPrefs{value: "10", ok: true})
	ctx := context.Background()

	_, err := c.SetStart(ctx, 40)
	require.NoError(t, err)

	st, err := c.ResetPager(ctx)
	require.NoError(t, err)
	assert.Equal(t, State{PageSize: 10}, st)

	again, err := c.GetPager(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, st, again)
}

func TestGetPager_RebuildsCorruptState(t *testing.T) {
	c, store := newCoordinator(t, &stubPrefs{value: "15", ok: true})
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "sess-1", SessionKey, []byte("{garbage")))

	st, err := c.GetPager(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 15, st.PageSize)
}

type failingStore struct{ session.Store }

func (failingStore) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func TestGetPager_StoreFailureIsReturned(t *testing.T) {
	c := NewCoordinator(session.NewScope(failingStore{}, "s"), issue.User{}, nil, WithLogger(zerolog.Nop()))
	_, err := c.GetPager(context.Background(), nil)
	assert.ErrorContains(t, err, "connection refused")
}
