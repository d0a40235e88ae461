// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 0)
	defer s.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "sess", "pager", []byte("1")))

	now = now.Add(61 * time.Second)
	_, ok, err := s.Get(ctx, "sess", "pager")
	require.NoError(t, err)
	assert.False(t, ok, "value must expire with the session")

	assert.Equal(t, 1, s.deleteExpired())
	assert.Zero(t, s.Len())
}

func TestMemoryStore_PutSlidesExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 0)
	defer s.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "sess", "a", []byte("1")))
	now = now.Add(50 * time.Second)
	require.NoError(t, s.Put(ctx, "sess", "b", []byte("2")))
	now = now.Add(50 * time.Second)

	_, ok, err := s.Get(ctx, "sess", "a")
	require.NoError(t, err)
	assert.True(t, ok, "a write to any key keeps the whole session alive")
}

func TestMemoryStore_GetSlidesExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 0)
	defer s.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "sess", "pager", []byte("1")))
	for range 3 {
		now = now.Add(50 * time.Second)
		_, ok, err := s.Get(ctx, "sess", "pager")
		require.NoError(t, err)
		require.True(t, ok, "reads keep an active session alive")
	}

	now = now.Add(61 * time.Second)
	_, ok, err := s.Get(ctx, "sess", "pager")
	require.NoError(t, err)
	assert.False(t, ok, "an idle session still expires")
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute, 0)
	defer s.Close()

	in := []byte("abc")
	require.NoError(t, s.Put(ctx, "sess", "k", in))
	in[0] = 'x'

	out, _, err := s.Get(ctx, "sess", "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
}

func TestMemoryStore_JanitorStopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewMemoryStore(time.Minute, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close must be idempotent")
}
