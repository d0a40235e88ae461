// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session provides the session-scoped key/value store used by the web
// workflows. Values are addressed by (session ID, key) and expire together
// with the session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is the idle lifetime of a session when none is configured.
const DefaultTTL = 30 * time.Minute

var (
	// ErrInvalidKey is returned for empty session IDs or keys.
	ErrInvalidKey = errors.New("session: empty session id or key")
	// ErrUndecodable wraps values that exist but cannot be decoded.
	ErrUndecodable = errors.New("session: undecodable value")
)

// Store is a session-scoped key/value store. The TTL is an idle lifetime:
// every successful Get and every Put refreshes the expiry of the whole
// session. Concurrent writers to the same key are last-write-wins.
type Store interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, bool, error)
	Put(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error
	// Invalidate drops every value of a session.
	Invalidate(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
	Close() error
}

func validate(sessionID, key string) error {
	if sessionID == "" || key == "" {
		return ErrInvalidKey
	}
	return nil
}

// GetJSON loads and decodes a value. A missing value yields ok == false.
func GetJSON[T any](ctx context.Context, s Store, sessionID, key string) (T, bool, error) {
	var out T
	raw, ok, err := s.Get(ctx, sessionID, key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("%w %q: %v", ErrUndecodable, key, err)
	}
	return out, true, nil
}

// PutJSON encodes and stores a value.
func PutJSON(ctx context.Context, s Store, sessionID, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %q: %w", key, err)
	}
	return s.Put(ctx, sessionID, key, raw)
}

// Scope binds a store to one session so coordinators can be handed an
// explicit, already-addressed store.
type Scope struct {
	store     Store
	sessionID string
}

// NewScope returns a Scope for sessionID.
func NewScope(store Store, sessionID string) Scope {
	return Scope{store: store, sessionID: sessionID}
}

// SessionID returns the bound session ID.
func (s Scope) SessionID() string { return s.sessionID }

// Load decodes the value stored under key into dst.
func (s Scope) Load(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := s.store.Get(ctx, s.sessionID, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w %q: %v", ErrUndecodable, key, err)
	}
	return true, nil
}

// Save encodes v under key.
func (s Scope) Save(ctx context.Context, key string, v any) error {
	return PutJSON(ctx, s.store, s.sessionID, key, v)
}

// Remove deletes key.
func (s Scope) Remove(ctx context.Context, key string) error {
	return s.store.Delete(ctx, s.sessionID, key)
}
