// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memorySession struct {
	values     map[string][]byte
	expiration time.Time
}

// MemoryStore keeps sessions in process memory. A janitor goroutine removes
// expired sessions when a cleanup interval is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*memorySession
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryStore creates an in-memory store. cleanupInterval <= 0 disables the janitor.
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*memorySession),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.janitor(cleanupInterval)
	} else {
		close(m.done)
	}
	return m
}

func (m *MemoryStore) Get(_ context.Context, sessionID, key string) ([]byte, bool, error) {
	if err := validate(sessionID, key); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s, ok := m.sessions[sessionID]
	if !ok || now.After(s.expiration) {
		return nil, false, nil
	}
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	s.expiration = now.Add(m.ttl)
	return slices.Clone(v), true, nil
}

func (m *MemoryStore) Put(_ context.Context, sessionID, key string, value []byte) error {
	if err := validate(sessionID, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s, ok := m.sessions[sessionID]
	if !ok || now.After(s.expiration) {
		s = &memorySession{values: make(map[string][]byte)}
		m.sessions[sessionID] = s
	}
	s.values[key] = slices.Clone(value)
	s.expiration = now.Add(m.ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID, key string) error {
	if err := validate(sessionID, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		delete(s.values, key)
	}
	return nil
}

func (m *MemoryStore) Invalidate(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// deleteExpired removes all expired sessions and returns how many were dropped.
func (m *MemoryStore) deleteExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	count := 0
	for id, s := range m.sessions {
		if now.After(s.expiration) {
			delete(m.sessions, id)
			count++
		}
	}
	return count
}

// Close stops the janitor goroutine and waits for it to exit.
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
	return nil
}

func (m *MemoryStore) janitor(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.deleteExpired()
		case <-m.stop:
			return
		}
	}
}
