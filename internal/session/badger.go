// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore persists session values in an embedded Badger database:
// key = "sess:<session id>:<key>", with a per-entry TTL refreshed on every read and write.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerStore opens a store at path. An empty path opens an in-memory database.
func OpenBadgerStore(path string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BadgerStore{db: db, ttl: ttl}, nil
}

func badgerPrefix(sessionID string) []byte {
	return []byte("sess:" + sessionID + ":")
}

func badgerKey(sessionID, key string) []byte {
	return append(badgerPrefix(sessionID), key...)
}

func (s *BadgerStore) Get(_ context.Context, sessionID, key string) ([]byte, bool, error) {
	if err := validate(sessionID, key); err != nil {
		return nil, false, err
	}
	var out []byte
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(sessionID, key))
		if err != nil {
			return err
		}
		if out, err = item.ValueCopy(nil); err != nil {
			return err
		}
		return s.refresh(txn, sessionID, nil)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger get: %w", err)
	}
	return out, true, nil
}

// Put writes the value and refreshes the TTL of every other value of the session.
func (s *BadgerStore) Put(_ context.Context, sessionID, key string, value []byte) error {
	if err := validate(sessionID, key); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return s.refresh(txn, sessionID, map[string][]byte{string(badgerKey(sessionID, key)): value})
	})
}

// refresh rewrites every live value of the session, plus set, with a fresh
// TTL. Badger has no per-key touch, so the entries are rewritten.
func (s *BadgerStore) refresh(txn *badger.Txn, sessionID string, set map[string][]byte) error {
	entries, err := collectPrefix(txn, badgerPrefix(sessionID), true)
	if err != nil {
		return err
	}
	maps.Copy(entries, set)
	for k, v := range entries {
		if err := txn.SetEntry(badger.NewEntry([]byte(k), v).WithTTL(s.ttl)); err != nil {
			return err
		}
	}
	return nil
}

// collectPrefix reads all live entries under prefix. Values are skipped when
// withValues is false.
func collectPrefix(txn *badger.Txn, prefix []byte, withValues bool) (map[string][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = withValues
	it := txn.NewIterator(opts)
	defer it.Close()

	out := make(map[string][]byte)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var v []byte
		if withValues {
			var err error
			if v, err = item.ValueCopy(nil); err != nil {
				return nil, err
			}
		}
		out[string(item.KeyCopy(nil))] = v
	}
	return out, nil
}

func (s *BadgerStore) Delete(_ context.Context, sessionID, key string) error {
	if err := validate(sessionID, key); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(sessionID, key))
	})
}

func (s *BadgerStore) Invalidate(_ context.Context, sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		keys, err := collectPrefix(txn, badgerPrefix(sessionID), false)
		if err != nil {
			return err
		}
		for k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
