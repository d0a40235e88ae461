// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package issuestore is the SQLite-backed issue repository. It implements
// every collaborator port the web workflows consume.
package issuestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
	"github.com/ManuGH/issuedesk/internal/persistence/sqlite"
)

// AnyUser is the grant subject matching every user, including anonymous ones.
const AnyUser = "*"

var (
	_ issue.Lookup      = (*Store)(nil)
	_ issue.Permissions = (*Store)(nil)
	_ issue.Deleter     = (*Store)(nil)
	_ issue.Converter   = (*Store)(nil)
	_ issue.Preferences = (*Store)(nil)
)

// Store is the issue repository.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at dbPath and applies pending migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	raw, err := sqlite.Open(ctx, dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s := &Store{db: sqlx.NewDb(raw, sqlite.DriverName)}
	if err := s.migrate(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("issuestore: migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the pool for integrity checks.
func (s *Store) DB() *sql.DB {
	return s.db.DB
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := sqlite.Migrate(ctx, s.db.DB, migrations)
	return err
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, issue.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
