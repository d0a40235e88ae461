// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/issuedesk/internal/persistence/sqlite"
)

// SqliteStore implements Store on SQLite. Expired rows are invisible to Get
// and removed by Sweep.
type SqliteStore struct {
	DB  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSqliteStore opens the database at dbPath and migrates the schema.
func NewSqliteStore(ctx context.Context, dbPath string, ttl time.Duration) (*SqliteStore, error) {
	db, err := sqlite.Open(ctx, dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &SqliteStore{DB: db, ttl: ttl, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session store: migration failed: %w", err)
	}
	return s, nil
}

var sessionMigrations = []sqlite.Migration{
	{
		Version: 1,
		SQL: `
CREATE TABLE IF NOT EXISTS session_values (
	session_id    TEXT NOT NULL,
	key           TEXT NOT NULL,
	value         BLOB NOT NULL,
	expires_at_ms INTEGER NOT NULL,
	PRIMARY KEY (session_id, key)
);
CREATE INDEX IF NOT EXISTS idx_session_values_expires ON session_values(expires_at_ms);
`,
	},
}

func (s *SqliteStore) migrate(ctx context.Context) error {
	_, err := sqlite.Migrate(ctx, s.DB, sessionMigrations)
	return err
}

func (s *SqliteStore) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	if err := validate(sessionID, key); err != nil {
		return nil, false, err
	}
	now := s.now()
	var value []byte
	err := s.DB.QueryRowContext(ctx,
		"SELECT value FROM session_values WHERE session_id = ? AND key = ? AND expires_at_ms > ?",
		sessionID, key, now.UnixMilli(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session get: %w", err)
	}
	// Separate statement: upgrading a read transaction to a write is not
	// retried by busy_timeout.
	if _, err := s.DB.ExecContext(ctx,
		"UPDATE session_values SET expires_at_ms = ? WHERE session_id = ? AND expires_at_ms > ?",
		now.Add(s.ttl).UnixMilli(), sessionID, now.UnixMilli()); err != nil {
		return nil, false, fmt.Errorf("session touch: %w", err)
	}
	return value, true, nil
}

// Put upserts the value and slides the expiry of the whole session.
func (s *SqliteStore) Put(ctx context.Context, sessionID, key string, value []byte) error {
	if err := validate(sessionID, key); err != nil {
		return err
	}
	expires := s.now().Add(s.ttl).UnixMilli()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO session_values (session_id, key, value, expires_at_ms) VALUES (?, ?, ?, ?)
	ON CONFLICT(session_id, key) DO UPDATE SET
		value = excluded.value,
		expires_at_ms = excluded.expires_at_ms
	`, sessionID, key, value, expires); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE session_values SET expires_at_ms = ? WHERE session_id = ?", expires, sessionID); err != nil {
		return fmt.Errorf("session touch: %w", err)
	}
	return tx.Commit()
}

func (s *SqliteStore) Delete(ctx context.Context, sessionID, key string) error {
	if err := validate(sessionID, key); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx, "DELETE FROM session_values WHERE session_id = ? AND key = ?", sessionID, key)
	return err
}

func (s *SqliteStore) Invalidate(ctx context.Context, sessionID string) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM session_values WHERE session_id = ?", sessionID)
	return err
}

// Sweep deletes expired rows and returns how many were removed.
func (s *SqliteStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM session_values WHERE expires_at_ms <= ?", s.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SqliteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}
