// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sqlite opens the SQLite databases used by issuedesk and keeps their
// schema current.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Config holds the per-pool settings.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
	// VerifyOnOpen runs a quick integrity check before the pool is handed out.
	VerifyOnOpen bool
}

// DefaultConfig returns the settings shared by the issue and session databases.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 8,
		VerifyOnOpen: true,
	}
}

// dsn carries the pragmas in the connection string so every pooled
// connection gets them, not just the first one.
func (c Config) dsn(dbPath string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "foreign_keys(ON)")
	return "file:" + dbPath + "?" + q.Encode()
}

// Open opens the database at dbPath, creating it when missing.
func Open(ctx context.Context, dbPath string, cfg Config) (*sql.DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}
	db, err := sql.Open(DriverName, cfg.dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dbPath, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", dbPath, err)
	}
	if cfg.VerifyOnOpen {
		if err := CheckIntegrity(ctx, db, QuickCheck); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", dbPath, err)
		}
	}
	return db, nil
}
