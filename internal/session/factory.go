// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendSqlite = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	Backend         string
	DataDir         string
	TTL             time.Duration
	CleanupInterval time.Duration
	Redis           RedisConfig
	Logger          zerolog.Logger
}

// Open creates a Store based on the backend configuration.
func Open(ctx context.Context, opts Options) (Store, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendMemory
	}

	switch backend {
	case BackendMemory:
		interval := opts.CleanupInterval
		if interval <= 0 {
			interval = time.Minute
		}
		return NewMemoryStore(opts.TTL, interval), nil
	case BackendRedis:
		return NewRedisStore(ctx, opts.Redis, opts.TTL, opts.Logger)
	case BackendBadger:
		return OpenBadgerStore(filepath.Join(opts.DataDir, "sessions.badger"), opts.TTL)
	case BackendSqlite:
		return NewSqliteStore(ctx, filepath.Join(opts.DataDir, "sessions.db"), opts.TTL)
	default:
		return nil, fmt.Errorf("unknown session backend: %s", backend)
	}
}
