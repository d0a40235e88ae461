// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (string, func() error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(context.Background(), path, DefaultConfig())
	require.NoError(t, err)
	return path, db.Close
}

func TestOpen_AppliesPragmas(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpen_RejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "", DefaultConfig())
	assert.Error(t, err)
}

func TestCheckIntegrity_Healthy(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "ok.db"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	for _, mode := range []CheckMode{QuickCheck, FullCheck} {
		assert.NoError(t, CheckIntegrity(ctx, db, mode), mode)
	}
}

func TestIntegrityError_Message(t *testing.T) {
	err := &IntegrityError{Mode: QuickCheck, Problems: []string{"page 3 is never used", "row missing"}}
	assert.Equal(t, "quick_check reported 2 problem(s): page 3 is never used; row missing", err.Error())
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	path, closeFn := openTemp(t)
	require.NoError(t, closeFn())

	db, err := Open(ctx, path, DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	steps := []Migration{
		{Version: 1, SQL: "CREATE TABLE a (id INTEGER PRIMARY KEY)"},
		{Version: 2, SQL: "ALTER TABLE a ADD COLUMN name TEXT"},
	}
	n, err := Migrate(ctx, db, steps)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	n, err = Migrate(ctx, db, steps)
	require.NoError(t, err)
	assert.Zero(t, n, "already applied")

	steps = append(steps, Migration{Version: 3, SQL: "CREATE TABLE b (oops"})
	_, err = Migrate(ctx, db, steps)
	require.Error(t, err)
	v, err = SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "failed migration must not bump the version")
}

func TestMigrate_RejectsOutOfOrder(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "order.db"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	_, err = Migrate(ctx, db, []Migration{{Version: 2, SQL: "SELECT 1"}, {Version: 1, SQL: "SELECT 1"}})
	assert.ErrorContains(t, err, "out of order")
}
