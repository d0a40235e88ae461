// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/renameio/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func pageSizeYAML(dataDir string, size int) string {
	return fmt.Sprintf("dataDir: %s\nissues:\n  defaultPageSize: %d\n", dataDir, size)
}

func newTestHolder(t *testing.T, size int) (*ConfigHolder, string, string) {
	t.Helper()
	dataDir := t.TempDir()
	path := writeYAML(t, pageSizeYAML(dataDir, size))
	loader := NewLoader(path, "test")
	cfg, err := loader.Load()
	require.NoError(t, err)
	return NewConfigHolder(cfg, loader), path, dataDir
}

func TestConfigHolder_Reload(t *testing.T) {
	h, path, dataDir := newTestHolder(t, 20)
	require.Equal(t, 20, h.Get().Issues.DefaultPageSize)

	var seen [][2]int
	h.OnReload(func(old, cur AppConfig) {
		seen = append(seen, [2]int{old.Issues.DefaultPageSize, cur.Issues.DefaultPageSize})
	})

	require.NoError(t, os.WriteFile(path, []byte(pageSizeYAML(dataDir, 35)), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, 35, h.Get().Issues.DefaultPageSize)
	assert.Equal(t, [][2]int{{20, 35}}, seen)
}

func TestConfigHolder_ReloadKeepsCurrentOnInvalidFile(t *testing.T) {
	h, path, dataDir := newTestHolder(t, 20)

	require.NoError(t, os.WriteFile(path, []byte(pageSizeYAML(dataDir, 0)), 0o600))
	assert.Error(t, h.Reload(context.Background()))
	assert.Equal(t, 20, h.Get().Issues.DefaultPageSize)

	require.NoError(t, os.WriteFile(path, []byte("issues:\n  pageSize: 5\n"), 0o600))
	assert.Error(t, h.Reload(context.Background()), "unknown fields are rejected on reload too")
	assert.Equal(t, 20, h.Get().Issues.DefaultPageSize)
}

func TestConfigHolder_WithoutFile(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := NewConfigHolder(Defaults(), nil)
	assert.ErrorIs(t, h.Reload(context.Background()), ErrNoConfigFile)
	assert.NoError(t, h.Watch(context.Background()), "watch is a no-op without a file")
	assert.Equal(t, 20, h.Get().Issues.DefaultPageSize)
}

func TestConfigHolder_WatchReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h, path, dataDir := newTestHolder(t, 20)
	h.Debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()

	// Rewrite until the watcher is registered and has picked the change up.
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte(pageSizeYAML(dataDir, 40)), 0o600); err != nil {
			return false
		}
		return h.Get().Issues.DefaultPageSize == 40
	}, 5*time.Second, 50*time.Millisecond)

	// Atomic replace by rename, as editors and renameio do.
	require.Eventually(t, func() bool {
		if err := renameio.WriteFile(path, []byte(pageSizeYAML(dataDir, 45)), 0o600); err != nil {
			return false
		}
		return h.Get().Issues.DefaultPageSize == 45
	}, 5*time.Second, 50*time.Millisecond)

	// Events for sibling files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x: 1\n"), 0o600))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 45, h.Get().Issues.DefaultPageSize)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
