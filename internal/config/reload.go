// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/issuedesk/internal/log"
)

// DefaultReloadDebounce collapses the burst of events an editor save produces.
const DefaultReloadDebounce = 500 * time.Millisecond

// ErrNoConfigFile is returned by Reload when the daemon runs on ENV and
// defaults only.
var ErrNoConfigFile = errors.New("no config file to reload")

// ConfigHolder holds the live configuration. A reload is published only when
// the new file loads and validates; otherwise the previous config stays.
type ConfigHolder struct {
	current    atomic.Pointer[AppConfig]
	loader     *Loader
	configPath string
	logger     zerolog.Logger

	// Debounce is the quiet period after the last file event before reloading.
	Debounce time.Duration

	// reloadMu serialises reloads; Loader is not safe for concurrent use.
	reloadMu  sync.Mutex
	listeners []func(old, cur AppConfig)
}

// NewConfigHolder wraps initial. loader may be nil, which disables reloads.
func NewConfigHolder(initial AppConfig, loader *Loader) *ConfigHolder {
	h := &ConfigHolder{
		loader:   loader,
		logger:   log.WithComponent("config"),
		Debounce: DefaultReloadDebounce,
	}
	if loader != nil {
		h.configPath = loader.configPath
	}
	h.current.Store(&initial)
	return h
}

// Get returns the current configuration.
func (h *ConfigHolder) Get() AppConfig {
	return *h.current.Load()
}

// OnReload registers fn to run after every successful reload.
// Register listeners before starting Watch.
func (h *ConfigHolder) OnReload(fn func(old, cur AppConfig)) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload reads the config file again and publishes it when it is valid.
func (h *ConfigHolder) Reload(_ context.Context) error {
	if h.configPath == "" {
		return ErrNoConfigFile
	}
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")
	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("new configuration rejected, keeping the current one")
		return fmt.Errorf("reload config: %w", err)
	}

	old := *h.current.Swap(&next)
	h.logChanges(old, next)
	for _, fn := range h.listeners {
		fn(old, next)
	}
	h.logger.Info().Str(log.FieldEvent, "config.reload_success").Msg("configuration reloaded")
	return nil
}

// Watch reloads the config whenever the file changes, until ctx is done.
// The parent directory is watched so editors that replace the file by rename
// are noticed too. Without a config file Watch returns immediately.
func (h *ConfigHolder) Watch(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().
			Str(log.FieldEvent, "config.watcher_disabled").
			Msg("config file watcher disabled (ENV-only configuration)")
		return nil
	}
	target, err := filepath.Abs(h.configPath)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str("path", target).
		Msg("watching config file for changes")

	debounce := h.Debounce
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			// Failures are logged by Reload and the old config stays live.
			_ = h.Reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().Err(err).Str(log.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}

// logChanges reports the settings that apply live and warns about the ones
// that only take effect after a restart.
func (h *ConfigHolder) logChanges(old, cur AppConfig) {
	if old.Issues.DefaultPageSize != cur.Issues.DefaultPageSize {
		h.logger.Info().
			Int("old", old.Issues.DefaultPageSize).
			Int("new", cur.Issues.DefaultPageSize).
			Msg("config changed: Issues.DefaultPageSize")
	}
	if old.LogLevel != cur.LogLevel {
		h.logger.Info().
			Str("old", old.LogLevel).
			Str("new", cur.LogLevel).
			Msg("config changed: LogLevel")
	}

	restart := map[string]bool{
		"Server.ListenAddr":    old.Server.ListenAddr != cur.Server.ListenAddr,
		"Server.RateLimitRPM":  old.Server.RateLimitRPM != cur.Server.RateLimitRPM,
		"Session.Backend":      old.Session.Backend != cur.Session.Backend,
		"Session.TTL":          old.Session.TTL != cur.Session.TTL,
		"DataDir":              old.DataDir != cur.DataDir,
		"Tracing.Enabled":      old.Tracing.Enabled != cur.Tracing.Enabled,
		"Metrics.Enabled":      old.Metrics.Enabled != cur.Metrics.Enabled,
		"Server.CookieSecure":  old.Server.CookieSecure != cur.Server.CookieSecure,
		"Session.Redis.Addr":   old.Session.Redis.Addr != cur.Session.Redis.Addr,
		"Server.ReadTimeout":   old.Server.ReadTimeout != cur.Server.ReadTimeout,
		"Server.WriteTimeout":  old.Server.WriteTimeout != cur.Server.WriteTimeout,
		"Issues.SeedAdmin":     old.Issues.SeedAdmin != cur.Issues.SeedAdmin,
		"Tracing.SamplingRate": old.Tracing.SamplingRate != cur.Tracing.SamplingRate,
	}
	for field, changed := range restart {
		if changed {
			h.logger.Warn().
				Str(log.FieldEvent, "config.restart_required").
				Str("field", field).
				Msg("config change takes effect after a restart")
		}
	}
}
