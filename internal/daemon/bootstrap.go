// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the issuedesk components together and owns their lifecycle.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/issuedesk/internal/config"
	"github.com/ManuGH/issuedesk/internal/health"
	"github.com/ManuGH/issuedesk/internal/issuestore"
	"github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/session"
	"github.com/ManuGH/issuedesk/internal/telemetry"
	"github.com/ManuGH/issuedesk/internal/web"
	"github.com/ManuGH/issuedesk/internal/web/middleware"
)

// IssueDBFile is the issue database file name inside the data directory.
const IssueDBFile = "issues.db"

// Options are command-line switches that are not part of AppConfig.
type Options struct {
	// Seed installs the demo project into an empty issue database.
	Seed bool
	// Config is the live config holder. When nil, the config passed to New
	// is fixed for the daemon's lifetime.
	Config *config.ConfigHolder
}

// Daemon represents the issuedesk daemon instance.
type Daemon struct {
	config   config.AppConfig
	holder   *config.ConfigHolder
	server   *web.Server
	sessions session.Store
	issues   *issuestore.Store
	logger   zerolog.Logger

	hooks   hooks
	running chan struct{}
}

// New builds every component described by cfg. On error, the components
// created so far are closed again.
func New(ctx context.Context, cfg config.AppConfig, opts Options) (d *Daemon, err error) {
	d = &Daemon{
		config:  cfg,
		holder:  opts.Config,
		logger:  log.WithComponent("daemon"),
		running: make(chan struct{}, 1),
	}
	if d.holder == nil {
		d.holder = config.NewConfigHolder(cfg, nil)
	}
	d.holder.OnReload(d.applyConfig)
	defer func() {
		if err != nil {
			_ = d.hooks.run(context.Background(), d.logger)
		}
	}()

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "issuedesk",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Tracing.Environment,
		SessionBackend: cfg.Session.Backend,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}
	d.hooks.register("telemetry", provider.Shutdown)

	d.sessions, err = session.Open(ctx, session.Options{
		Backend:         cfg.Session.Backend,
		DataDir:         cfg.DataDir,
		TTL:             cfg.Session.TTL,
		CleanupInterval: cfg.Session.CleanupInterval,
		Redis: session.RedisConfig{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		},
		Logger: log.WithComponent("session"),
	})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	d.hooks.register("session-store", func(context.Context) error { return d.sessions.Close() })

	d.issues, err = issuestore.Open(ctx, filepath.Join(cfg.DataDir, IssueDBFile))
	if err != nil {
		return nil, fmt.Errorf("open issue store: %w", err)
	}
	d.hooks.register("issue-store", func(context.Context) error { return d.issues.Close() })

	if opts.Seed {
		seeded, err := d.issues.Seed(ctx, cfg.Issues.SeedAdmin)
		if err != nil {
			return nil, fmt.Errorf("seed issue store: %w", err)
		}
		d.logger.Info().Bool("seeded", seeded).Str("admin", cfg.Issues.SeedAdmin).Msg("demo data check complete")
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewPingChecker("issuestore", d.issues, 2*time.Second, true))
	hm.RegisterChecker(health.NewPingChecker("sessions", d.sessions, 2*time.Second, true))

	proxies, err := middleware.ParseCIDRs(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	tracingService := ""
	if cfg.Tracing.Enabled {
		tracingService = "issuedesk-http"
	}

	webCfg := web.DefaultConfig()
	webCfg.DefaultPageSize = cfg.Issues.DefaultPageSize
	webCfg.PageSizeFunc = func() int { return d.holder.Get().Issues.DefaultPageSize }
	webCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	webCfg.TrustedProxies = proxies
	webCfg.RateLimitRPM = cfg.Server.RateLimitRPM
	webCfg.TracingService = tracingService
	webCfg.EnableMetrics = cfg.Metrics.Enabled
	webCfg.CookieSecure = cfg.Server.CookieSecure
	webCfg.ReadTimeout = cfg.Server.ReadTimeout
	webCfg.WriteTimeout = cfg.Server.WriteTimeout
	webCfg.IdleTimeout = cfg.Server.IdleTimeout
	webCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	d.server = web.NewServer(webCfg, d.issues, d.sessions, hm)

	return d, nil
}

// applyConfig pushes the live-reloadable settings of a reloaded config.
func (d *Daemon) applyConfig(old, cur config.AppConfig) {
	if old.LogLevel != cur.LogLevel {
		if err := log.SetLevel(cur.LogLevel); err != nil {
			d.logger.Warn().Err(err).Str("level", cur.LogLevel).Msg("invalid log level ignored")
		}
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (d *Daemon) Handler() http.Handler {
	return d.server.Handler()
}

// WaitForShutdown returns a context cancelled by SIGINT or SIGTERM.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
