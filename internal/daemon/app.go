// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/issuedesk/internal/config"
	"github.com/ManuGH/issuedesk/internal/log"
)

// sweeper is implemented by session stores that need explicit expiry.
type sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Run starts the HTTP server and the background subsystems and blocks until
// ctx is cancelled or one of them fails. Resources are released before Run
// returns.
func (d *Daemon) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.config.Server.ListenAddr)
	if err != nil {
		_ = d.Shutdown(context.Background())
		return err
	}
	return d.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (d *Daemon) Serve(ctx context.Context, ln net.Listener) error {
	if d.server == nil {
		return ErrMissingServer
	}
	select {
	case d.running <- struct{}{}:
	default:
		return ErrAlreadyRunning
	}

	d.logger.Info().
		Str("version", d.config.Version).
		Str("listen", ln.Addr().String()).
		Str("session_backend", d.config.Session.Backend).
		Msg("starting issuedesk daemon")

	g, gctx := errgroup.WithContext(ctx)

	if sw, ok := d.sessions.(sweeper); ok && d.config.Session.CleanupInterval > 0 {
		g.Go(func() error {
			d.sweepLoop(gctx, sw, d.config.Session.CleanupInterval)
			return nil
		})
	}

	g.Go(func() error {
		if err := d.holder.Watch(gctx); err != nil {
			// Reload stays available via SIGHUP.
			d.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_failed").Msg("config file watcher unavailable")
		}
		return nil
	})
	g.Go(func() error {
		d.reloadOnHangup(gctx)
		return nil
	})

	// Main server lifecycle.
	g.Go(func() error {
		return d.server.Serve(gctx, ln)
	})

	runErr := g.Wait()
	shutdownErr := d.Shutdown(context.WithoutCancel(ctx))
	d.logger.Info().Msg("daemon stopped")
	return errors.Join(runErr, shutdownErr)
}

// reloadOnHangup reloads the config file on every SIGHUP until ctx is done.
func (d *Daemon) reloadOnHangup(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			d.logger.Info().Str(log.FieldEvent, "config.sighup").Msg("SIGHUP received, reloading configuration")
			if err := d.holder.Reload(ctx); err != nil && !errors.Is(err, config.ErrNoConfigFile) {
				d.logger.Warn().Err(err).Msg("configuration reload failed")
			}
		}
	}
}

func (d *Daemon) sweepLoop(ctx context.Context, sw sweeper, interval time.Duration) {
	logger := log.WithComponent("session-sweeper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sw.Sweep(ctx)
			if err != nil {
				logger.Warn().Err(err).Str(log.FieldEvent, "session.sweep_failed").Msg("expired session sweep failed")
				continue
			}
			if n > 0 {
				logger.Debug().Int64("removed", n).Msg("expired session values removed")
			}
		}
	}
}

// Shutdown runs the shutdown hooks (telemetry flush, store close) once,
// bounded by the configured shutdown timeout.
func (d *Daemon) Shutdown(ctx context.Context) error {
	timeout := d.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.hooks.run(shutdownCtx, d.logger)
}
