// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package web maps HTTP requests onto the pager, delete and conversion
// workflows and renders their outcome tokens.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
	"github.com/ManuGH/issuedesk/internal/health"
	xglog "github.com/ManuGH/issuedesk/internal/log"
	"github.com/ManuGH/issuedesk/internal/pager"
	"github.com/ManuGH/issuedesk/internal/session"
	"github.com/ManuGH/issuedesk/internal/web/middleware"
)

// Config holds the HTTP-facing settings of the server.
type Config struct {
	DefaultPageSize int
	// PageSizeFunc, when set, supplies the default page size per request so
	// a config reload applies without a restart.
	PageSizeFunc   func() int
	AllowedOrigins []string
	TrustedProxies []*net.IPNet
	// RateLimitRPM is the per-client request budget per minute; zero disables.
	RateLimitRPM   int
	TracingService string
	EnableMetrics  bool
	EnableLogging  bool
	CookieSecure   bool

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		DefaultPageSize: pager.DefaultPageSize,
		EnableMetrics:   true,
		EnableLogging:   true,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Repository is everything the handlers need from the issue backend.
type Repository interface {
	issue.Lookup
	issue.Permissions
	issue.Deleter
	issue.Converter
	issue.Preferences
	ListIssues(ctx context.Context, start, limit int) ([]issue.Issue, int, error)
}

// Server owns the router and the HTTP listener.
type Server struct {
	cfg      Config
	repo     Repository
	sessions session.Store
	health   *health.Manager
	router   chi.Router
	logger   zerolog.Logger

	httpServer *http.Server
}

// NewServer wires the routes. health may be nil.
func NewServer(cfg Config, repo Repository, sessions session.Store, hm *health.Manager) *Server {
	s := &Server{
		cfg:      cfg,
		repo:     repo,
		sessions: sessions,
		health:   hm,
		logger:   xglog.WithComponent("web"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) defaultPageSize() int {
	if s.cfg.PageSizeFunc != nil {
		return s.cfg.PageSizeFunc()
	}
	return s.cfg.DefaultPageSize
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            len(s.cfg.AllowedOrigins) > 0,
		AllowedOrigins:        s.cfg.AllowedOrigins,
		CORSAllowCredentials:  true,
		EnableSecurityHeaders: true,
		TrustedProxies:        s.cfg.TrustedProxies,
		EnableMetrics:         s.cfg.EnableMetrics,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         s.cfg.EnableLogging,
		RateLimitRequests:     s.cfg.RateLimitRPM,
		RateLimitWindow:       time.Minute,
	})

	if s.health != nil {
		r.Get("/healthz", s.health.ServeHealth)
		r.Get("/readyz", s.health.ServeReady)
	}
	if s.cfg.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/session/token", s.handleSessionToken)
		r.Delete("/session", s.handleEndSession)

		r.Route("/issues", func(r chi.Router) {
			r.Get("/", s.handleListIssues)
			r.Post("/pager/reset", s.handleResetPager)
			r.Post("/pager/tempmax", s.handleTempMax)
			r.Get("/cant-browse", s.handleCantBrowse)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/delete", s.handleDeleteForm)
				r.Post("/delete", s.handleDelete)

				r.Route("/convert/{kind}", func(r chi.Router) {
					r.Get("/", s.handleConvertStart)
					r.Post("/type", s.handleConvertType)
					r.Post("/fields", s.handleConvertFields)
					r.Post("/convert", s.handleConvert)
					r.Post("/cancel", s.handleConvertCancel)
				})
			})
		})
	})
	return r
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:        s.router,
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		IdleTimeout:    s.cfg.IdleTimeout,
		MaxHeaderBytes: s.cfg.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", ln.Addr().String()).Msg("HTTP server listening")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info().Msg("shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}
	s.logger.Info().Msg("HTTP server stopped")
	return nil
}
