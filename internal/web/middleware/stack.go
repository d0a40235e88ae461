// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package middleware holds the HTTP ingress middleware of the issuedesk server.
package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	xglog "github.com/ManuGH/issuedesk/internal/log"
)

// StackConfig selects the optional layers of the ingress stack. Recovery,
// request ids and the CSRF origin check are always on.
type StackConfig struct {
	EnableCORS           bool
	AllowedOrigins       []string
	CORSAllowCredentials bool

	EnableSecurityHeaders bool
	CSP                   string
	// TrustedProxies may set X-Forwarded-Proto for the HSTS decision.
	TrustedProxies []*net.IPNet

	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool

	// RateLimitRequests per client IP and window; zero disables.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type layer struct {
	name string
	mw   func(http.Handler) http.Handler
}

// layers returns the enabled middleware, outermost first. Order matters:
// recovery wraps everything, the request id exists before anything logs,
// CORS answers preflights before the CSRF check sees them, and the rate
// limiter sits innermost so rejected requests are still logged and counted.
func layers(cfg StackConfig) []layer {
	out := []layer{
		{"recoverer", Recoverer},
		{"request-id", RequestID},
	}
	if cfg.EnableCORS {
		out = append(out, layer{"cors", CORS(cfg.AllowedOrigins, cfg.CORSAllowCredentials)})
	}
	out = append(out, layer{"csrf", CSRFProtection(cfg.AllowedOrigins)})
	if cfg.EnableSecurityHeaders {
		out = append(out, layer{"security-headers", SecurityHeaders(cfg.CSP, cfg.TrustedProxies)})
	}
	if cfg.EnableMetrics {
		out = append(out, layer{"metrics", Metrics()})
	}
	if cfg.TracingService != "" {
		out = append(out, layer{"tracing", Tracing(cfg.TracingService)})
	}
	if cfg.EnableLogging {
		out = append(out, layer{"access-log", xglog.Middleware()})
	}
	if cfg.RateLimitRequests > 0 {
		out = append(out, layer{"rate-limit", RateLimit(RateLimitConfig{
			RequestLimit: cfg.RateLimitRequests,
			WindowSize:   cfg.RateLimitWindow,
		})})
	}
	return out
}

// NewRouter returns a chi router with the ingress stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack installs the enabled layers on r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	for _, l := range layers(cfg) {
		r.Use(l.mw)
	}
}
