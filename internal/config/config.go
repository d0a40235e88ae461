// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the issuedesk configuration from defaults, an optional
// YAML file and ISSUEDESK_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"time"
)

// AppConfig is the effective configuration of the daemon.
type AppConfig struct {
	// Version is the build version; never read from file or env.
	Version string `yaml:"-"`

	DataDir  string `yaml:"dataDir"`
	LogLevel string `yaml:"logLevel"`

	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Issues  IssuesConfig  `yaml:"issues"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig configures the HTTP listener and ingress middleware.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	TrustedProxies  []string      `yaml:"trustedProxies"`
	// RateLimitRPM is requests per minute per client IP; zero disables.
	RateLimitRPM int  `yaml:"rateLimitRPM"`
	CookieSecure bool `yaml:"cookieSecure"`
}

// SessionConfig selects the session store backend.
type SessionConfig struct {
	Backend         string        `yaml:"backend"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	Redis           RedisConfig   `yaml:"redis"`
}

// RedisConfig is used when Session.Backend is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// IssuesConfig configures the issue list and the embedded issue database.
type IssuesConfig struct {
	DefaultPageSize int `yaml:"defaultPageSize"`
	// SeedAdmin receives full permissions on the demo project created by --seed.
	SeedAdmin string `yaml:"seedAdmin"`
}

// MetricsConfig toggles the Prometheus endpoint and HTTP metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// String returns a log-safe summary; secrets are masked.
func (c AppConfig) String() string {
	redis := c.Session.Redis.Addr
	if c.Session.Redis.Password != "" {
		redis += " (password set)"
	}
	return fmt.Sprintf("listen=%s data=%s session=%s redis=%s pageSize=%d metrics=%t tracing=%t",
		c.Server.ListenAddr, c.DataDir, c.Session.Backend, redis,
		c.Issues.DefaultPageSize, c.Metrics.Enabled, c.Tracing.Enabled)
}
