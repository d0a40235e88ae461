// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
	// ConsumedEnvKeys records every key the loader read.
	ConsumedEnvKeys map[string]struct{}
	environ         func() []string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
		environ:         os.Environ,
	}
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, def)
}

func (l *Loader) envList(key string, def []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, def)
}

// Load loads configuration with precedence: ENV > File > Defaults, then validates.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file over cfg. Unknown fields are fatal.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString("ISSUEDESK_DATA", cfg.DataDir)
	cfg.LogLevel = l.envString("ISSUEDESK_LOG_LEVEL", cfg.LogLevel)

	s := &cfg.Server
	s.ListenAddr = l.envString("ISSUEDESK_LISTEN", s.ListenAddr)
	s.ReadTimeout = l.envDuration("ISSUEDESK_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = l.envDuration("ISSUEDESK_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = l.envDuration("ISSUEDESK_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = l.envDuration("ISSUEDESK_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.AllowedOrigins = l.envList("ISSUEDESK_ALLOWED_ORIGINS", s.AllowedOrigins)
	s.TrustedProxies = l.envList("ISSUEDESK_TRUSTED_PROXIES", s.TrustedProxies)
	s.RateLimitRPM = l.envInt("ISSUEDESK_RATE_LIMIT_RPM", s.RateLimitRPM)
	s.CookieSecure = l.envBool("ISSUEDESK_COOKIE_SECURE", s.CookieSecure)

	ss := &cfg.Session
	ss.Backend = strings.ToLower(l.envString("ISSUEDESK_SESSION_BACKEND", ss.Backend))
	ss.TTL = l.envDuration("ISSUEDESK_SESSION_TTL", ss.TTL)
	ss.CleanupInterval = l.envDuration("ISSUEDESK_SESSION_CLEANUP_INTERVAL", ss.CleanupInterval)
	ss.Redis.Addr = l.envString("ISSUEDESK_REDIS_ADDR", ss.Redis.Addr)
	ss.Redis.Password = l.envString("ISSUEDESK_REDIS_PASSWORD", ss.Redis.Password)
	ss.Redis.DB = l.envInt("ISSUEDESK_REDIS_DB", ss.Redis.DB)

	cfg.Issues.DefaultPageSize = l.envInt("ISSUEDESK_DEFAULT_PAGE_SIZE", cfg.Issues.DefaultPageSize)
	cfg.Issues.SeedAdmin = l.envString("ISSUEDESK_SEED_ADMIN", cfg.Issues.SeedAdmin)

	cfg.Metrics.Enabled = l.envBool("ISSUEDESK_METRICS_ENABLED", cfg.Metrics.Enabled)

	tr := &cfg.Tracing
	tr.Enabled = l.envBool("ISSUEDESK_TRACING_ENABLED", tr.Enabled)
	tr.Exporter = strings.ToLower(l.envString("ISSUEDESK_TRACING_EXPORTER", tr.Exporter))
	tr.Endpoint = l.envString("ISSUEDESK_TRACING_ENDPOINT", tr.Endpoint)
	tr.SamplingRate = l.envFloat("ISSUEDESK_TRACING_SAMPLING_RATE", tr.SamplingRate)
	tr.Environment = l.envString("ISSUEDESK_ENVIRONMENT", tr.Environment)
}
