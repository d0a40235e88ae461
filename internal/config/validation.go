// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ManuGH/issuedesk/internal/validate"
)

var (
	sessionBackends = []string{"memory", "redis", "badger", "sqlite"}
	logLevels       = []string{"trace", "debug", "info", "warn", "error"}
	exporters       = []string{"grpc", "http"}
)

// Validate checks cfg and reports every problem at once. It creates DataDir
// when missing.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.Directory("DataDir", cfg.DataDir, false)
	v.OneOf("LogLevel", cfg.LogLevel, logLevels)

	v.ListenAddr("Server.ListenAddr", cfg.Server.ListenAddr)
	v.PositiveDuration("Server.ReadTimeout", cfg.Server.ReadTimeout)
	v.PositiveDuration("Server.WriteTimeout", cfg.Server.WriteTimeout)
	v.PositiveDuration("Server.IdleTimeout", cfg.Server.IdleTimeout)
	v.PositiveDuration("Server.ShutdownTimeout", cfg.Server.ShutdownTimeout)
	v.NonNegative("Server.RateLimitRPM", cfg.Server.RateLimitRPM)
	v.IPOrCIDR("Server.TrustedProxies", cfg.Server.TrustedProxies)
	v.Custom("Server.AllowedOrigins", cfg.Server.AllowedOrigins, checkOrigins)

	v.OneOf("Session.Backend", cfg.Session.Backend, sessionBackends)
	v.PositiveDuration("Session.TTL", cfg.Session.TTL)
	if cfg.Session.Backend == "redis" {
		v.HostPort("Session.Redis.Addr", cfg.Session.Redis.Addr)
		v.Range("Session.Redis.DB", cfg.Session.Redis.DB, 0, 15)
	}

	v.Range("Issues.DefaultPageSize", cfg.Issues.DefaultPageSize, 1, 1000)
	v.Custom("Issues.SeedAdmin", cfg.Issues.SeedAdmin, checkSeedAdmin)

	if cfg.Tracing.Enabled {
		v.OneOf("Tracing.Exporter", cfg.Tracing.Exporter, exporters)
		v.NotEmpty("Tracing.Endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("Tracing.SamplingRate", cfg.Tracing.SamplingRate, 0, 1)
	}
	return v.Err()
}

// checkOrigins accepts "*" or scheme://host[:port] entries without a path.
func checkOrigins(value any) error {
	origins, _ := value.([]string)
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" || o == "*" {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" ||
			(u.Path != "" && u.Path != "/") || u.RawQuery != "" {
			return fmt.Errorf("origin %q must look like https://host[:port]", o)
		}
	}
	return nil
}

// checkSeedAdmin rejects "*": it is the grant subject matching every user,
// so seeding it as admin would hand the demo project to anyone.
func checkSeedAdmin(value any) error {
	name, _ := value.(string)
	if strings.TrimSpace(name) == "*" {
		return fmt.Errorf("seed admin cannot be the wildcard grant subject")
	}
	return nil
}
