// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		DataDir:  "/var/lib/issuedesk",
		LogLevel: "info",
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Session: SessionConfig{
			Backend:         "memory",
			TTL:             30 * time.Minute,
			CleanupInterval: time.Minute,
			Redis:           RedisConfig{Addr: "localhost:6379"},
		},
		Issues: IssuesConfig{
			DefaultPageSize: 20,
			SeedAdmin:       "admin",
		},
		Metrics: MetricsConfig{Enabled: true},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}
