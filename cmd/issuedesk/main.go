// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/issuedesk/internal/config"
	"github.com/ManuGH/issuedesk/internal/daemon"
	xglog "github.com/ManuGH/issuedesk/internal/log"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "config" {
		os.Exit(runConfigCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	seed := flag.Bool("seed", false, "install the demo project into an empty issue database")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	xglog.Configure(xglog.Config{Level: "info", Service: "issuedesk", Version: version})
	logger := xglog.WithComponent("main")

	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		effectiveConfigPath = resolveDefaultConfigPath()
	}

	loader := config.NewLoader(effectiveConfigPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}
	if _, err := loader.ValidateEnvUsage(true); err != nil {
		logger.Fatal().Err(err).Str("event", "config.env_invalid").Msg("refusing to start with unknown security-sensitive settings")
	}

	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "issuedesk", Version: cfg.Version})
	logger = xglog.WithComponent("main")

	source := "env+defaults"
	if effectiveConfigPath != "" {
		source = "file"
	}
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", effectiveConfigPath).
		Str("config", cfg.String()).
		Msg("configuration loaded")

	ctx, stop := daemon.WaitForShutdown()
	defer stop()

	// The holder watches the config file and reloads it on SIGHUP.
	holder := config.NewConfigHolder(cfg, loader)
	d, err := daemon.New(ctx, cfg, daemon.Options{Seed: *seed, Config: holder})
	if err != nil {
		logger.Fatal().Err(err).Str("event", "daemon.init_failed").Msg("failed to initialise daemon")
	}
	if err := d.Run(ctx); err != nil {
		logger.Error().Err(err).Str("event", "daemon.failed").Msg("daemon exited with error")
		stop()
		os.Exit(1)
	}
}

// resolveDefaultConfigPath returns ${ISSUEDESK_DATA}/config.yaml when it exists.
func resolveDefaultConfigPath() string {
	dataDir := strings.TrimSpace(os.Getenv("ISSUEDESK_DATA"))
	if dataDir == "" {
		dataDir = config.Defaults().DataDir
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}
