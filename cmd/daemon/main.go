// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/pushedge/internal/config"
	"github.com/ManuGH/pushedge/internal/daemon"
	plog "github.com/ManuGH/pushedge/internal/log"
	"github.com/ManuGH/pushedge/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until config is loaded
	plog.Configure(plog.Config{
		Level:   "info",
		Service: "pushedge",
		Version: version.Version,
	})
	logger := plog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(config.ParseString(config.EnvPrefix+"CONFIG", ""))
	}

	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(plog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	plog.Configure(plog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger = plog.WithComponent("daemon")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(plog.FieldEvent, "config.loaded").
		Str("source", source).
		Str(plog.FieldPath, path).
		Str("bundle_id", cfg.BundleID).
		Str("edge_settings", cfg.EdgeSettingsPath).
		Msg("configuration loaded")

	app, err := daemon.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str(plog.FieldEvent, "daemon.init_failed").Msg("failed to initialise daemon")
	}

	logger.Info().
		Str(plog.FieldEvent, "daemon.starting").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("listen", cfg.Server.ListenAddr).
		Msg("starting pushedge")

	if err := app.Run(ctx); err != nil {
		logger.Fatal().Err(err).Str(plog.FieldEvent, "daemon.run_failed").Msg("daemon exited with error")
	}
}
