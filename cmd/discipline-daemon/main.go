// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/discipline-project/discipline/lib/clock"
	"github.com/discipline-project/discipline/lib/config"
	"github.com/discipline-project/discipline/lib/process"
	"github.com/discipline-project/discipline/lib/ruledb"
	"github.com/discipline-project/discipline/lib/version"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	flags := pflag.NewFlagSet("discipline-daemon", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to discipline.yaml (default $"+config.EnvironmentVariable+")")
	showVersion := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if *showVersion {
		version.Print("discipline-daemon")
		return nil
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	db, err := ruledb.Open(ruledb.Config{
		Path:   cfg.Paths.Database,
		Logger: logger.With("component", "ruledb"),
	})
	if err != nil {
		return err
	}
	defer db.Close()

	daemon, err := newDaemon(ctx, daemonConfig{
		Store:            db,
		Clock:            clock.Real(),
		Location:         location,
		MaxUsers:         cfg.Limits.MaxUsers,
		MaxRulesPerGroup: cfg.Limits.MaxRulesPerGroup,
		MaxRulesTotal:    cfg.Limits.MaxRulesTotal,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	logger.Info("discipline daemon starting",
		"version", version.Info(),
		"database", cfg.Paths.Database,
		"socket", cfg.Socket.Path,
		"monotonic_now", uint64(daemon.monotonic.Now()),
	)

	if err := daemon.Run(ctx, runConfig{
		SocketPath:      cfg.Socket.Path,
		Authorize:       func(uid uint32) bool { return cfg.IsAllowed(uid) },
		SyncInterval:    cfg.Clock.SyncInterval,
		PersistInterval: cfg.Clock.PersistInterval,
		MetricsListen:   cfg.Metrics.Listen,
	}); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}

	logger.Info("discipline daemon stopped")
	return nil
}
