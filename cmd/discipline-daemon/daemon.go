// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/clock"
	"github.com/discipline-project/discipline/lib/metrics"
	"github.com/discipline-project/discipline/lib/regulation"
	"github.com/discipline-project/discipline/lib/ruledb"
	"github.com/discipline-project/discipline/lib/service"
	"golang.org/x/sync/errgroup"
)

// firstInstant is the clock reading of a fresh database.
const firstInstant chronic.Instant = 1

// store is what the daemon needs from the database.
type store interface {
	regulation.Store
	regulation.Loader
	SaveClock(ctx context.Context, now chronic.Instant) error
	LoadClock(ctx context.Context) (chronic.Instant, error)
}

type daemonConfig struct {
	Store    store
	Clock    clock.Clock
	Location *time.Location

	MaxUsers         int
	MaxRulesPerGroup int
	MaxRulesTotal    int

	// LookupOperatingSystemUser overrides os/user lookups in tests.
	LookupOperatingSystemUser func(string) error

	Logger *slog.Logger
}

// Daemon is the running service state.
type Daemon struct {
	store     store
	clock     clock.Clock
	location  *time.Location
	monotonic *chronic.MonotonicClock
	registry  *regulation.Registry
	metrics   *metrics.Metrics
	logger    *slog.Logger
	startedAt time.Time

	ready chan struct{}
}

// newDaemon restores the clock and the registry from the store.
func newDaemon(ctx context.Context, cfg daemonConfig) (*Daemon, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	start, err := cfg.Store.LoadClock(ctx)
	if errors.Is(err, ruledb.ErrNoClock) {
		start = firstInstant
	} else if err != nil {
		return nil, err
	}

	registry, err := regulation.New(regulation.Config{
		Store:                     cfg.Store,
		MaxUsers:                  cfg.MaxUsers,
		MaxRulesPerGroup:          cfg.MaxRulesPerGroup,
		MaxRulesTotal:             cfg.MaxRulesTotal,
		LookupOperatingSystemUser: cfg.LookupOperatingSystemUser,
		Logger:                    cfg.Logger.With("component", "regulation"),
	})
	if err != nil {
		return nil, err
	}
	if err := registry.Load(ctx, cfg.Store); err != nil {
		return nil, err
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	d := &Daemon{
		store:     cfg.Store,
		clock:     cfg.Clock,
		location:  location,
		monotonic: chronic.NewMonotonicClock(cfg.Clock, start),
		registry:  registry,
		logger:    cfg.Logger,
		startedAt: cfg.Clock.Now(),
		ready:     make(chan struct{}),
	}
	d.metrics = metrics.New(metrics.Sources{
		Stats: registry.Stats,
		Now:   d.monotonic.Now,
	})
	return d, nil
}

// reading is one evaluation moment: daemon time for protectors, local
// wall-clock time for activators.
type reading struct {
	now       chronic.Instant
	timeOfDay chronic.TimeOfDay
	weekday   chronic.Weekday
}

func (d *Daemon) read() reading {
	timeOfDay, weekday := chronic.WallClockReading(d.clock.Now().In(d.location))
	return reading{now: d.monotonic.Now(), timeOfDay: timeOfDay, weekday: weekday}
}

type runConfig struct {
	SocketPath string

	// Authorize decides which uids may call mutating actions.
	Authorize func(uid uint32) bool

	SyncInterval    time.Duration
	PersistInterval time.Duration

	// MetricsListen enables the /metrics endpoint when not empty.
	MetricsListen string
}

// Ready is closed once the socket accepts requests.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Run serves until ctx is cancelled or a component fails.
func (d *Daemon) Run(ctx context.Context, cfg runConfig) error {
	server := service.NewSocketServer(service.SocketConfig{
		Path:      cfg.SocketPath,
		Mode:      0o666,
		Authorize: func(peer service.Peer) bool { return cfg.Authorize(peer.UID) },
		ErrorCode: protocolCode,
		Logger:    d.logger.With("component", "socket"),
	})
	d.registerActions(server)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Serve(groupCtx)
	})
	group.Go(func() error {
		select {
		case <-server.Ready():
			close(d.ready)
		case <-groupCtx.Done():
		}
		return nil
	})
	group.Go(func() error {
		return d.runClock(groupCtx, cfg.SyncInterval, cfg.PersistInterval)
	})
	if cfg.MetricsListen != "" {
		mux := newMetricsMux(d.metrics)
		httpServer := service.NewHTTPServer(service.HTTPServerConfig{
			Address: cfg.MetricsListen,
			Handler: mux,
			Logger:  d.logger.With("component", "metrics"),
		})
		group.Go(func() error {
			return httpServer.Serve(groupCtx)
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
