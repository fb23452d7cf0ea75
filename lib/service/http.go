// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const defaultHTTPShutdownTimeout = 10 * time.Second

// HTTPServer runs a plain TCP HTTP listener with the Serve(ctx) shape
// SocketServer has, so both fit in one errgroup. The daemon mounts its
// /metrics handler on it.
type HTTPServer struct {
	config HTTPServerConfig

	ready chan struct{}
	addr  net.Addr
}

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	// Address is host:port. Port 0 picks a free port; see Addr.
	Address string

	Handler http.Handler

	// ShutdownTimeout caps the drain after cancellation. Defaults to
	// 10s.
	ShutdownTimeout time.Duration

	Logger *slog.Logger
}

// NewHTTPServer validates config. Address, Handler, and Logger are
// required; a missing one is a programming error and panics.
func NewHTTPServer(config HTTPServerConfig) *HTTPServer {
	switch {
	case config.Address == "":
		panic("service.HTTPServer: Address is required")
	case config.Handler == nil:
		panic("service.HTTPServer: Handler is required")
	case config.Logger == nil:
		panic("service.HTTPServer: Logger is required")
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaultHTTPShutdownTimeout
	}
	return &HTTPServer{config: config, ready: make(chan struct{})}
}

// Ready closes when the port is bound.
func (s *HTTPServer) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound address. Only meaningful after Ready.
func (s *HTTPServer) Addr() net.Addr { return s.addr }

// Serve binds, serves until ctx ends, and drains in-flight scrapes.
// A listener failure is returned immediately.
func (s *HTTPServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.config.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
	logger := s.config.Logger.With("address", s.addr.String())
	logger.Info("metrics endpoint listening")

	failed := make(chan error, 1)
	go func() {
		err := server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		logger.Error("draining metrics endpoint", "error", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("metrics endpoint stopped")
	return nil
}
