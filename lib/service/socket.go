// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/discipline-project/discipline/lib/codec"
)

// Error codes the transport itself produces. Handlers' errors are
// mapped through SocketConfig.ErrorCode.
const (
	CodeInvalidRequest   = "invalid_request"
	CodePermissionDenied = "permission_denied"
	CodeInternal         = "internal_error"
)

// ActionFunc handles one request. raw is the whole CBOR request,
// including the "action" field. A nil result produces {ok: true}
// with no data.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the envelope of every reply on the socket.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Code  string           `cbor:"code,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// SocketConfig configures a SocketServer.
type SocketConfig struct {
	Path string

	// Mode is applied to the socket file after it is created. Zero
	// leaves whatever the umask produced.
	Mode os.FileMode

	// Authorize decides whether a peer may call actions registered
	// with HandleAuthorized. Required if any are registered.
	Authorize func(Peer) bool

	// ErrorCode maps a handler error to a stable code for the
	// response. Nil maps every error to CodeInternal.
	ErrorCode func(error) string

	Logger *slog.Logger
}

// SocketServer answers one CBOR request per unix socket connection.
type SocketServer struct {
	config     SocketConfig
	handlers   map[string]ActionFunc
	authorized map[string]bool
	logger     *slog.Logger
	ready      chan struct{}

	activeConnections sync.WaitGroup
}

// NewSocketServer returns a server for config. Register actions before
// calling Serve.
func NewSocketServer(config SocketConfig) *SocketServer {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if config.ErrorCode == nil {
		config.ErrorCode = func(error) string { return CodeInternal }
	}
	return &SocketServer{
		config:     config,
		handlers:   make(map[string]ActionFunc),
		authorized: make(map[string]bool),
		logger:     logger,
		ready:      make(chan struct{}),
	}
}

// Handle registers an action any connected peer may call. Panics on a
// duplicate registration.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// HandleAuthorized registers an action that only peers accepted by
// SocketConfig.Authorize may call. Panics if no Authorize is
// configured.
func (s *SocketServer) HandleAuthorized(action string, handler ActionFunc) {
	if s.config.Authorize == nil {
		panic(fmt.Sprintf("service.SocketServer: HandleAuthorized(%q) without an Authorize function", action))
	}
	s.Handle(action, handler)
	s.authorized[action] = true
}

// Ready is closed once the socket is listening.
func (s *SocketServer) Ready() <-chan struct{} {
	return s.ready
}

// Serve listens on the configured path until ctx is cancelled, then
// waits for in-flight requests. A stale socket file is removed first
// and the socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	path := s.config.Path
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", path, err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", path, err)
	}
	defer func() {
		listener.Close()
		os.Remove(path)
	}()

	if s.config.Mode != 0 {
		if err := os.Chmod(path, s.config.Mode); err != nil {
			return fmt.Errorf("setting mode of %s: %w", path, err)
		}
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", path)
	close(s.ready)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

const (
	readTimeout    = 30 * time.Second
	writeTimeout   = 10 * time.Second
	maxRequestSize = 1024 * 1024
)

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeError(conn, CodeInvalidRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeError(conn, CodeInvalidRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if header.Action == "" {
		s.writeError(conn, CodeInvalidRequest, "missing required field: action")
		return
	}

	handler, exists := s.handlers[header.Action]
	if !exists {
		s.writeError(conn, CodeInvalidRequest, fmt.Sprintf("unknown action %q", header.Action))
		return
	}

	peer, err := peerCredentials(conn)
	if err != nil {
		s.logger.Debug("peer credentials unavailable", "action", header.Action, "error", err)
	} else {
		ctx = withPeer(ctx, peer)
	}

	if s.authorized[header.Action] && (err != nil || !s.config.Authorize(peer)) {
		s.logger.Warn("action refused",
			"action", header.Action,
			"uid", peer.UID,
			"pid", peer.PID,
		)
		s.writeError(conn, CodePermissionDenied, fmt.Sprintf("action %q requires an authorized user", header.Action))
		return
	}

	result, err := handler(ctx, []byte(raw))
	if err != nil {
		s.logger.Debug("action failed", "action", header.Action, "error", err)
		s.writeError(conn, s.config.ErrorCode(err), err.Error())
		return
	}

	s.writeSuccess(conn, result)
}

func (s *SocketServer) writeError(conn net.Conn, code, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(Response{
		OK:    false,
		Error: message,
		Code:  code,
	}); err != nil {
		s.logger.Debug("failed to write error response", "error", err)
	}
}

func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, CodeInternal, fmt.Sprintf("marshaling response: %v", err))
			return
		}
		response.Data = data
	}

	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write success response", "error", err)
	}
}
