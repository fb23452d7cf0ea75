// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/discipline-project/discipline/lib/codec"
	"github.com/discipline-project/discipline/lib/testutil"
)

var errTestRefused = errors.New("refused by test")

// startServer runs server until the test ends and waits for it to
// listen.
func startServer(t *testing.T, server *SocketServer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve did not return"); err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	})
	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "socket server ready")
}

func sendRequest(t *testing.T, socketPath string, request any) Response {
	t.Helper()

	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to socket: %v", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		t.Fatalf("writing request: %v", err)
	}
	conn.(*net.UnixConn).CloseWrite()

	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return response
}

func decodeData(t *testing.T, response Response, target any) {
	t.Helper()
	if len(response.Data) == 0 {
		t.Fatal("response has no data to decode")
	}
	if err := codec.Unmarshal(response.Data, target); err != nil {
		t.Fatalf("decoding response data: %v", err)
	}
}

func TestSocketServerStatus(t *testing.T) {
	socketPath := testutil.SocketPath(t, "daemon.sock")
	server := NewSocketServer(SocketConfig{Path: socketPath})
	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return map[string]any{"users": 2, "rules": 5}, nil
	})
	startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"action": "status"})
	if !response.OK {
		t.Fatalf("expected ok=true, got error %q", response.Error)
	}
	var data map[string]any
	decodeData(t, response, &data)
	if data["users"] != uint64(2) || data["rules"] != uint64(5) {
		t.Errorf("data = %v, want users=2 rules=5", data)
	}
}

func TestSocketServerRequestErrors(t *testing.T) {
	socketPath := testutil.SocketPath(t, "daemon.sock")
	server := NewSocketServer(SocketConfig{Path: socketPath})
	server.Handle("known", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})
	startServer(t, server)

	tests := []struct {
		name    string
		request any
	}{
		{"unknown_action", map[string]string{"action": "nope"}},
		{"missing_action", map[string]string{"user": "alex"}},
		{"not_a_map", "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := sendRequest(t, socketPath, tt.request)
			if response.OK {
				t.Fatal("expected ok=false")
			}
			if response.Code != CodeInvalidRequest {
				t.Errorf("code = %q, want %q", response.Code, CodeInvalidRequest)
			}
		})
	}
}

func TestSocketServerInvalidCBOR(t *testing.T) {
	socketPath := testutil.SocketPath(t, "daemon.sock")
	server := NewSocketServer(SocketConfig{Path: socketPath})
	startServer(t, server)

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.Write([]byte{0xff, 0xff, 0xff})
	conn.(*net.UnixConn).CloseWrite()

	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if response.OK || response.Code != CodeInvalidRequest {
		t.Errorf("response = %+v, want invalid_request failure", response)
	}
}

func TestSocketServerHandlerErrorCode(t *testing.T) {
	socketPath := testutil.SocketPath(t, "daemon.sock")
	server := NewSocketServer(SocketConfig{
		Path: socketPath,
		ErrorCode: func(err error) string {
			if errors.Is(err, errTestRefused) {
				return "refused"
			}
			return CodeInternal
		},
	})
	server.Handle("refuse", func(ctx context.Context, raw []byte) (any, error) {
		return nil, fmt.Errorf("refusing: %w", errTestRefused)
	})
	server.Handle("break", func(ctx context.Context, raw []byte) (any, error) {
		return nil, errors.New("disk on fire")
	})
	startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"action": "refuse"})
	if response.OK || response.Code != "refused" {
		t.Errorf("refuse response = %+v, want code refused", response)
	}
	if response.Error != "refusing: refused by test" {
		t.Errorf("error message = %q", response.Error)
	}

	response = sendRequest(t, socketPath, map[string]string{"action": "break"})
	if response.OK || response.Code != CodeInternal {
		t.Errorf("break response = %+v, want code %s", response, CodeInternal)
	}
}

func TestSocketServerNilResult(t *testing.T) {
	socketPath := testutil.SocketPath(t, "daemon.sock")
	server := NewSocketServer(SocketConfig{Path: socketPath})
	server.Handle("noop", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})
	startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"action": "noop"})
	if !response.OK {
		t.Fatalf("expected ok=true, got %+v", response)
	}
	if len(response.Data) != 0 {
		t.Errorf("expected no data, got %d bytes", len(response.Data))
	}
}

func TestSocketServerPassesRawRequest(t *testing.T) {
	socketPath := testutil.SocketPath(t, "daemon.sock")
	server := NewSocketServer(SocketConfig{Path: socketPath})
	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Name string `cbor:"name"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]string{"name": request.Name}, nil
	})
	startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"action": "echo", "name": "alex"})
	var data map[string]string
	decodeData(t, response, &data)
	if data["name"] != "alex" {
		t.Errorf("echoed name = %q, want alex", data["name"])
	}
}

func TestSocketServerPeerCredentials(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("SO_PEERCRED is linux-only")
	}

	socketPath := testutil.SocketPath(t, "daemon.sock")
	server := NewSocketServer(SocketConfig{Path: socketPath})
	server.Handle("whoami", func(ctx context.Context, raw []byte) (any, error) {
		peer, ok := PeerFromContext(ctx)
		if !ok {
			return nil, errors.New("no peer")
		}
		return map[string]any{"uid": peer.UID, "pid": peer.PID}, nil
	})
	startServer(t, server)

	response := sendRequest(t, socketPath, map[string]string{"action": "whoami"})
	if !response.OK {
		t.Fatalf("whoami failed: %s", response.Error)
	}
	var data map[string]any
	decodeData(t, response, &data)
	if data["uid"] != uint64(os.Getuid()) {
		t.Errorf("uid = %v, want %d", data["uid"], os.Getuid())
	}
	if data["pid"] != uint64(os.Getpid()) {
		t.Errorf("pid = %v, want %d", data["pid"], os.Getpid())
	}
}

func TestSocketServerAuthorizedActions(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("SO_PEERCRED is linux-only")
	}

	tests := []struct {
		name      string
		authorize func(Peer) bool
		wantOK    bool
	}{
		{"own_uid_allowed", func(peer Peer) bool { return peer.UID == uint32(os.Getuid()) }, true},
		{"everyone_refused", func(Peer) bool { return false }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			socketPath := testutil.SocketPath(t, "daemon.sock")
			server := NewSocketServer(SocketConfig{Path: socketPath, Authorize: tt.authorize})
			server.HandleAuthorized("mutate", func(ctx context.Context, raw []byte) (any, error) {
				return nil, nil
			})
			server.Handle("read", func(ctx context.Context, raw []byte) (any, error) {
				return nil, nil
			})
			startServer(t, server)

			response := sendRequest(t, socketPath, map[string]string{"action": "mutate"})
			if response.OK != tt.wantOK {
				t.Fatalf("mutate ok = %v, want %v (%+v)", response.OK, tt.wantOK, response)
			}
			if !tt.wantOK && response.Code != CodePermissionDenied {
				t.Errorf("code = %q, want %q", response.Code, CodePermissionDenied)
			}

			if response := sendRequest(t, socketPath, map[string]string{"action": "read"}); !response.OK {
				t.Errorf("unrestricted action failed: %+v", response)
			}
		})
	}
}

func TestSocketServerSocketMode(t *testing.T) {
	socketPath := testutil.SocketPath(t, "daemon.sock")
	server := NewSocketServer(SocketConfig{Path: socketPath, Mode: 0o666})
	startServer(t, server)

	info, err := os.Stat(socketPath)
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if info.Mode().Perm() != 0o666 {
		t.Errorf("socket mode = %v, want 0666", info.Mode().Perm())
	}
}

func TestSocketServerConcurrentRequests(t *testing.T) {
	socketPath := testutil.SocketPath(t, "daemon.sock")
	server := NewSocketServer(SocketConfig{Path: socketPath})
	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Index int `cbor:"index"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]int{"index": request.Index}, nil
	})
	startServer(t, server)

	var wg sync.WaitGroup
	for index := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			response := sendRequest(t, socketPath, map[string]any{"action": "echo", "index": index})
			var data map[string]int
			decodeData(t, response, &data)
			if data["index"] != index {
				t.Errorf("request %d answered with %d", index, data["index"])
			}
		}()
	}
	wg.Wait()
}

func TestSocketServerGracefulShutdown(t *testing.T) {
	socketPath := testutil.SocketPath(t, "daemon.sock")
	server := NewSocketServer(SocketConfig{Path: socketPath})

	handlerStarted := make(chan struct{})
	handlerRelease := make(chan struct{})
	server.Handle("slow", func(ctx context.Context, raw []byte) (any, error) {
		close(handlerStarted)
		<-handlerRelease
		return map[string]bool{"completed": true}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "socket server ready")

	responses := make(chan Response, 1)
	go func() {
		responses <- sendRequest(t, socketPath, map[string]string{"action": "slow"})
	}()

	testutil.RequireClosed(t, handlerStarted, 5*time.Second, "handler started")
	cancel()
	close(handlerRelease)

	response := testutil.RequireReceive(t, responses, 5*time.Second, "in-flight response")
	if !response.OK {
		t.Errorf("in-flight request failed: %+v", response)
	}
	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve did not return"); err != nil {
		t.Errorf("Serve returned error: %v", err)
	}
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("socket file not removed after Serve returned")
	}
}

func TestSocketServerRegistrationPanics(t *testing.T) {
	noop := func(ctx context.Context, raw []byte) (any, error) { return nil, nil }

	t.Run("duplicate", func(t *testing.T) {
		server := NewSocketServer(SocketConfig{Path: "/tmp/unused.sock"})
		server.Handle("status", noop)
		defer func() {
			if recover() == nil {
				t.Error("duplicate Handle did not panic")
			}
		}()
		server.Handle("status", noop)
	})

	t.Run("authorized_without_authorize", func(t *testing.T) {
		server := NewSocketServer(SocketConfig{Path: "/tmp/unused.sock"})
		defer func() {
			if recover() == nil {
				t.Error("HandleAuthorized without Authorize did not panic")
			}
		}()
		server.HandleAuthorized("mutate", noop)
	})
}
