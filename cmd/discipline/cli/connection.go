// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/discipline-project/discipline/lib/protocol"
)

const (
	// SocketEnvironmentVariable overrides the default socket path.
	SocketEnvironmentVariable = "DISCIPLINE_SOCKET"

	// DefaultSocketPath is where the daemon listens unless configured
	// otherwise.
	DefaultSocketPath = "/run/discipline/daemon.sock"

	callTimeout = 30 * time.Second
)

// DaemonConnection adds --socket to a command's parameters.
type DaemonConnection struct {
	SocketPath string
}

// AddFlags registers --socket, defaulting to $DISCIPLINE_SOCKET.
func (c *DaemonConnection) AddFlags(flagSet *pflag.FlagSet) {
	defaultPath := DefaultSocketPath
	if fromEnvironment := os.Getenv(SocketEnvironmentVariable); fromEnvironment != "" {
		defaultPath = fromEnvironment
	}
	flagSet.StringVar(&c.SocketPath, "socket", defaultPath, "daemon socket path (env "+SocketEnvironmentVariable+")")
}

// Client returns a protocol client for the configured socket.
func (c *DaemonConnection) Client() *protocol.Client {
	return protocol.NewClient(c.SocketPath)
}

// CallContext bounds one daemon call.
func CallContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, callTimeout)
}
