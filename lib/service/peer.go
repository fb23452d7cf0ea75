// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package service

import "context"

// Peer is the kernel-reported identity of the process on the other end
// of a connection.
type Peer struct {
	PID int32
	UID uint32
	GID uint32
}

// IsRoot reports whether the peer runs as uid 0.
func (p Peer) IsRoot() bool {
	return p.UID == 0
}

type peerKey struct{}

func withPeer(ctx context.Context, peer Peer) context.Context {
	return context.WithValue(ctx, peerKey{}, peer)
}

// PeerFromContext returns the peer attached to a handler's context.
// The second result is false when the platform could not report one.
func PeerFromContext(ctx context.Context) (Peer, bool) {
	peer, ok := ctx.Value(peerKey{}).(Peer)
	return peer, ok
}
