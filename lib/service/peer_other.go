// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package service

import (
	"errors"
	"net"
)

var errPeerCredentialsUnsupported = errors.New("peer credentials: not supported on this platform")

func peerCredentials(net.Conn) (Peer, error) {
	return Peer{}, errPeerCredentialsUnsupported
}
