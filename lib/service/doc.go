// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package service carries the daemon's control protocol: CBOR over a
// unix socket, one request and one response per connection.
//
// A request is a CBOR map with an "action" field plus action-specific
// fields. The response envelope is {ok, error, code, data}: code is a
// stable machine-readable reason for a failure, data the encoded
// result of a success.
//
// The server attaches the caller's kernel-reported credentials
// (SO_PEERCRED) to the handler context; see [PeerFromContext]. Actions
// registered with [SocketServer.HandleAuthorized] are refused with
// [CodePermissionDenied] unless SocketConfig.Authorize accepts the
// peer. Platforms without SO_PEERCRED can only serve unrestricted
// actions.
//
// [HTTPServer] gives an http.Handler the same Serve(ctx) lifecycle.
package service
