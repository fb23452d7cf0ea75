// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Command discipline is the client for discipline-daemon. It manages
// users and rules, reports daemon status, and provides the session
// hooks the login stack calls.
//
// Every command talks to the daemon's unix socket (--socket, or
// $DISCIPLINE_SOCKET). Mutating commands need a uid the daemon allows;
// read-only ones work for anyone who can reach the socket.
package main
