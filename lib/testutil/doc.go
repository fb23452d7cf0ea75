// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by the test suites.
//
// [SocketDir] and [SocketPath] place unix sockets under /tmp so their
// paths stay within the sun_path limit. [RequireReceive] and
// [RequireClosed] wrap the select-with-timeout pattern; they are the
// only helpers that wait on the wall clock.
//
// Helpers call t.Fatalf rather than returning errors.
package testutil
