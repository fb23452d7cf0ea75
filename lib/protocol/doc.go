// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol defines the actions, messages, and error codes of
// the daemon's control socket, and a typed [Client] for them.
//
// Messages carry `json` tags: the socket encodes them as CBOR through
// lib/codec and the CLI prints the same values as JSON with --json.
package protocol
