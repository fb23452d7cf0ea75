// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the discipline CLI command tree. Each
// command is a thin wrapper over one daemon action in lib/protocol:
// parse flags, call the daemon, print a table or --json.
package commands
