// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the discipline
// binary: a tree of [Command] values dispatched by name, flags bound
// from tagged parameter structs, typo suggestions for unknown commands
// and flags, and shared output helpers (--json, tables, exit codes).
//
// Commands never print directly to os.Stdout. They write through
// [Stdout] and [Stderr] so tests can capture output.
package cli
