// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package ruledb stores users, rules, and the daemon's monotonic clock
// in SQLite.
//
// [DB] implements regulation.Store (and through it rule.Store) and
// regulation.Loader. Every write is one IMMEDIATE transaction, so a
// write either lands completely or not at all, and a concurrent writer
// waits instead of interleaving.
//
// Rules are stored one row each with the conditionals flattened into
// columns. A countdown that is not armed stores NULL for its armed_at
// column. Protector updates compare the full stored protector against
// the value the caller believes is current and change nothing when it
// differs.
package ruledb
