// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package regulation is the daemon's in-memory state: the registered
// users, each with one rule group per domain, and the process-wide
// rule count.
//
// [Registry] serializes access with one lock per level. The registry
// lock guards the set of users; each group has its own lock; the
// cross-group count has another. Locks are always taken in that order.
// Rule procedures hold the registry lock for reading, so procedures on
// different groups run in parallel, while adding or deleting a user
// takes it for writing and excludes them all.
//
// Session gating answers whether an operating system account may open
// a login session: it may not while any rule in its Account group is
// both protected and scheduled.
package regulation
