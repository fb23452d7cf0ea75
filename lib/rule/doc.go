// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package rule holds the rule data model and the lifecycle procedures
// that change it.
//
// A [Rule] pairs a schedule ([conditional.Activator]) with a lock
// ([conditional.Protector]). Rules are grouped per user and per
// regulation [Domain] into a [RuleGroup] with its own capacity, and a
// single process-wide [CrossGroupInfo] caps the total across all
// groups.
//
// # Mutation protocol
//
// [AddRule], [EnsureRuleDeleted], [ActivateRule], and [DeactivateRule]
// are the only operations that change a group. Each one:
//
//  1. checks its preconditions against memory,
//  2. computes the new value on a copy,
//  3. writes it through [Store],
//  4. applies it to memory only if the write succeeded.
//
// A failed write therefore needs no undo: the copy is dropped. Store
// failures surface as [*InternalError]; precondition failures as the
// package's sentinel errors, reported before any store call.
//
// The procedures do not lock. Callers hold the group's write lock and
// the cross-group lock across the whole call (see lib/regulation). The
// store write runs under a context that ignores the caller's
// cancellation, so a client hanging up mid-call cannot leave memory and
// storage disagreeing about whether the write happened.
package rule
