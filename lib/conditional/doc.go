// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package conditional implements the small state machines a rule is
// built from.
//
// A rule pairs an [Activator], which answers "does the schedule cover
// this moment", with a [Protector], which answers "is the restriction
// locked on right now". Both are closed unions: a struct carrying a
// Kind plus the value for that kind. They are plain values, so copying
// one copies its whole state. The lifecycle procedures in lib/rule
// rely on that to compute a modified protector, persist it, and only
// then replace the original.
//
// # Activators
//
//   - [Always] is true at every moment.
//   - [TimeWindow] is true inside a daily time range on selected
//     weekdays.
//
// # Protectors
//
//   - [CountdownLatch] is on while its countdown runs. Activation arms
//     it; it switches itself off when the countdown ends.
//   - [Plea] stays on until deactivated and then for a grace period.
//     Deactivation during the grace period, or after it, changes
//     nothing, and activation always cancels a pending grace.
//
// Nothing here reads a clock or starts a goroutine. The Deactivating
// to Deactivated transition of a plea is computed from now on every
// evaluation.
package conditional
