// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package chronic provides the time primitives the rule engine is built
// on: a monotonic [Instant] and non-negative [Duration], the
// [Countdown] timer, time-of-day windows, and weekday sets.
//
// Nothing in this package reads a clock on its own. Every operation
// that depends on "now" takes it as an explicit parameter, so the rule
// engine is deterministic and tests never sleep. The one exception is
// [MonotonicClock], which produces Instants from an injected
// [clock.Clock].
//
// # Instants
//
// An Instant is a tick count in milliseconds of daemon time. Daemon
// time advances only while the daemon runs and is immune to wall-clock
// changes: setting the system clock forward does not expire a
// countdown. [InstantNever] is reserved as the "not armed" sentinel.
//
// # Arithmetic
//
// All arithmetic saturates. Duration subtraction clamps at zero and
// Instant.ElapsedSince returns zero when the other instant is not
// earlier. There is no operation in this package that can underflow.
package chronic
