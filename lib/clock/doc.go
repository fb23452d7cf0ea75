// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the wall-clock seam of the daemon.
//
// Code that reads the time or waits on it takes a Clock instead of
// calling the time package. The daemon passes Real(); tests pass
// Fake(), which stands still until Advance is called.
//
// Daemon time (the monotonic millisecond counter rules are evaluated
// against) lives in lib/chronic and is driven by a Clock from here.
//
// # Waiting in tests
//
// A goroutine that calls After or NewTicker on a FakeClock registers a
// waiter. WaitForWaiters blocks until enough waiters exist, so a test
// can advance the clock without racing the goroutine:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go loop(ctx, fake)
//	fake.WaitForWaiters(1)
//	fake.Advance(time.Minute)
package clock
