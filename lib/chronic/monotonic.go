// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package chronic

import (
	"sync"
	"time"

	"github.com/discipline-project/discipline/lib/clock"
)

// MonotonicClock produces Instants of daemon time. Daemon time starts
// from a persisted tick count and advances with the process's
// monotonic clock reading, so wall-clock adjustments never move it and
// time spent with the daemon stopped does not count.
//
// MonotonicClock is safe for concurrent use.
type MonotonicClock struct {
	clock clock.Clock

	mu       sync.Mutex
	base     Instant
	syncedAt time.Time
}

// NewMonotonicClock returns a clock whose current instant is start.
// start is normally the value persisted at the previous shutdown.
func NewMonotonicClock(source clock.Clock, start Instant) *MonotonicClock {
	if start == InstantNever {
		start = InstantNever - 1
	}
	return &MonotonicClock{
		clock:    source,
		base:     start,
		syncedAt: source.Now(),
	}
}

// Now returns the current instant without folding elapsed time into
// the base.
func (m *MonotonicClock) Now() Instant {
	m.mu.Lock()
	defer m.mu.Unlock()
	elapsed := FromStd(m.clock.Now().Sub(m.syncedAt))
	return m.base.Add(elapsed)
}

// Synchronize folds the time elapsed since the previous
// synchronization into the base and returns the new current instant.
// Only whole milliseconds are consumed; the remainder carries over to
// the next call.
func (m *MonotonicClock) Synchronize() Instant {
	m.mu.Lock()
	defer m.mu.Unlock()
	reading := m.clock.Now()
	difference := reading.Sub(m.syncedAt)
	if difference <= 0 {
		// The source went backwards (only possible with a fake or a
		// clock without a monotonic reading). Resynchronize without
		// moving daemon time.
		m.syncedAt = reading
		return m.base
	}
	elapsed := FromStd(difference)
	m.base = m.base.Add(elapsed)
	m.syncedAt = m.syncedAt.Add(elapsed.Std())
	return m.base
}
