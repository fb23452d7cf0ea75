// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package conditional

import "github.com/discipline-project/discipline/lib/chronic"

// CountdownLatch is on while its countdown runs.
type CountdownLatch struct {
	Countdown chronic.Countdown `json:"countdown"`
}

// NewCountdownLatch returns a latch that, once activated, stays on for
// length.
func NewCountdownLatch(length chronic.Duration) CountdownLatch {
	return CountdownLatch{Countdown: chronic.NewCountdown(length)}
}

// IsEffective reports whether the countdown is running at now.
func (l CountdownLatch) IsEffective(now chronic.Instant) bool {
	return l.Countdown.IsRunning(now)
}

// Activate re-arms the countdown at now with its length unchanged,
// whether or not it is already running.
func (l *CountdownLatch) Activate(now chronic.Instant) {
	l.Countdown.Begin(now)
}

// State reports Activated while running, Deactivated otherwise.
func (l CountdownLatch) State(now chronic.Instant) State {
	if l.IsEffective(now) {
		return Activated
	}
	return Deactivated
}
