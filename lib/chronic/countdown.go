// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package chronic

// Countdown answers "has Length elapsed since I was armed". It is a
// plain value: copying a Countdown copies its whole state.
//
// ArmedAt == InstantNever means the countdown is not running.
type Countdown struct {
	ArmedAt Instant  `json:"armed_at"`
	Length  Duration `json:"length"`
}

// NewCountdown returns a disarmed countdown of the given length.
func NewCountdown(length Duration) Countdown {
	return Countdown{ArmedAt: InstantNever, Length: length}
}

// Remaining returns how much of the countdown is left at now. A
// disarmed countdown has nothing remaining.
func (c Countdown) Remaining(now Instant) Duration {
	if c.ArmedAt == InstantNever {
		return 0
	}
	return c.Length.SaturatingSub(now.ElapsedSince(c.ArmedAt))
}

// IsRunning reports whether time remains at now.
func (c Countdown) IsRunning(now Instant) bool { return c.Remaining(now) > 0 }

// IsFinished is the negation of IsRunning. A disarmed countdown is
// finished.
func (c Countdown) IsFinished(now Instant) bool { return !c.IsRunning(now) }

// IsArmed reports whether Begin was called since the last Cancel,
// regardless of whether the countdown has since run out.
func (c Countdown) IsArmed() bool { return c.ArmedAt != InstantNever }

// Begin arms the countdown at now.
func (c *Countdown) Begin(now Instant) { c.ArmedAt = now }

// Cancel disarms the countdown.
func (c *Countdown) Cancel() { c.ArmedAt = InstantNever }
