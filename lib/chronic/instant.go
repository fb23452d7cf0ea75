// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package chronic

import (
	"fmt"
	"math"
	"time"
)

// Instant is a point in daemon monotonic time, in milliseconds. The
// zero value is a valid instant (the very beginning of daemon time).
type Instant uint64

// InstantNever is the sentinel for "not armed". No real instant ever
// reaches it.
const InstantNever Instant = math.MaxUint64

// ElapsedSince returns the time from earlier to i, or zero when i is
// not later than earlier.
func (i Instant) ElapsedSince(earlier Instant) Duration {
	if i <= earlier {
		return 0
	}
	return Duration(i - earlier)
}

// Add returns i advanced by d. The result saturates one tick short of
// InstantNever so that arithmetic never produces the sentinel.
func (i Instant) Add(d Duration) Instant {
	limit := InstantNever - 1
	if i >= limit || uint64(d) >= uint64(limit-i) {
		return limit
	}
	return i + Instant(d)
}

// Before reports whether i is strictly earlier than other.
func (i Instant) Before(other Instant) bool { return i < other }

// IsNever reports whether i is the not-armed sentinel.
func (i Instant) IsNever() bool { return i == InstantNever }

func (i Instant) String() string {
	if i == InstantNever {
		return "never"
	}
	return fmt.Sprintf("t+%dms", uint64(i))
}

// Duration is a non-negative span of daemon time in milliseconds.
type Duration uint64

// Milliseconds returns a Duration of n milliseconds.
func Milliseconds(n uint64) Duration { return Duration(n) }

// Seconds returns a Duration of n seconds.
func Seconds(n uint64) Duration { return Duration(n * 1000) }

// Minutes returns a Duration of n minutes.
func Minutes(n uint64) Duration { return Duration(n * 60 * 1000) }

// Hours returns a Duration of n hours.
func Hours(n uint64) Duration { return Duration(n * 60 * 60 * 1000) }

// FromStd converts a time.Duration, truncating to whole milliseconds.
// Negative durations become zero.
func FromStd(d time.Duration) Duration {
	if d <= 0 {
		return 0
	}
	return Duration(d / time.Millisecond)
}

// SaturatingSub returns d - other, or zero if other is larger. This is
// the only subtraction defined on Duration.
func (d Duration) SaturatingSub(other Duration) Duration {
	if other >= d {
		return 0
	}
	return d - other
}

// IsZero reports whether d is empty.
func (d Duration) IsZero() bool { return d == 0 }

// Milliseconds returns d as a millisecond count.
func (d Duration) Milliseconds() uint64 { return uint64(d) }

// Std converts d to a time.Duration, clamping at the largest
// representable value.
func (d Duration) Std() time.Duration {
	if uint64(d) > uint64(math.MaxInt64/int64(time.Millisecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d) * time.Millisecond
}

func (d Duration) String() string { return d.Std().String() }
