// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package chronic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MillisecondsPerDay is the length of one wall-clock day.
const MillisecondsPerDay = 24 * 60 * 60 * 1000

// maximumTill is the latest end a TimeRange may have: the last
// millisecond of the day after From's day.
const maximumTill = 2*MillisecondsPerDay - 1

var (
	// ErrInvalidTimeOfDay is returned for a time of day outside
	// [0, MillisecondsPerDay).
	ErrInvalidTimeOfDay = errors.New("time of day out of range")

	// ErrInvalidTimeRange is returned by TimeRangeFromMilliseconds
	// for a malformed range.
	ErrInvalidTimeRange = errors.New("invalid time range")
)

// TimeOfDay is a wall-clock time in milliseconds since local midnight.
type TimeOfDay uint32

// NewTimeOfDay validates a millisecond-since-midnight value.
func NewTimeOfDay(milliseconds uint32) (TimeOfDay, error) {
	if milliseconds >= MillisecondsPerDay {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTimeOfDay, milliseconds)
	}
	return TimeOfDay(milliseconds), nil
}

// ClockTime builds a TimeOfDay from hours and minutes.
func ClockTime(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return TimeOfDay((hour*60 + minute) * 60 * 1000), nil
}

// ParseTimeOfDay parses "HH:MM" (24-hour).
func ParseTimeOfDay(text string) (TimeOfDay, error) {
	hourText, minuteText, found := strings.Cut(text, ":")
	if !found {
		return 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTimeOfDay, text)
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTimeOfDay, text)
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTimeOfDay, text)
	}
	return ClockTime(hour, minute)
}

// Milliseconds returns t as milliseconds since midnight.
func (t TimeOfDay) Milliseconds() uint32 { return uint32(t) }

func (t TimeOfDay) String() string {
	total := uint32(t) / 1000
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// TimeRange is a window within a day. From is always within the day.
// Till may run into the next day to express a window that crosses
// midnight, in which case Till = MillisecondsPerDay + wrapped till.
// The span Till - From is positive and at most one day.
type TimeRange struct {
	From uint32 `json:"from"`
	Till uint32 `json:"till"`
}

// NewTimeRange builds a range from two times of day. When till is not
// after from the window is taken to cross midnight.
func NewTimeRange(from, till TimeOfDay) TimeRange {
	if from < till {
		return TimeRange{From: uint32(from), Till: uint32(till)}
	}
	return TimeRange{From: uint32(from), Till: MillisecondsPerDay + uint32(till)}
}

// TimeRangeFromMilliseconds validates a stored or transmitted range.
func TimeRangeFromMilliseconds(from, till uint32) (TimeRange, error) {
	switch {
	case from >= MillisecondsPerDay:
		return TimeRange{}, fmt.Errorf("%w: from %d is past the end of the day", ErrInvalidTimeRange, from)
	case till > maximumTill:
		return TimeRange{}, fmt.Errorf("%w: till %d is past the end of the next day", ErrInvalidTimeRange, till)
	case from >= till:
		return TimeRange{}, fmt.Errorf("%w: from %d is not before till %d", ErrInvalidTimeRange, from, till)
	case till-from > MillisecondsPerDay:
		return TimeRange{}, fmt.Errorf("%w: span %d exceeds one day", ErrInvalidTimeRange, till-from)
	}
	return TimeRange{From: from, Till: till}, nil
}

// Contains reports whether t falls inside the range. Both ends are
// inclusive. For a range crossing midnight, the part after midnight is
// matched by shifting t into the next day.
func (r TimeRange) Contains(t TimeOfDay) bool {
	value := uint32(t)
	if r.From <= value && value <= r.Till {
		return true
	}
	shifted := value + MillisecondsPerDay
	return r.From <= shifted && shifted <= r.Till
}

// CrossesMidnight reports whether the range runs into the next day.
func (r TimeRange) CrossesMidnight() bool { return r.Till >= MillisecondsPerDay }

func (r TimeRange) String() string {
	return TimeOfDay(r.From).String() + "-" + TimeOfDay(r.Till%MillisecondsPerDay).String()
}

// WallClockReading splits a wall-clock time into the time of day and
// weekday used by TimeWindow evaluation. The caller chooses the
// location by converting t first.
func WallClockReading(t time.Time) (TimeOfDay, Weekday) {
	hour, minute, second := t.Clock()
	milliseconds := ((hour*60+minute)*60+second)*1000 + t.Nanosecond()/int(time.Millisecond)
	return TimeOfDay(milliseconds), WeekdayFromTime(t)
}
