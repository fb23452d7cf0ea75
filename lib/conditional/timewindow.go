// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package conditional

import (
	"errors"

	"github.com/discipline-project/discipline/lib/chronic"
)

// TimeWindow holds when the wall-clock time of day falls inside Range
// on one of Weekdays.
//
// The weekday is that of the reading being evaluated, so the
// after-midnight part of a window crossing midnight is matched against
// the following day's membership in Weekdays.
type TimeWindow struct {
	Range    chronic.TimeRange  `json:"range"`
	Weekdays chronic.WeekdaySet `json:"weekdays"`
}

// Evaluate reports whether the reading falls inside the window.
func (w TimeWindow) Evaluate(timeOfDay chronic.TimeOfDay, weekday chronic.Weekday) bool {
	return w.Weekdays.Contains(weekday) && w.Range.Contains(timeOfDay)
}

// Validate checks the stored range bounds and that at least one
// weekday is selected.
func (w TimeWindow) Validate() error {
	if _, err := chronic.TimeRangeFromMilliseconds(w.Range.From, w.Range.Till); err != nil {
		return err
	}
	if w.Weekdays.IsEmpty() {
		return errors.New("time window selects no weekdays")
	}
	if w.Weekdays != chronic.WeekdaySetFromBitmask(w.Weekdays.Bitmask()) {
		return errors.New("time window weekday mask has the unused bit set")
	}
	return nil
}
