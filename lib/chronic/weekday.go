// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package chronic

import (
	"fmt"
	"strings"
	"time"
)

// Weekday numbers days from Monday (0) to Sunday (6). Unlike
// time.Weekday, the week starts on Monday.
type Weekday uint8

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var weekdayFullNames = [...]string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// WeekdayFromTime returns t's weekday.
func WeekdayFromTime(t time.Time) Weekday {
	// time.Sunday is 0; rotate so Monday is 0.
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ParseWeekday accepts three-letter or full English day names, case
// insensitively.
func ParseWeekday(text string) (Weekday, error) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for index, name := range weekdayNames {
		if lowered == strings.ToLower(name) || lowered == weekdayFullNames[index] {
			return Weekday(index), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", text)
}

// Valid reports whether w is one of the seven days.
func (w Weekday) Valid() bool { return w <= Sunday }

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", uint8(w))
	}
	return weekdayNames[w]
}

// WeekdaySet is a set of weekdays stored as a 7-bit mask, Monday in
// the lowest bit. The eighth bit is always zero.
type WeekdaySet uint8

const (
	// NoWeekdays is the empty set.
	NoWeekdays WeekdaySet = 0
	// AllWeekdays contains every day.
	AllWeekdays WeekdaySet = 0b111_1111
)

// WeekdaySetFromBitmask masks off the unused high bit.
func WeekdaySetFromBitmask(bitmask uint8) WeekdaySet {
	return WeekdaySet(bitmask & uint8(AllWeekdays))
}

// WeekdaySetOf builds a set containing the given days.
func WeekdaySetOf(days ...Weekday) WeekdaySet {
	var set WeekdaySet
	for _, day := range days {
		set.Add(day)
	}
	return set
}

// ParseWeekdaySet parses a comma-separated list of day names, or the
// keywords "all", "weekdays" (Mon–Fri) and "weekend".
func ParseWeekdaySet(text string) (WeekdaySet, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "all", "everyday", "":
		return AllWeekdays, nil
	case "weekdays":
		return WeekdaySetOf(Monday, Tuesday, Wednesday, Thursday, Friday), nil
	case "weekend":
		return WeekdaySetOf(Saturday, Sunday), nil
	}
	var set WeekdaySet
	for _, part := range strings.Split(text, ",") {
		day, err := ParseWeekday(part)
		if err != nil {
			return NoWeekdays, err
		}
		set.Add(day)
	}
	return set, nil
}

// Bitmask returns the raw 7-bit mask.
func (s WeekdaySet) Bitmask() uint8 { return uint8(s) }

// Add inserts day. Invalid days are ignored.
func (s *WeekdaySet) Add(day Weekday) {
	if day.Valid() {
		*s |= 1 << day
	}
}

// Remove deletes day.
func (s *WeekdaySet) Remove(day Weekday) {
	if day.Valid() {
		*s &^= 1 << day
	}
}

// Contains reports whether day is in the set.
func (s WeekdaySet) Contains(day Weekday) bool {
	return day.Valid() && s&(1<<day) != 0
}

// IsEmpty reports whether the set has no days.
func (s WeekdaySet) IsEmpty() bool { return s&AllWeekdays == 0 }

// Weekdays lists the members in week order.
func (s WeekdaySet) Weekdays() []Weekday {
	var days []Weekday
	for day := Monday; day <= Sunday; day++ {
		if s.Contains(day) {
			days = append(days, day)
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	if s&AllWeekdays == AllWeekdays {
		return "all"
	}
	days := s.Weekdays()
	names := make([]string, len(days))
	for index, day := range days {
		names[index] = day.String()
	}
	return strings.Join(names, ",")
}
