// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"fmt"
	"time"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/conditional"
)

// ActivatorSpec is the client-facing description of an activator.
//
//	{"kind": "always"}
//	{"kind": "time_window", "from": "22:00", "till": "06:00", "weekdays": "weekdays"}
type ActivatorSpec struct {
	Kind     string `json:"kind"`
	From     string `json:"from,omitempty"`
	Till     string `json:"till,omitempty"`
	Weekdays string `json:"weekdays,omitempty"`
}

// ProtectorSpec is the client-facing description of a protector.
// Duration is a Go duration string: the latch length for
// "countdown_latch", the grace period for "plea".
//
//	{"kind": "plea", "duration": "10m"}
type ProtectorSpec struct {
	Kind     string `json:"kind"`
	Duration string `json:"duration"`
}

// Build converts the spec into an activator. Failures wrap
// ErrInvalidRule.
func (s ActivatorSpec) Build() (conditional.Activator, error) {
	switch s.Kind {
	case "always":
		return conditional.AlwaysActivator(), nil
	case "time_window":
		from, err := chronic.ParseTimeOfDay(s.From)
		if err != nil {
			return conditional.Activator{}, fmt.Errorf("%w: from: %w", ErrInvalidRule, err)
		}
		till, err := chronic.ParseTimeOfDay(s.Till)
		if err != nil {
			return conditional.Activator{}, fmt.Errorf("%w: till: %w", ErrInvalidRule, err)
		}
		weekdays, err := chronic.ParseWeekdaySet(s.Weekdays)
		if err != nil {
			return conditional.Activator{}, fmt.Errorf("%w: weekdays: %w", ErrInvalidRule, err)
		}
		activator := conditional.TimeWindowActivator(conditional.TimeWindow{
			Range:    chronic.NewTimeRange(from, till),
			Weekdays: weekdays,
		})
		if err := activator.Validate(); err != nil {
			return conditional.Activator{}, fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
		return activator, nil
	default:
		return conditional.Activator{}, fmt.Errorf("%w: unknown activator kind %q", ErrInvalidRule, s.Kind)
	}
}

// Build converts the spec into a deactivated protector. Failures wrap
// ErrInvalidRule.
func (s ProtectorSpec) Build() (conditional.Protector, error) {
	parsed, err := time.ParseDuration(s.Duration)
	if err != nil {
		return conditional.Protector{}, fmt.Errorf("%w: duration: %w", ErrInvalidRule, err)
	}
	length := chronic.FromStd(parsed)
	if parsed <= 0 || length.IsZero() {
		return conditional.Protector{}, fmt.Errorf("%w: duration must be at least 1ms, got %s", ErrInvalidRule, s.Duration)
	}

	switch s.Kind {
	case "countdown_latch":
		return conditional.LatchProtector(length), nil
	case "plea":
		return conditional.PleaProtector(length), nil
	default:
		return conditional.Protector{}, fmt.Errorf("%w: unknown protector kind %q", ErrInvalidRule, s.Kind)
	}
}

// DescribeActivator is the inverse of ActivatorSpec.Build.
func DescribeActivator(activator conditional.Activator) ActivatorSpec {
	switch activator.Kind {
	case conditional.ActivatorAlways:
		return ActivatorSpec{Kind: "always"}
	case conditional.ActivatorTimeWindow:
		window := activator.Window
		return ActivatorSpec{
			Kind:     "time_window",
			From:     clockText(window.Range.From),
			Till:     clockText(window.Range.Till % chronic.MillisecondsPerDay),
			Weekdays: window.Weekdays.String(),
		}
	default:
		return ActivatorSpec{Kind: activator.Kind.String()}
	}
}

// DescribeProtector is the inverse of ProtectorSpec.Build, minus the
// protector's runtime state.
func DescribeProtector(protector conditional.Protector) ProtectorSpec {
	switch protector.Kind {
	case conditional.ProtectorCountdownLatch:
		return ProtectorSpec{Kind: "countdown_latch", Duration: protector.Latch.Countdown.Length.String()}
	case conditional.ProtectorPlea:
		return ProtectorSpec{Kind: "plea", Duration: protector.Plea.Grace.Length.String()}
	default:
		return ProtectorSpec{Kind: protector.Kind.String()}
	}
}

func clockText(milliseconds uint32) string {
	minutes := milliseconds / 60_000
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
