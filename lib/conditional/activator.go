// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package conditional

import (
	"fmt"

	"github.com/discipline-project/discipline/lib/chronic"
)

// ActivatorKind discriminates the Activator union.
type ActivatorKind uint8

const (
	ActivatorAlways     ActivatorKind = 1
	ActivatorTimeWindow ActivatorKind = 2
)

func (k ActivatorKind) String() string {
	switch k {
	case ActivatorAlways:
		return "always"
	case ActivatorTimeWindow:
		return "time_window"
	default:
		return fmt.Sprintf("ActivatorKind(%d)", uint8(k))
	}
}

// Activator decides when a rule's schedule covers a moment. Only the
// field matching Kind is meaningful.
type Activator struct {
	Kind   ActivatorKind `json:"kind"`
	Window TimeWindow    `json:"window,omitzero"`
}

// AlwaysActivator returns an activator that always holds.
func AlwaysActivator() Activator {
	return Activator{Kind: ActivatorAlways}
}

// TimeWindowActivator returns an activator for window.
func TimeWindowActivator(window TimeWindow) Activator {
	return Activator{Kind: ActivatorTimeWindow, Window: window}
}

// Evaluate reports whether the schedule covers the reading. An
// activator of unknown kind never holds.
func (a Activator) Evaluate(timeOfDay chronic.TimeOfDay, weekday chronic.Weekday) bool {
	switch a.Kind {
	case ActivatorAlways:
		return Always{}.Evaluate()
	case ActivatorTimeWindow:
		return a.Window.Evaluate(timeOfDay, weekday)
	default:
		return false
	}
}

// Validate rejects unknown kinds and malformed windows.
func (a Activator) Validate() error {
	switch a.Kind {
	case ActivatorAlways:
		return nil
	case ActivatorTimeWindow:
		return a.Window.Validate()
	default:
		return fmt.Errorf("unknown activator kind %d", uint8(a.Kind))
	}
}
