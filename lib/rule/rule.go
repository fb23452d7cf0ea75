// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/conditional"
)

// Rule is one restriction. Activator never changes after creation;
// Protector changes through ActivateRule and DeactivateRule.
type Rule struct {
	Activator conditional.Activator `json:"activator"`
	Protector conditional.Protector `json:"protector"`
}

// IsScheduled reports whether the restriction applies at the given
// wall-clock reading.
func (r Rule) IsScheduled(timeOfDay chronic.TimeOfDay, weekday chronic.Weekday) bool {
	return r.Activator.Evaluate(timeOfDay, weekday)
}

// IsProtected reports whether the rule is locked on at now.
func (r Rule) IsProtected(now chronic.Instant) bool {
	return r.Protector.IsEffective(now)
}

// IsEnforced reports whether the restriction is both locked on and
// scheduled.
func (r Rule) IsEnforced(now chronic.Instant, timeOfDay chronic.TimeOfDay, weekday chronic.Weekday) bool {
	return r.IsProtected(now) && r.IsScheduled(timeOfDay, weekday)
}

// Validate checks both conditionals.
func (r Rule) Validate() error {
	if err := r.Activator.Validate(); err != nil {
		return err
	}
	return r.Protector.Validate()
}
