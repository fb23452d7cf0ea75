// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package conditional

import "github.com/discipline-project/discipline/lib/chronic"

// Plea stays effective until it is deactivated, and then for the
// length of Grace. The grace period is the delay a user has to wait
// out between asking for a restriction to be lifted and it actually
// lifting.
//
//	Activated ──Deactivate(now)──> Deactivating ──grace ends──> Deactivated
//	    ^                                │                           │
//	    └──────────────Activate()────────┴───────────────────────────┘
type Plea struct {
	IsActivated bool              `json:"is_activated"`
	Grace       chronic.Countdown `json:"grace"`
}

// NewPlea returns a deactivated plea with the given grace length.
func NewPlea(grace chronic.Duration) Plea {
	return Plea{Grace: chronic.NewCountdown(grace)}
}

// Activate switches the plea on from any state, discarding a grace
// period in progress.
func (p *Plea) Activate() {
	p.IsActivated = true
	p.Grace.Cancel()
}

// Deactivate starts the grace period at now. It only has an effect on
// an activated plea; an already running or finished grace period is
// left alone.
func (p *Plea) Deactivate(now chronic.Instant) {
	if !p.IsActivated {
		return
	}
	p.IsActivated = false
	p.Grace.Begin(now)
}

// IsEffective reports whether the plea protects its rule at now.
func (p Plea) IsEffective(now chronic.Instant) bool {
	return p.IsActivated || p.Grace.IsRunning(now)
}

// State classifies the plea at now.
func (p Plea) State(now chronic.Instant) State {
	switch {
	case p.IsActivated:
		return Activated
	case p.Grace.IsRunning(now):
		return Deactivating
	default:
		return Deactivated
	}
}
