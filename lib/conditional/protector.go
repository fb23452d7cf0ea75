// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package conditional

import (
	"fmt"

	"github.com/discipline-project/discipline/lib/chronic"
)

// ProtectorKind discriminates the Protector union.
type ProtectorKind uint8

const (
	ProtectorCountdownLatch ProtectorKind = 1
	ProtectorPlea           ProtectorKind = 2
)

func (k ProtectorKind) String() string {
	switch k {
	case ProtectorCountdownLatch:
		return "countdown_latch"
	case ProtectorPlea:
		return "plea"
	default:
		return fmt.Sprintf("ProtectorKind(%d)", uint8(k))
	}
}

// Protector decides whether a rule is locked on. Only the field
// matching Kind is meaningful. Protector is comparable with ==, which
// is how callers detect a transition that changed nothing.
type Protector struct {
	Kind  ProtectorKind  `json:"kind"`
	Latch CountdownLatch `json:"latch,omitzero"`
	Plea  Plea           `json:"plea,omitzero"`
}

// LatchProtector returns a disarmed countdown latch protector.
func LatchProtector(length chronic.Duration) Protector {
	return Protector{Kind: ProtectorCountdownLatch, Latch: NewCountdownLatch(length)}
}

// PleaProtector returns a deactivated plea protector.
func PleaProtector(grace chronic.Duration) Protector {
	return Protector{Kind: ProtectorPlea, Plea: NewPlea(grace)}
}

// IsEffective reports whether the protector holds its rule at now. A
// protector of unknown kind holds nothing.
func (p Protector) IsEffective(now chronic.Instant) bool {
	switch p.Kind {
	case ProtectorCountdownLatch:
		return p.Latch.IsEffective(now)
	case ProtectorPlea:
		return p.Plea.IsEffective(now)
	default:
		return false
	}
}

// State reports the protector's phase at now.
func (p Protector) State(now chronic.Instant) State {
	switch p.Kind {
	case ProtectorCountdownLatch:
		return p.Latch.State(now)
	case ProtectorPlea:
		return p.Plea.State(now)
	default:
		return Deactivated
	}
}

// Activate applies the kind's activation transition.
func (p *Protector) Activate(now chronic.Instant) {
	switch p.Kind {
	case ProtectorCountdownLatch:
		p.Latch.Activate(now)
	case ProtectorPlea:
		p.Plea.Activate()
	}
}

// Deactivate applies the kind's deactivation transition.
func (p *Protector) Deactivate(now chronic.Instant) {
	switch p.Kind {
	case ProtectorCountdownLatch:
		// Latches self-expire.
	case ProtectorPlea:
		p.Plea.Deactivate(now)
	}
}

// Validate rejects unknown kinds.
func (p Protector) Validate() error {
	switch p.Kind {
	case ProtectorCountdownLatch, ProtectorPlea:
		return nil
	default:
		return fmt.Errorf("unknown protector kind %d", uint8(p.Kind))
	}
}
