// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package conditional

// State is the externally visible phase of a protector.
type State uint8

const (
	// Deactivated: the protector is not holding its rule.
	Deactivated State = iota
	// Deactivating: a plea's grace period is running. The rule is
	// still protected.
	Deactivating
	// Activated: the protector is holding its rule.
	Activated
)

func (s State) String() string {
	switch s {
	case Deactivated:
		return "deactivated"
	case Deactivating:
		return "deactivating"
	case Activated:
		return "activated"
	default:
		return "unknown"
	}
}

// IsEffective reports whether the state protects its rule.
func (s State) IsEffective() bool { return s != Deactivated }
