// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"bytes"
	"maps"
	"slices"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/conditional"
	"github.com/google/uuid"
)

// RuleGroup is the set of rules for one Locator. It is not safe for
// concurrent use.
//
// Capacity limits additions through AddRule; Add itself does not check
// it, so a group restored from storage after the limit was lowered may
// hold more rules than its capacity.
type RuleGroup struct {
	rules    map[uuid.UUID]Rule
	capacity int
}

// Entry pairs a rule with its id.
type Entry struct {
	ID   uuid.UUID
	Rule Rule
}

// NewRuleGroup returns an empty group.
func NewRuleGroup(capacity int) *RuleGroup {
	return &RuleGroup{rules: make(map[uuid.UUID]Rule), capacity: capacity}
}

// Add inserts rule under id, failing with ErrDuplicateID if id is
// present.
func (g *RuleGroup) Add(id uuid.UUID, rule Rule) error {
	if _, exists := g.rules[id]; exists {
		return ErrDuplicateID
	}
	g.rules[id] = rule
	return nil
}

// Remove deletes id regardless of protection and returns what was
// there.
func (g *RuleGroup) Remove(id uuid.UUID) (Rule, bool) {
	rule, exists := g.rules[id]
	if exists {
		delete(g.rules, id)
	}
	return rule, exists
}

// Get returns the rule stored under id.
func (g *RuleGroup) Get(id uuid.UUID) (Rule, bool) {
	rule, exists := g.rules[id]
	return rule, exists
}

// SetProtector replaces the protector of an existing rule. Returns
// false when id is absent.
func (g *RuleGroup) SetProtector(id uuid.UUID, protector conditional.Protector) bool {
	rule, exists := g.rules[id]
	if !exists {
		return false
	}
	rule.Protector = protector
	g.rules[id] = rule
	return true
}

// IsAnyRuleProtecting reports whether some rule is locked on at now.
func (g *RuleGroup) IsAnyRuleProtecting(now chronic.Instant) bool {
	for _, rule := range g.rules {
		if rule.IsProtected(now) {
			return true
		}
	}
	return false
}

// IsAnyRuleEnforced reports whether some rule is locked on and
// scheduled at the given reading.
func (g *RuleGroup) IsAnyRuleEnforced(now chronic.Instant, timeOfDay chronic.TimeOfDay, weekday chronic.Weekday) bool {
	for _, rule := range g.rules {
		if rule.IsEnforced(now, timeOfDay, weekday) {
			return true
		}
	}
	return false
}

// Len returns the number of rules.
func (g *RuleGroup) Len() int { return len(g.rules) }

// Capacity returns the group's rule limit.
func (g *RuleGroup) Capacity() int { return g.capacity }

// Rules returns a snapshot ordered by id.
func (g *RuleGroup) Rules() []Entry {
	entries := make([]Entry, 0, len(g.rules))
	for id, rule := range g.rules {
		entries = append(entries, Entry{ID: id, Rule: rule})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return entries
}

// Clone returns an independent copy.
func (g *RuleGroup) Clone() *RuleGroup {
	return &RuleGroup{rules: maps.Clone(g.rules), capacity: g.capacity}
}

// Equal reports whether two groups hold the same rules under the same
// capacity.
func (g *RuleGroup) Equal(other *RuleGroup) bool {
	return g.capacity == other.capacity && maps.Equal(g.rules, other.rules)
}
