// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package regulation

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/discipline-project/discipline/lib/rule"
	"github.com/google/uuid"
)

// Bounds on UserRecord.Name, in bytes.
const (
	MinimumNameLength = 1
	MaximumNameLength = 300
)

// Group is a rule group with its lock.
type Group struct {
	mu    sync.RWMutex
	rules *rule.RuleGroup
}

// user is a registered user. Identity fields change only under the
// registry's write lock.
type user struct {
	record UserRecord
	groups map[rule.Domain]*Group
}

func newUser(record UserRecord, groupCapacity int) *user {
	groups := make(map[rule.Domain]*Group, len(rule.Domains))
	for _, domain := range rule.Domains {
		groups[domain] = &Group{rules: rule.NewRuleGroup(groupCapacity)}
	}
	return &user{record: record, groups: groups}
}

func validateName(name string) error {
	if len(name) < MinimumNameLength || len(name) > MaximumNameLength {
		return fmt.Errorf("%w: name must be %d to %d bytes, got %d",
			ErrInvalidUser, MinimumNameLength, MaximumNameLength, len(name))
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidUser)
	}
	return nil
}

// ruleCount sums the user's groups. Callers hold the registry lock.
func (u *user) ruleCount() int {
	total := 0
	for _, group := range u.groups {
		group.mu.RLock()
		total += group.rules.Len()
		group.mu.RUnlock()
	}
	return total
}

func (u *user) group(domain rule.Domain) (*Group, error) {
	group, exists := u.groups[domain]
	if !exists {
		return nil, fmt.Errorf("%w: unknown domain %d", rule.ErrInvalidRule, uint8(domain))
	}
	return group, nil
}

// UserSummary describes a user for listing.
type UserSummary struct {
	ID                  uuid.UUID
	Name                string
	OperatingSystemName string
	RuleCounts          map[rule.Domain]int
	OpenSessions        int
	SessionPermitted    bool
}
