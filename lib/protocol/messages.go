// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/discipline-project/discipline/lib/rule"
	"github.com/google/uuid"
)

// StatusResponse answers ActionStatus.
type StatusResponse struct {
	Version          string         `json:"version"`
	Users            int            `json:"users"`
	MaxUsers         int            `json:"max_users"`
	TotalRules       int            `json:"total_rules"`
	MaxRulesTotal    int            `json:"max_rules_total"`
	MaxRulesPerGroup int            `json:"max_rules_per_group"`
	RulesPerDomain   map[string]int `json:"rules_per_domain"`
	// MonotonicNow is the daemon clock in milliseconds.
	MonotonicNow  uint64 `json:"monotonic_now"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// AddUserRequest is the body of ActionAddUser. A zero ID asks the
// daemon to generate one.
type AddUserRequest struct {
	ID                  uuid.UUID `json:"id,omitzero"`
	Name                string    `json:"name"`
	OperatingSystemName string    `json:"os_name"`
}

// IDResponse carries the id of a created user or rule.
type IDResponse struct {
	ID uuid.UUID `json:"id"`
}

// UserRequest names a user. It is the body of ActionDeleteUser.
type UserRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// RenameUserRequest is the body of ActionRenameUser.
type RenameUserRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// UserInfo describes one user in ListUsersResponse.
type UserInfo struct {
	ID                  uuid.UUID      `json:"id"`
	Name                string         `json:"name"`
	OperatingSystemName string         `json:"os_name"`
	Rules               map[string]int `json:"rules"`
	OpenSessions        int            `json:"open_sessions"`
	SessionPermitted    bool           `json:"session_permitted"`
}

// ListUsersResponse answers ActionListUsers.
type ListUsersResponse struct {
	Users []UserInfo `json:"users"`
}

// GroupRequest names one rule group: a user and a domain
// ("device", "account" or "internet").
type GroupRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Domain string    `json:"domain"`
}

// Locator validates the domain and returns the group's locator.
func (r GroupRequest) Locator() (rule.Locator, error) {
	domain, err := rule.ParseDomain(r.Domain)
	if err != nil {
		return rule.Locator{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if r.UserID == uuid.Nil {
		return rule.Locator{}, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	return rule.Locator{UserID: r.UserID, Domain: domain}, nil
}

// AddRuleRequest is the body of ActionAddRule. A zero ID asks the
// daemon to generate one.
type AddRuleRequest struct {
	GroupRequest
	ID        uuid.UUID          `json:"id,omitzero"`
	Activator rule.ActivatorSpec `json:"activator"`
	Protector rule.ProtectorSpec `json:"protector"`
}

// RuleRequest names one rule. It is the body of ActionDeleteRule,
// ActionActivateRule and ActionDeactivateRule.
type RuleRequest struct {
	GroupRequest
	RuleID uuid.UUID `json:"rule_id"`
}

// DeleteRuleResponse answers ActionDeleteRule. Outcome is "deleted"
// or "already_absent".
type DeleteRuleResponse struct {
	Outcome string `json:"outcome"`
}

// RuleInfo describes one rule as evaluated when the list was taken.
type RuleInfo struct {
	ID        uuid.UUID          `json:"id"`
	Activator rule.ActivatorSpec `json:"activator"`
	Protector rule.ProtectorSpec `json:"protector"`
	State     string             `json:"state"`
	Protected bool               `json:"protected"`
	Scheduled bool               `json:"scheduled"`
	Enforced  bool               `json:"enforced"`
	// RemainingMilliseconds is what is left of a running latch or
	// plea grace period.
	RemainingMilliseconds uint64 `json:"remaining_ms"`
}

// ListRulesResponse answers ActionListRules.
type ListRulesResponse struct {
	Rules []RuleInfo `json:"rules"`
}

// ProtectedResponse answers ActionIsProtected.
type ProtectedResponse struct {
	Protected bool `json:"protected"`
}

// SessionRequest names an operating system account. It is the body
// of the session actions.
type SessionRequest struct {
	OperatingSystemName string `json:"os_name"`
}

// SessionPermittedResponse answers ActionSessionPermitted.
type SessionPermittedResponse struct {
	Permitted bool `json:"permitted"`
}

// SessionCountResponse answers ActionSessionOpened and
// ActionSessionClosed with the account's open session count.
type SessionCountResponse struct {
	OpenSessions int `json:"open_sessions"`
}
