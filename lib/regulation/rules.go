// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package regulation

import (
	"context"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/conditional"
	"github.com/discipline-project/discipline/lib/rule"
	"github.com/google/uuid"
)

// groupFor resolves locator. Callers hold r.mu.
func (r *Registry) groupFor(locator rule.Locator) (*Group, error) {
	owner, exists := r.users[locator.UserID]
	if !exists {
		return nil, ErrNoSuchUser
	}
	return owner.group(locator.Domain)
}

// AddRule creates a rule in the group named by locator.
func (r *Registry) AddRule(ctx context.Context, locator rule.Locator, request rule.AddRuleRequest) (uuid.UUID, error) {
	id, err := r.addRule(ctx, locator, request)
	r.logOutcome("rule added", err, "user_id", locator.UserID, "domain", locator.Domain, "rule_id", id)
	return id, err
}

func (r *Registry) addRule(ctx context.Context, locator rule.Locator, request rule.AddRuleRequest) (uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, err := r.groupFor(locator)
	if err != nil {
		return uuid.Nil, err
	}

	group.mu.Lock()
	defer group.mu.Unlock()
	r.crossMu.Lock()
	defer r.crossMu.Unlock()

	return rule.AddRule(ctx, r.store, locator, group.rules, &r.cross, request)
}

// EnsureRuleDeleted deletes a rule that is not protected at now.
func (r *Registry) EnsureRuleDeleted(ctx context.Context, locator rule.Locator, id uuid.UUID, now chronic.Instant) (rule.DeleteOutcome, error) {
	outcome, err := r.ensureRuleDeleted(ctx, locator, id, now)
	r.logOutcome("rule deleted", err, "user_id", locator.UserID, "domain", locator.Domain, "rule_id", id, "outcome", outcome)
	return outcome, err
}

func (r *Registry) ensureRuleDeleted(ctx context.Context, locator rule.Locator, id uuid.UUID, now chronic.Instant) (rule.DeleteOutcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, err := r.groupFor(locator)
	if err != nil {
		return 0, err
	}

	group.mu.Lock()
	defer group.mu.Unlock()
	r.crossMu.Lock()
	defer r.crossMu.Unlock()

	return rule.EnsureRuleDeleted(ctx, r.store, locator, group.rules, &r.cross, id, now)
}

// ActivateRule applies the rule's activation transition at now.
func (r *Registry) ActivateRule(ctx context.Context, locator rule.Locator, id uuid.UUID, now chronic.Instant) error {
	err := r.transition(ctx, locator, id, now, rule.ActivateRule)
	r.logOutcome("rule activated", err, "user_id", locator.UserID, "domain", locator.Domain, "rule_id", id)
	return err
}

// DeactivateRule applies the rule's deactivation transition at now.
func (r *Registry) DeactivateRule(ctx context.Context, locator rule.Locator, id uuid.UUID, now chronic.Instant) error {
	err := r.transition(ctx, locator, id, now, rule.DeactivateRule)
	r.logOutcome("rule deactivated", err, "user_id", locator.UserID, "domain", locator.Domain, "rule_id", id)
	return err
}

type transitionProcedure func(context.Context, rule.Store, rule.Locator, *rule.RuleGroup, uuid.UUID, chronic.Instant) error

func (r *Registry) transition(ctx context.Context, locator rule.Locator, id uuid.UUID, now chronic.Instant, procedure transitionProcedure) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, err := r.groupFor(locator)
	if err != nil {
		return err
	}

	group.mu.Lock()
	defer group.mu.Unlock()
	return procedure(ctx, r.store, locator, group.rules, id, now)
}

// RuleStatus is a rule evaluated at one moment.
type RuleStatus struct {
	ID        uuid.UUID
	Rule      rule.Rule
	State     conditional.State
	Protected bool
	Scheduled bool
	Enforced  bool
	// Remaining is what is left of the running countdown: the latch
	// itself, or a plea's grace period. Zero when nothing runs.
	Remaining chronic.Duration
}

// ListRules evaluates every rule in the group named by locator.
func (r *Registry) ListRules(locator rule.Locator, now chronic.Instant, timeOfDay chronic.TimeOfDay, weekday chronic.Weekday) ([]RuleStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, err := r.groupFor(locator)
	if err != nil {
		return nil, err
	}

	group.mu.RLock()
	defer group.mu.RUnlock()

	entries := group.rules.Rules()
	statuses := make([]RuleStatus, len(entries))
	for index, entry := range entries {
		statuses[index] = RuleStatus{
			ID:        entry.ID,
			Rule:      entry.Rule,
			State:     entry.Rule.Protector.State(now),
			Protected: entry.Rule.IsProtected(now),
			Scheduled: entry.Rule.IsScheduled(timeOfDay, weekday),
			Enforced:  entry.Rule.IsEnforced(now, timeOfDay, weekday),
			Remaining: remaining(entry.Rule.Protector, now),
		}
	}
	return statuses, nil
}

func remaining(protector conditional.Protector, now chronic.Instant) chronic.Duration {
	switch protector.Kind {
	case conditional.ProtectorCountdownLatch:
		return protector.Latch.Countdown.Remaining(now)
	case conditional.ProtectorPlea:
		return protector.Plea.Grace.Remaining(now)
	default:
		return 0
	}
}

// IsAnyRuleProtecting reports whether any rule in the group named by
// locator is protected at now.
func (r *Registry) IsAnyRuleProtecting(locator rule.Locator, now chronic.Instant) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, err := r.groupFor(locator)
	if err != nil {
		return false, err
	}

	group.mu.RLock()
	defer group.mu.RUnlock()
	return group.rules.IsAnyRuleProtecting(now), nil
}
