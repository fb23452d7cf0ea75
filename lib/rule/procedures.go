// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"context"
	"errors"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/conditional"
	"github.com/google/uuid"
)

// AddRuleRequest describes a rule to create. A nil ID asks for a
// generated one.
type AddRuleRequest struct {
	ID        uuid.UUID
	Activator ActivatorSpec
	Protector ProtectorSpec
}

// AddRule creates a rule in group and returns its id. The new rule's
// protector starts deactivated.
func AddRule(ctx context.Context, store Store, locator Locator, group *RuleGroup, cross *CrossGroupInfo, request AddRuleRequest) (uuid.UUID, error) {
	if cross.IsFull() {
		return uuid.Nil, ErrTooManyRulesGlobally
	}
	if group.Len() >= group.Capacity() {
		return uuid.Nil, ErrTooManyRulesInGroup
	}

	id := request.ID
	clientSupplied := id != uuid.Nil
	if clientSupplied {
		if _, exists := group.Get(id); exists {
			return uuid.Nil, ErrDuplicateID
		}
	} else {
		generated, err := uuid.NewRandom()
		if err != nil {
			return uuid.Nil, internal("generate rule id", err)
		}
		id = generated
	}

	activator, err := request.Activator.Build()
	if err != nil {
		return uuid.Nil, err
	}
	protector, err := request.Protector.Build()
	if err != nil {
		return uuid.Nil, err
	}
	created := Rule{Activator: activator, Protector: protector}

	if err := store.InsertRule(context.WithoutCancel(ctx), locator, id, created); err != nil {
		if errors.Is(err, ErrStoreDuplicateID) && clientSupplied {
			return uuid.Nil, ErrDuplicateID
		}
		return uuid.Nil, internal("insert rule", err)
	}

	if err := group.Add(id, created); err != nil {
		// The store accepted an id memory already holds: the two
		// have diverged.
		return uuid.Nil, internal("commit rule", err)
	}
	cross.increment()
	return id, nil
}

// DeleteOutcome distinguishes the two successful results of
// EnsureRuleDeleted.
type DeleteOutcome uint8

const (
	// Deleted: the rule existed and has been removed.
	Deleted DeleteOutcome = iota + 1
	// AlreadyAbsent: there was nothing to delete.
	AlreadyAbsent
)

func (o DeleteOutcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case AlreadyAbsent:
		return "already_absent"
	default:
		return "unknown"
	}
}

// EnsureRuleDeleted removes id from group unless it is protected at
// now. Deleting an absent rule succeeds with AlreadyAbsent and makes
// no store call.
func EnsureRuleDeleted(ctx context.Context, store Store, locator Locator, group *RuleGroup, cross *CrossGroupInfo, id uuid.UUID, now chronic.Instant) (DeleteOutcome, error) {
	existing, exists := group.Get(id)
	if !exists {
		return AlreadyAbsent, nil
	}
	if existing.IsProtected(now) {
		return 0, ErrRuleStillProtected
	}

	if err := store.DeleteRule(context.WithoutCancel(ctx), locator, id); err != nil {
		return 0, internal("delete rule", err)
	}

	group.Remove(id)
	cross.decrement()
	return Deleted, nil
}

// ActivateRule applies the protector's activation transition.
func ActivateRule(ctx context.Context, store Store, locator Locator, group *RuleGroup, id uuid.UUID, now chronic.Instant) error {
	return transition(ctx, store, locator, group, id, "activate rule", func(protector *conditional.Protector) {
		protector.Activate(now)
	})
}

// DeactivateRule applies the protector's deactivation transition.
func DeactivateRule(ctx context.Context, store Store, locator Locator, group *RuleGroup, id uuid.UUID, now chronic.Instant) error {
	return transition(ctx, store, locator, group, id, "deactivate rule", func(protector *conditional.Protector) {
		protector.Deactivate(now)
	})
}

// transition mutates a copy of the rule's protector, persists the
// change, and commits the copy. The live protector is never touched
// before the store write succeeds.
func transition(ctx context.Context, store Store, locator Locator, group *RuleGroup, id uuid.UUID, op string, apply func(*conditional.Protector)) error {
	existing, exists := group.Get(id)
	if !exists {
		return ErrNoSuchRule
	}

	original := existing.Protector
	modified := original
	apply(&modified)
	if modified == original {
		return nil
	}

	if err := store.UpdateRuleProtector(context.WithoutCancel(ctx), locator, id, original, modified); err != nil {
		return internal(op, err)
	}

	group.SetProtector(id, modified)
	return nil
}
