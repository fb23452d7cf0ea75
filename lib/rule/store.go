// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"context"
	"errors"

	"github.com/discipline-project/discipline/lib/conditional"
	"github.com/google/uuid"
)

// Errors a Store reports for conditions the procedures react to. Any
// other error is treated as a fault.
var (
	ErrStoreDuplicateID = errors.New("rule store: duplicate rule id")
	ErrStoreNoSuchRule  = errors.New("rule store: no such rule")
)

// Store is the durable side of the rule model. Each method is one
// atomic write.
type Store interface {
	// InsertRule persists a new rule. Returns ErrStoreDuplicateID
	// (possibly wrapped) when id is already stored in any group.
	InsertRule(ctx context.Context, locator Locator, id uuid.UUID, rule Rule) error

	// DeleteRule removes a rule. Returns ErrStoreNoSuchRule when it
	// is not stored under locator.
	DeleteRule(ctx context.Context, locator Locator, id uuid.UUID) error

	// UpdateRuleProtector replaces original with modified only if the
	// stored protector still equals original. Returns
	// ErrStoreNoSuchRule when no stored row matches.
	UpdateRuleProtector(ctx context.Context, locator Locator, id uuid.UUID, original, modified conditional.Protector) error
}
