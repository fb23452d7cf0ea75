// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"context"
	"errors"
	"fmt"

	"github.com/discipline-project/discipline/lib/conditional"
	"github.com/google/uuid"
)

var errInjected = errors.New("injected store failure")

// fakeStore is an in-memory Store. Setting failNext makes the next
// write return that error without changing anything.
type fakeStore struct {
	rows      map[uuid.UUID]storedRow
	failNext  error
	mutations int
	calls     int
	// cancelled records whether any write saw a cancelled context.
	cancelled bool
}

type storedRow struct {
	locator Locator
	rule    Rule
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[uuid.UUID]storedRow)}
}

func (s *fakeStore) begin(ctx context.Context) error {
	s.calls++
	if ctx.Err() != nil {
		s.cancelled = true
	}
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	return nil
}

func (s *fakeStore) InsertRule(ctx context.Context, locator Locator, id uuid.UUID, rule Rule) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if _, exists := s.rows[id]; exists {
		return fmt.Errorf("insert %s: %w", id, ErrStoreDuplicateID)
	}
	s.rows[id] = storedRow{locator: locator, rule: rule}
	s.mutations++
	return nil
}

func (s *fakeStore) DeleteRule(ctx context.Context, locator Locator, id uuid.UUID) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	row, exists := s.rows[id]
	if !exists || row.locator != locator {
		return ErrStoreNoSuchRule
	}
	delete(s.rows, id)
	s.mutations++
	return nil
}

func (s *fakeStore) UpdateRuleProtector(ctx context.Context, locator Locator, id uuid.UUID, original, modified conditional.Protector) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	row, exists := s.rows[id]
	if !exists || row.locator != locator || row.rule.Protector != original {
		return ErrStoreNoSuchRule
	}
	row.rule.Protector = modified
	s.rows[id] = row
	s.mutations++
	return nil
}
