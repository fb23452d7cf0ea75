// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package regulation

import (
	"context"

	"github.com/discipline-project/discipline/lib/rule"
	"github.com/google/uuid"
)

// UserRecord is the persisted identity of a user.
type UserRecord struct {
	ID                  uuid.UUID
	Name                string
	OperatingSystemName string
}

// StoredUser is a user as read back from storage, with its rules.
type StoredUser struct {
	UserRecord
	Rules map[rule.Domain][]rule.Entry
}

// Store persists users and their rules.
type Store interface {
	rule.Store

	// InsertUser returns ErrStoreDuplicateUserID when the id exists.
	InsertUser(ctx context.Context, user UserRecord) error

	// DeleteUser removes the user and all of its rules in one write.
	// Returns ErrStoreNoSuchUser when absent.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// RenameUser returns ErrStoreNoSuchUser when absent.
	RenameUser(ctx context.Context, id uuid.UUID, name string) error
}

// Loader reads back everything a Store has persisted.
type Loader interface {
	LoadAll(ctx context.Context) ([]StoredUser, error)
}
