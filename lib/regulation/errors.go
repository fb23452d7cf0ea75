// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package regulation

import "errors"

var (
	ErrNoSuchUser                = errors.New("regulation: no such user")
	ErrTooManyUsers              = errors.New("regulation: the user limit has been reached")
	ErrInvalidUser               = errors.New("regulation: invalid user")
	ErrNoSuchOperatingSystemUser = errors.New("regulation: no such operating system user")
	ErrSomeRulesStillProtected   = errors.New("regulation: some of the user's rules are still protected")
)

// Errors a Store reports for user writes.
var (
	ErrStoreDuplicateUserID = errors.New("user store: duplicate user id")
	ErrStoreNoSuchUser      = errors.New("user store: no such user")
)
