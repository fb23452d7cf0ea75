// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import "errors"

// Precondition failures. These are expected outcomes of a request and
// are returned before the store is touched.
var (
	ErrTooManyRulesGlobally = errors.New("rule: the global rule limit has been reached")
	ErrTooManyRulesInGroup  = errors.New("rule: the group's rule limit has been reached")
	ErrDuplicateID          = errors.New("rule: a rule with this id already exists")
	ErrRuleStillProtected   = errors.New("rule: the rule is still protected")
	ErrNoSuchRule           = errors.New("rule: no such rule")
	ErrInvalidRule          = errors.New("rule: invalid rule")
)

// ErrInternal matches every *InternalError via errors.Is.
var ErrInternal = errors.New("rule: internal error")

// InternalError reports a failed store write or another fault the
// caller cannot correct. Memory is unchanged when one is returned.
type InternalError struct {
	// Op names the step that failed, for logs.
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return "rule: internal error: " + e.Op + ": " + e.Err.Error()
}

func (e *InternalError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInternal) true for any InternalError.
func (e *InternalError) Is(target error) bool { return target == ErrInternal }

func internal(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}
