// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"errors"

	"github.com/discipline-project/discipline/lib/regulation"
	"github.com/discipline-project/discipline/lib/rule"
	"github.com/discipline-project/discipline/lib/service"
)

// Error codes carried in the response envelope's "code" field.
const (
	CodeTooManyRulesGlobally    = "too_many_rules_globally"
	CodeTooManyRulesInGroup     = "too_many_rules_in_group"
	CodeDuplicateID             = "duplicate_id"
	CodeRuleStillProtected      = "rule_still_protected"
	CodeNoSuchRule              = "no_such_rule"
	CodeNoSuchUser              = "no_such_user"
	CodeTooManyUsers            = "too_many_users"
	CodeSomeRulesStillProtected = "some_rules_still_protected"
	CodeInvalidRequest          = service.CodeInvalidRequest
	CodePermissionDenied        = service.CodePermissionDenied
	CodeInternal                = service.CodeInternal
)

var codes = []struct {
	err  error
	code string
}{
	{rule.ErrTooManyRulesGlobally, CodeTooManyRulesGlobally},
	{rule.ErrTooManyRulesInGroup, CodeTooManyRulesInGroup},
	{rule.ErrDuplicateID, CodeDuplicateID},
	{rule.ErrRuleStillProtected, CodeRuleStillProtected},
	{rule.ErrNoSuchRule, CodeNoSuchRule},
	{rule.ErrInvalidRule, CodeInvalidRequest},
	{regulation.ErrNoSuchUser, CodeNoSuchUser},
	{regulation.ErrTooManyUsers, CodeTooManyUsers},
	{regulation.ErrSomeRulesStillProtected, CodeSomeRulesStillProtected},
	{regulation.ErrInvalidUser, CodeInvalidRequest},
	{regulation.ErrNoSuchOperatingSystemUser, CodeInvalidRequest},
	{ErrInvalidRequest, CodeInvalidRequest},
}

// ErrInvalidRequest marks a request the daemon could not decode or
// whose fields are malformed.
var ErrInvalidRequest = errors.New("invalid request")

// CodeOf maps an error returned by the daemon's procedures to its wire
// code. Internal errors and anything unrecognized map to CodeInternal.
func CodeOf(err error) string {
	if errors.Is(err, rule.ErrInternal) {
		return CodeInternal
	}
	for _, entry := range codes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeInternal
}

// HasCode reports whether err is a daemon failure carrying code.
func HasCode(err error, code string) bool {
	var serviceErr *service.ServiceError
	return errors.As(err, &serviceErr) && serviceErr.Code == code
}
