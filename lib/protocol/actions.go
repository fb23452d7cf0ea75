// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

// Actions understood by the daemon.
const (
	ActionStatus           = "status"
	ActionAddUser          = "add-user"
	ActionDeleteUser       = "delete-user"
	ActionRenameUser       = "rename-user"
	ActionListUsers        = "list-users"
	ActionAddRule          = "add-rule"
	ActionDeleteRule       = "delete-rule"
	ActionActivateRule     = "activate-rule"
	ActionDeactivateRule   = "deactivate-rule"
	ActionListRules        = "list-rules"
	ActionIsProtected      = "is-protected"
	ActionSessionPermitted = "session-permitted"
	ActionSessionOpened    = "session-opened"
	ActionSessionClosed    = "session-closed"
)

// Mutating reports whether action changes daemon state. The daemon
// serves these only to authorized callers.
func Mutating(action string) bool {
	switch action {
	case ActionAddUser, ActionDeleteUser, ActionRenameUser,
		ActionAddRule, ActionDeleteRule, ActionActivateRule, ActionDeactivateRule,
		ActionSessionOpened, ActionSessionClosed:
		return true
	}
	return false
}
