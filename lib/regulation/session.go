// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package regulation

import (
	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/rule"
)

// IsSessionPermitted reports whether the operating system account
// operatingSystemName may open a login session. It is refused while
// any registered user mapped to that account has an enforced rule in
// its Account group. Accounts no user is mapped to are always
// permitted.
func (r *Registry) IsSessionPermitted(operatingSystemName string, now chronic.Instant, timeOfDay chronic.TimeOfDay, weekday chronic.Weekday) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, each := range r.users {
		if each.record.OperatingSystemName != operatingSystemName {
			continue
		}
		group := each.groups[rule.Account]
		group.mu.RLock()
		enforced := group.rules.IsAnyRuleEnforced(now, timeOfDay, weekday)
		group.mu.RUnlock()
		if enforced {
			r.logger.Debug("session refused", "os_name", operatingSystemName, "user_id", each.record.ID)
			return false
		}
	}
	return true
}

// SessionOpened records a login session for the account and returns
// the number now open.
func (r *Registry) SessionOpened(operatingSystemName string) int {
	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()
	r.sessions[operatingSystemName]++
	count := r.sessions[operatingSystemName]
	r.logger.Info("session opened", "os_name", operatingSystemName, "open_sessions", count)
	return count
}

// SessionClosed records the end of a login session and returns the
// number still open. Closing with none open is ignored.
func (r *Registry) SessionClosed(operatingSystemName string) int {
	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()
	count := r.sessions[operatingSystemName]
	if count <= 1 {
		delete(r.sessions, operatingSystemName)
		count = 0
	} else {
		count--
		r.sessions[operatingSystemName] = count
	}
	r.logger.Info("session closed", "os_name", operatingSystemName, "open_sessions", count)
	return count
}

// OpenSessions returns the number of sessions recorded for the account.
func (r *Registry) OpenSessions(operatingSystemName string) int {
	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()
	return r.sessions[operatingSystemName]
}
