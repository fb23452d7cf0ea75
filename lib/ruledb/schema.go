// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package ruledb

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	os_name TEXT NOT NULL
) STRICT;

CREATE TABLE IF NOT EXISTS rules (
	rule_id             TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	domain              INTEGER NOT NULL,
	activator_kind      INTEGER NOT NULL,
	activator_from      INTEGER NOT NULL,
	activator_till      INTEGER NOT NULL,
	activator_weekdays  INTEGER NOT NULL,
	protector_kind      INTEGER NOT NULL,
	protector_activated INTEGER NOT NULL,
	protector_armed_at  INTEGER,
	protector_length    INTEGER NOT NULL
) STRICT;

CREATE INDEX IF NOT EXISTS rules_by_user ON rules (user_id, domain);

CREATE TABLE IF NOT EXISTS monotonic_clock (
	singleton INTEGER PRIMARY KEY CHECK (singleton = 0),
	ticks     INTEGER NOT NULL
) STRICT;
`
