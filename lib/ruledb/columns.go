// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package ruledb

import (
	"fmt"

	"zombiezen.com/go/sqlite"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/conditional"
	"github.com/discipline-project/discipline/lib/rule"
)

// activatorColumns is an Activator flattened into its four columns.
// Always stores zeros for the window.
type activatorColumns struct {
	kind     int64
	from     int64
	till     int64
	weekdays int64
}

func encodeActivator(activator conditional.Activator) activatorColumns {
	columns := activatorColumns{kind: int64(activator.Kind)}
	if activator.Kind == conditional.ActivatorTimeWindow {
		columns.from = int64(activator.Window.Range.From)
		columns.till = int64(activator.Window.Range.Till)
		columns.weekdays = int64(activator.Window.Weekdays.Bitmask())
	}
	return columns
}

func decodeActivator(columns activatorColumns) (conditional.Activator, error) {
	switch conditional.ActivatorKind(columns.kind) {
	case conditional.ActivatorAlways:
		return conditional.AlwaysActivator(), nil
	case conditional.ActivatorTimeWindow:
		if columns.from < 0 || columns.till < 0 || columns.from > 1<<32-1 || columns.till > 1<<32-1 {
			return conditional.Activator{}, fmt.Errorf("time window bounds %d-%d out of range", columns.from, columns.till)
		}
		timeRange, err := chronic.TimeRangeFromMilliseconds(uint32(columns.from), uint32(columns.till))
		if err != nil {
			return conditional.Activator{}, err
		}
		return conditional.TimeWindowActivator(conditional.TimeWindow{
			Range:    timeRange,
			Weekdays: chronic.WeekdaySetFromBitmask(uint8(columns.weekdays)),
		}), nil
	default:
		return conditional.Activator{}, fmt.Errorf("unknown activator kind %d", columns.kind)
	}
}

// protectorColumns is a Protector flattened into its four columns. A
// nil armedAt is SQL NULL.
type protectorColumns struct {
	kind      int64
	activated int64
	armedAt   any
	length    int64
}

func encodeCountdown(countdown chronic.Countdown) (armedAt any, length int64) {
	if countdown.IsArmed() {
		armedAt = int64(countdown.ArmedAt)
	}
	return armedAt, int64(countdown.Length)
}

func encodeProtector(protector conditional.Protector) protectorColumns {
	columns := protectorColumns{kind: int64(protector.Kind)}
	switch protector.Kind {
	case conditional.ProtectorCountdownLatch:
		columns.armedAt, columns.length = encodeCountdown(protector.Latch.Countdown)
	case conditional.ProtectorPlea:
		if protector.Plea.IsActivated {
			columns.activated = 1
		}
		columns.armedAt, columns.length = encodeCountdown(protector.Plea.Grace)
	}
	return columns
}

func decodeProtector(kind, activated int64, armedAt *int64, length int64) (conditional.Protector, error) {
	countdown := chronic.Countdown{ArmedAt: chronic.InstantNever, Length: chronic.Duration(length)}
	if armedAt != nil {
		countdown.ArmedAt = chronic.Instant(*armedAt)
	}
	switch conditional.ProtectorKind(kind) {
	case conditional.ProtectorCountdownLatch:
		return conditional.Protector{
			Kind:  conditional.ProtectorCountdownLatch,
			Latch: conditional.CountdownLatch{Countdown: countdown},
		}, nil
	case conditional.ProtectorPlea:
		return conditional.Protector{
			Kind: conditional.ProtectorPlea,
			Plea: conditional.Plea{IsActivated: activated != 0, Grace: countdown},
		}, nil
	default:
		return conditional.Protector{}, fmt.Errorf("unknown protector kind %d", kind)
	}
}

// Column order shared by scanRule and the SELECT in LoadAll.
const ruleColumns = `rule_id, user_id, domain,
	activator_kind, activator_from, activator_till, activator_weekdays,
	protector_kind, protector_activated, protector_armed_at, protector_length`

type scannedRule struct {
	userID string
	domain rule.Domain
	entry  rule.Entry
}

func scanRule(stmt *sqlite.Stmt) (scannedRule, error) {
	var scanned scannedRule
	ruleID, err := parseID(stmt.ColumnText(0))
	if err != nil {
		return scanned, fmt.Errorf("rule id: %w", err)
	}
	scanned.entry.ID = ruleID
	scanned.userID = stmt.ColumnText(1)
	scanned.domain = rule.Domain(stmt.ColumnInt64(2))

	activator, err := decodeActivator(activatorColumns{
		kind:     stmt.ColumnInt64(3),
		from:     stmt.ColumnInt64(4),
		till:     stmt.ColumnInt64(5),
		weekdays: stmt.ColumnInt64(6),
	})
	if err != nil {
		return scanned, fmt.Errorf("rule %s activator: %w", ruleID, err)
	}

	var armedAt *int64
	if !stmt.ColumnIsNull(9) {
		value := stmt.ColumnInt64(9)
		armedAt = &value
	}
	protector, err := decodeProtector(stmt.ColumnInt64(7), stmt.ColumnInt64(8), armedAt, stmt.ColumnInt64(10))
	if err != nil {
		return scanned, fmt.Errorf("rule %s protector: %w", ruleID, err)
	}

	scanned.entry.Rule = rule.Rule{Activator: activator, Protector: protector}
	return scanned, nil
}
