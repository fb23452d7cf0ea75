// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package rule

import (
	"bytes"
	"errors"
	"testing"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/conditional"
	"github.com/google/uuid"
)

func TestRuleGroupAddRemove(t *testing.T) {
	group := NewRuleGroup(3)
	id := uuid.New()
	rule := Rule{Activator: conditional.AlwaysActivator(), Protector: conditional.PleaProtector(chronic.Minutes(1))}

	if err := group.Add(id, rule); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := group.Add(id, rule); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate Add err = %v", err)
	}
	removed, ok := group.Remove(id)
	if !ok || removed != rule {
		t.Fatalf("Remove = %+v, %v", removed, ok)
	}
	if _, ok := group.Remove(id); ok {
		t.Fatal("second Remove reported a rule")
	}
}

func TestRuleGroupEvaluation(t *testing.T) {
	group := NewRuleGroup(3)
	noon, _ := chronic.ClockTime(12, 0)
	night, _ := chronic.ClockTime(23, 0)
	latched := Rule{
		Activator: conditional.TimeWindowActivator(conditional.TimeWindow{
			Range:    chronic.NewTimeRange(noon, noon+chronic.TimeOfDay(chronic.Hours(1))),
			Weekdays: chronic.AllWeekdays,
		}),
		Protector: conditional.LatchProtector(chronic.Minutes(30)),
	}
	latched.Protector.Activate(0)
	id := uuid.New()
	if err := group.Add(id, latched); err != nil {
		t.Fatal(err)
	}

	if !group.IsAnyRuleProtecting(0) {
		t.Error("armed latch not protecting")
	}
	if !group.IsAnyRuleEnforced(0, noon, chronic.Monday) {
		t.Error("rule not enforced inside its window")
	}
	if group.IsAnyRuleEnforced(0, night, chronic.Monday) {
		t.Error("rule enforced outside its window")
	}
	expired := chronic.Instant(chronic.Minutes(30))
	if group.IsAnyRuleProtecting(expired) || group.IsAnyRuleEnforced(expired, noon, chronic.Monday) {
		t.Error("rule still protecting after the latch expired")
	}
}

func TestRuleGroupSnapshots(t *testing.T) {
	group := NewRuleGroup(5)
	for range 4 {
		if err := group.Add(uuid.New(), Rule{Activator: conditional.AlwaysActivator(), Protector: conditional.PleaProtector(1)}); err != nil {
			t.Fatal(err)
		}
	}
	entries := group.Rules()
	for index := 1; index < len(entries); index++ {
		if bytes.Compare(entries[index-1].ID[:], entries[index].ID[:]) >= 0 {
			t.Fatal("Rules() is not sorted by id")
		}
	}

	clone := group.Clone()
	if !clone.Equal(group) {
		t.Fatal("clone differs from original")
	}
	clone.SetProtector(entries[0].ID, conditional.LatchProtector(5))
	if clone.Equal(group) {
		t.Fatal("changing the clone changed the original")
	}
	if group.SetProtector(uuid.New(), conditional.LatchProtector(5)) {
		t.Fatal("SetProtector reported success for an absent id")
	}
}

func TestCrossGroupRelease(t *testing.T) {
	cross := CrossGroupInfo{TotalRuleCount: 3, GlobalCapacity: 5}
	cross.Release(5)
	if cross.TotalRuleCount != 0 {
		t.Fatalf("Release saturated to %d, want 0", cross.TotalRuleCount)
	}
	cross.decrement()
	if cross.TotalRuleCount != 0 {
		t.Fatalf("decrement below zero: %d", cross.TotalRuleCount)
	}
}

func TestParseDomain(t *testing.T) {
	for _, domain := range Domains {
		parsed, err := ParseDomain(domain.String())
		if err != nil || parsed != domain {
			t.Errorf("ParseDomain(%q) = %v, %v", domain, parsed, err)
		}
	}
	if _, err := ParseDomain("kitchen"); err == nil {
		t.Error("ParseDomain accepted an unknown name")
	}
}
