// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package regulation_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/conditional"
	"github.com/discipline-project/discipline/lib/regulation"
	"github.com/discipline-project/discipline/lib/rule"
	"github.com/discipline-project/discipline/lib/ruledb"
)

var knownAccounts = map[string]bool{"alex": true, "sam": true, "kim": true}

func lookupKnown(name string) error {
	if knownAccounts[name] {
		return nil
	}
	return fmt.Errorf("user: unknown user %s", name)
}

// failingStore wraps a real database and fails the next write when
// armed.
type failingStore struct {
	*ruledb.DB
	mu   sync.Mutex
	fail bool
}

func (s *failingStore) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		s.fail = false
		return errors.New("disk on fire")
	}
	return nil
}

func (s *failingStore) failNext() {
	s.mu.Lock()
	s.fail = true
	s.mu.Unlock()
}

func (s *failingStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.DB.DeleteUser(ctx, id)
}

func (s *failingStore) InsertRule(ctx context.Context, locator rule.Locator, id uuid.UUID, stored rule.Rule) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.DB.InsertRule(ctx, locator, id, stored)
}

type fixture struct {
	db       *ruledb.DB
	store    *failingStore
	registry *regulation.Registry
}

func newFixture(t *testing.T, maxUsers, perGroup, total int) fixture {
	t.Helper()
	db, err := ruledb.Open(ruledb.Config{Path: filepath.Join(t.TempDir(), "discipline.db")})
	if err != nil {
		t.Fatalf("ruledb.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := &failingStore{DB: db}
	registry := newRegistry(t, store, maxUsers, perGroup, total)
	return fixture{db: db, store: store, registry: registry}
}

func newRegistry(t *testing.T, store regulation.Store, maxUsers, perGroup, total int) *regulation.Registry {
	t.Helper()
	registry, err := regulation.New(regulation.Config{
		Store:                     store,
		MaxUsers:                  maxUsers,
		MaxRulesPerGroup:          perGroup,
		MaxRulesTotal:             total,
		LookupOperatingSystemUser: lookupKnown,
	})
	if err != nil {
		t.Fatalf("regulation.New: %v", err)
	}
	return registry
}

func (f fixture) addUser(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id, err := f.registry.AddUser(context.Background(), regulation.AddUserRequest{Name: name, OperatingSystemName: name})
	if err != nil {
		t.Fatalf("AddUser(%s): %v", name, err)
	}
	return id
}

func (f fixture) addRule(t *testing.T, locator rule.Locator, activator rule.ActivatorSpec) uuid.UUID {
	t.Helper()
	id, err := f.registry.AddRule(context.Background(), locator, rule.AddRuleRequest{
		Activator: activator,
		Protector: rule.ProtectorSpec{Kind: "plea", Duration: "10m"},
	})
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	return id
}

var always = rule.ActivatorSpec{Kind: "always"}

func TestAddUserValidation(t *testing.T) {
	f := newFixture(t, 2, 4, 10)
	ctx := context.Background()

	tests := []struct {
		name    string
		request regulation.AddUserRequest
		want    error
	}{
		{"empty name", regulation.AddUserRequest{OperatingSystemName: "alex"}, regulation.ErrInvalidUser},
		{"long name", regulation.AddUserRequest{Name: strings.Repeat("x", 301), OperatingSystemName: "alex"}, regulation.ErrInvalidUser},
		{"no account", regulation.AddUserRequest{Name: "Alex"}, regulation.ErrInvalidUser},
		{"unknown account", regulation.AddUserRequest{Name: "Ghost", OperatingSystemName: "ghost"}, regulation.ErrNoSuchOperatingSystemUser},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := f.registry.AddUser(ctx, test.request); !errors.Is(err, test.want) {
				t.Fatalf("err = %v, want %v", err, test.want)
			}
		})
	}

	if _, err := f.registry.AddUser(ctx, regulation.AddUserRequest{Name: strings.Repeat("x", 300), OperatingSystemName: "alex"}); err != nil {
		t.Fatalf("300 byte name rejected: %v", err)
	}
}

func TestAddUserLimitsAndDuplicates(t *testing.T) {
	f := newFixture(t, 2, 4, 10)
	ctx := context.Background()
	id := uuid.New()

	if _, err := f.registry.AddUser(ctx, regulation.AddUserRequest{ID: id, Name: "Alex", OperatingSystemName: "alex"}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if _, err := f.registry.AddUser(ctx, regulation.AddUserRequest{ID: id, Name: "Again", OperatingSystemName: "alex"}); !errors.Is(err, rule.ErrDuplicateID) {
		t.Fatalf("duplicate id: %v", err)
	}
	f.addUser(t, "sam")
	if _, err := f.registry.AddUser(ctx, regulation.AddUserRequest{Name: "Kim", OperatingSystemName: "kim"}); !errors.Is(err, regulation.ErrTooManyUsers) {
		t.Fatalf("over the limit: %v", err)
	}
	if got := f.registry.Stats().Users; got != 2 {
		t.Fatalf("Users = %d, want 2", got)
	}
}

func TestRuleProceduresNeedAUser(t *testing.T) {
	f := newFixture(t, 2, 4, 10)
	ctx := context.Background()
	ghost := rule.Locator{UserID: uuid.New(), Domain: rule.Device}

	if _, err := f.registry.AddRule(ctx, ghost, rule.AddRuleRequest{Activator: always}); !errors.Is(err, regulation.ErrNoSuchUser) {
		t.Errorf("AddRule: %v", err)
	}
	if _, err := f.registry.EnsureRuleDeleted(ctx, ghost, uuid.New(), 0); !errors.Is(err, regulation.ErrNoSuchUser) {
		t.Errorf("EnsureRuleDeleted: %v", err)
	}
	if err := f.registry.ActivateRule(ctx, ghost, uuid.New(), 0); !errors.Is(err, regulation.ErrNoSuchUser) {
		t.Errorf("ActivateRule: %v", err)
	}
	if _, err := f.registry.ListRules(ghost, 0, 0, chronic.Monday); !errors.Is(err, regulation.ErrNoSuchUser) {
		t.Errorf("ListRules: %v", err)
	}
}

func TestDeleteUserRefusedWhileProtected(t *testing.T) {
	f := newFixture(t, 2, 4, 10)
	ctx := context.Background()
	alex := f.addUser(t, "alex")
	internet := rule.Locator{UserID: alex, Domain: rule.Internet}
	id := f.addRule(t, internet, always)
	f.addRule(t, rule.Locator{UserID: alex, Domain: rule.Device}, always)

	if err := f.registry.ActivateRule(ctx, internet, id, 100); err != nil {
		t.Fatalf("ActivateRule: %v", err)
	}
	if err := f.registry.DeleteUser(ctx, alex, 200); !errors.Is(err, regulation.ErrSomeRulesStillProtected) {
		t.Fatalf("DeleteUser while protected: %v", err)
	}
	if err := f.registry.DeactivateRule(ctx, internet, id, 300); err != nil {
		t.Fatalf("DeactivateRule: %v", err)
	}

	afterGrace := chronic.Instant(300).Add(chronic.Minutes(10))
	f.store.failNext()
	if err := f.registry.DeleteUser(ctx, alex, afterGrace); !errors.Is(err, rule.ErrInternal) {
		t.Fatalf("DeleteUser with failing store: %v", err)
	}
	if stats := f.registry.Stats(); stats.Users != 1 || stats.TotalRules != 2 {
		t.Fatalf("failed delete changed state: %+v", stats)
	}

	if err := f.registry.DeleteUser(ctx, alex, afterGrace); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if stats := f.registry.Stats(); stats.Users != 0 || stats.TotalRules != 0 {
		t.Fatalf("after delete: %+v", stats)
	}
	if err := f.registry.DeleteUser(ctx, alex, afterGrace); !errors.Is(err, regulation.ErrNoSuchUser) {
		t.Fatalf("second DeleteUser: %v", err)
	}
}

func TestGlobalLimitSpansUsers(t *testing.T) {
	f := newFixture(t, 3, 4, 3)
	ctx := context.Background()
	alex := f.addUser(t, "alex")
	sam := f.addUser(t, "sam")

	f.addRule(t, rule.Locator{UserID: alex, Domain: rule.Device}, always)
	f.addRule(t, rule.Locator{UserID: alex, Domain: rule.Account}, always)
	f.addRule(t, rule.Locator{UserID: sam, Domain: rule.Device}, always)

	_, err := f.registry.AddRule(ctx, rule.Locator{UserID: sam, Domain: rule.Internet}, rule.AddRuleRequest{
		Activator: always,
		Protector: rule.ProtectorSpec{Kind: "plea", Duration: "1m"},
	})
	if !errors.Is(err, rule.ErrTooManyRulesGlobally) {
		t.Fatalf("err = %v, want ErrTooManyRulesGlobally", err)
	}

	// Deleting a user frees its rules from the global count.
	if err := f.registry.DeleteUser(ctx, alex, 0); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	f.addRule(t, rule.Locator{UserID: sam, Domain: rule.Internet}, always)
	if got := f.registry.Stats().TotalRules; got != 2 {
		t.Fatalf("TotalRules = %d, want 2", got)
	}
}

func TestAddRuleStoreFailure(t *testing.T) {
	f := newFixture(t, 2, 4, 10)
	alex := f.addUser(t, "alex")
	device := rule.Locator{UserID: alex, Domain: rule.Device}

	f.store.failNext()
	_, err := f.registry.AddRule(context.Background(), device, rule.AddRuleRequest{
		Activator: always,
		Protector: rule.ProtectorSpec{Kind: "plea", Duration: "1m"},
	})
	if !errors.Is(err, rule.ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal", err)
	}
	statuses, err := f.registry.ListRules(device, 0, 0, chronic.Monday)
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(statuses) != 0 || f.registry.Stats().TotalRules != 0 {
		t.Fatal("memory changed after a failed insert")
	}
}

func TestSessionGating(t *testing.T) {
	f := newFixture(t, 3, 4, 10)
	ctx := context.Background()
	alex := f.addUser(t, "alex")
	account := rule.Locator{UserID: alex, Domain: rule.Account}
	nights := f.addRule(t, account, rule.ActivatorSpec{Kind: "time_window", From: "22:00", Till: "06:00", Weekdays: "all"})

	midnight, _ := chronic.ClockTime(0, 30)
	noon, _ := chronic.ClockTime(12, 0)

	// Scheduled but not protected: permitted.
	if !f.registry.IsSessionPermitted("alex", 0, midnight, chronic.Tuesday) {
		t.Fatal("unprotected rule blocked the session")
	}

	if err := f.registry.ActivateRule(ctx, account, nights, 0); err != nil {
		t.Fatalf("ActivateRule: %v", err)
	}
	if f.registry.IsSessionPermitted("alex", 10, midnight, chronic.Tuesday) {
		t.Fatal("session permitted inside a protected window")
	}
	if !f.registry.IsSessionPermitted("alex", 10, noon, chronic.Tuesday) {
		t.Fatal("session refused outside the window")
	}
	if !f.registry.IsSessionPermitted("nobody", 10, midnight, chronic.Tuesday) {
		t.Fatal("unmapped account refused")
	}

	// Rules in other domains never gate sessions.
	device := rule.Locator{UserID: alex, Domain: rule.Device}
	deviceRule := f.addRule(t, device, always)
	if err := f.registry.ActivateRule(ctx, device, deviceRule, 0); err != nil {
		t.Fatalf("ActivateRule: %v", err)
	}
	if !f.registry.IsSessionPermitted("alex", 10, noon, chronic.Tuesday) {
		t.Fatal("a device rule gated the session")
	}

	summaries := f.registry.ListUsers(10, midnight, chronic.Tuesday)
	if len(summaries) != 1 || summaries[0].SessionPermitted {
		t.Fatalf("ListUsers = %+v, want alex blocked", summaries)
	}
}

func TestSessionCounts(t *testing.T) {
	f := newFixture(t, 2, 4, 10)
	f.addUser(t, "alex")
	f.registry.SessionOpened("alex")
	if got := f.registry.SessionOpened("alex"); got != 2 {
		t.Fatalf("SessionOpened = %d, want 2", got)
	}
	f.registry.SessionClosed("alex")
	f.registry.SessionClosed("alex")
	if got := f.registry.SessionClosed("alex"); got != 0 {
		t.Fatalf("SessionClosed below zero = %d", got)
	}
	if got := f.registry.ListUsers(0, 0, chronic.Monday)[0].OpenSessions; got != 0 {
		t.Fatalf("OpenSessions = %d, want 0", got)
	}
}

func TestListRulesEvaluates(t *testing.T) {
	f := newFixture(t, 2, 4, 10)
	ctx := context.Background()
	alex := f.addUser(t, "alex")
	device := rule.Locator{UserID: alex, Domain: rule.Device}
	id := f.addRule(t, device, always)

	if err := f.registry.ActivateRule(ctx, device, id, 0); err != nil {
		t.Fatalf("ActivateRule: %v", err)
	}
	if err := f.registry.DeactivateRule(ctx, device, id, 1000); err != nil {
		t.Fatalf("DeactivateRule: %v", err)
	}
	statuses, err := f.registry.ListRules(device, 61_000, 0, chronic.Monday)
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("got %d statuses", len(statuses))
	}
	status := statuses[0]
	if status.State != conditional.Deactivating || !status.Protected || !status.Enforced {
		t.Fatalf("status = %+v", status)
	}
	if status.Remaining != chronic.Minutes(9) {
		t.Fatalf("Remaining = %v, want 9m", status.Remaining)
	}
}

func TestLoadRestoresState(t *testing.T) {
	f := newFixture(t, 2, 2, 10)
	ctx := context.Background()
	alex := f.addUser(t, "alex")
	device := rule.Locator{UserID: alex, Domain: rule.Device}
	id := f.addRule(t, device, always)
	f.addRule(t, device, always)
	if err := f.registry.ActivateRule(ctx, device, id, 50); err != nil {
		t.Fatalf("ActivateRule: %v", err)
	}

	// Reload with a lower per-group limit than what is stored.
	restored := newRegistry(t, f.store, 2, 1, 10)
	if err := restored.Load(ctx, f.db); err != nil {
		t.Fatalf("Load: %v", err)
	}
	stats := restored.Stats()
	if stats.Users != 1 || stats.TotalRules != 2 || stats.RulesPerDomain[rule.Device] != 2 {
		t.Fatalf("restored stats = %+v", stats)
	}
	protecting, err := restored.IsAnyRuleProtecting(device, 60)
	if err != nil || !protecting {
		t.Fatalf("IsAnyRuleProtecting = %v, %v; want the activated plea", protecting, err)
	}

	// The over-full group refuses further rules.
	_, err = restored.AddRule(ctx, device, rule.AddRuleRequest{
		Activator: always,
		Protector: rule.ProtectorSpec{Kind: "plea", Duration: "1m"},
	})
	if !errors.Is(err, rule.ErrTooManyRulesInGroup) {
		t.Fatalf("AddRule into an over-full group: %v", err)
	}

	if err := restored.Load(ctx, f.db); err == nil {
		t.Fatal("second Load succeeded")
	}
}

func TestConcurrentProceduresKeepCountsConsistent(t *testing.T) {
	f := newFixture(t, 3, 20, 40)
	users := []uuid.UUID{f.addUser(t, "alex"), f.addUser(t, "sam"), f.addUser(t, "kim")}

	var waitGroup sync.WaitGroup
	for _, owner := range users {
		for _, domain := range rule.Domains {
			waitGroup.Add(1)
			go func() {
				defer waitGroup.Done()
				locator := rule.Locator{UserID: owner, Domain: domain}
				for range 6 {
					id, err := f.registry.AddRule(context.Background(), locator, rule.AddRuleRequest{
						Activator: always,
						Protector: rule.ProtectorSpec{Kind: "countdown_latch", Duration: "1s"},
					})
					if err != nil {
						continue
					}
					if _, err := f.registry.EnsureRuleDeleted(context.Background(), locator, id, 0); err != nil {
						t.Errorf("EnsureRuleDeleted: %v", err)
					}
				}
			}()
		}
	}
	waitGroup.Wait()

	stats := f.registry.Stats()
	sum := 0
	for _, count := range stats.RulesPerDomain {
		sum += count
	}
	if sum != stats.TotalRules {
		t.Fatalf("per-domain sum %d != total %d", sum, stats.TotalRules)
	}
}
