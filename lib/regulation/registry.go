// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package regulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	osuser "os/user"
	"sort"
	"sync"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/rule"
	"github.com/google/uuid"
)

// Config holds the parameters for a Registry. Store and the three
// limits are required.
type Config struct {
	Store Store

	MaxUsers         int
	MaxRulesPerGroup int
	MaxRulesTotal    int

	// LookupOperatingSystemUser returns an error when no account of
	// that name exists on the machine. Defaults to os/user.Lookup.
	LookupOperatingSystemUser func(name string) error

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Registry owns every user and rule group in the process. All methods
// are safe for concurrent use.
type Registry struct {
	store                     Store
	lookupOperatingSystemUser func(string) error
	logger                    *slog.Logger
	maxUsers                  int
	maxRulesPerGroup          int

	mu    sync.RWMutex
	users map[uuid.UUID]*user

	crossMu sync.Mutex
	cross   rule.CrossGroupInfo

	sessionsMu sync.Mutex
	sessions   map[string]int
}

// New returns an empty registry. Call Load to restore persisted state.
func New(cfg Config) (*Registry, error) {
	if cfg.Store == nil {
		return nil, errors.New("regulation: Store is required")
	}
	if cfg.MaxUsers <= 0 || cfg.MaxRulesPerGroup <= 0 || cfg.MaxRulesTotal <= 0 {
		return nil, fmt.Errorf("regulation: limits must be positive (users %d, rules per group %d, rules total %d)",
			cfg.MaxUsers, cfg.MaxRulesPerGroup, cfg.MaxRulesTotal)
	}

	lookup := cfg.LookupOperatingSystemUser
	if lookup == nil {
		lookup = func(name string) error {
			_, err := osuser.Lookup(name)
			return err
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Registry{
		store:                     cfg.Store,
		lookupOperatingSystemUser: lookup,
		logger:                    logger,
		maxUsers:                  cfg.MaxUsers,
		maxRulesPerGroup:          cfg.MaxRulesPerGroup,
		users:                     make(map[uuid.UUID]*user),
		cross:                     rule.CrossGroupInfo{GlobalCapacity: cfg.MaxRulesTotal},
		sessions:                  make(map[string]int),
	}, nil
}

// logOutcome logs a mutation: Info on success, Debug for a refused
// request, Error for a fault.
func (r *Registry) logOutcome(operation string, err error, attrs ...any) {
	switch {
	case err == nil:
		r.logger.Info(operation, attrs...)
	case errors.Is(err, rule.ErrInternal):
		r.logger.Error(operation+" failed", append(attrs, "error", err)...)
	default:
		r.logger.Debug(operation+" refused", append(attrs, "error", err)...)
	}
}

// Load rebuilds the registry from storage. It must be called before
// any other method, on an empty registry.
//
// Persisted state always wins over the configured limits: users and
// rules beyond them are loaded and logged, and only further additions
// are refused.
func (r *Registry) Load(ctx context.Context, loader Loader) error {
	stored, err := loader.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("regulation: loading: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.users) != 0 {
		return errors.New("regulation: Load called on a populated registry")
	}

	total := 0
	for _, storedUser := range stored {
		if _, exists := r.users[storedUser.ID]; exists {
			r.logger.Warn("skipping duplicate stored user", "user_id", storedUser.ID)
			continue
		}
		loaded := newUser(storedUser.UserRecord, r.maxRulesPerGroup)
		for domain, entries := range storedUser.Rules {
			group, err := loaded.group(domain)
			if err != nil {
				r.logger.Warn("skipping rules in unknown domain",
					"user_id", storedUser.ID, "domain", domain, "count", len(entries))
				continue
			}
			for _, entry := range entries {
				if err := entry.Rule.Validate(); err != nil {
					r.logger.Warn("skipping invalid stored rule",
						"user_id", storedUser.ID, "rule_id", entry.ID, "error", err)
					continue
				}
				if err := group.rules.Add(entry.ID, entry.Rule); err != nil {
					r.logger.Warn("skipping duplicate stored rule",
						"user_id", storedUser.ID, "rule_id", entry.ID)
					continue
				}
				total++
			}
			if group.rules.Len() > group.rules.Capacity() {
				r.logger.Warn("rule group holds more rules than its capacity",
					"user_id", storedUser.ID, "domain", domain,
					"rules", group.rules.Len(), "capacity", group.rules.Capacity())
			}
		}
		r.users[storedUser.ID] = loaded
	}

	r.crossMu.Lock()
	r.cross.Restore(total)
	crossSnapshot := r.cross
	r.crossMu.Unlock()

	if len(r.users) > r.maxUsers {
		r.logger.Warn("more users stored than the user limit", "users", len(r.users), "limit", r.maxUsers)
	}
	if crossSnapshot.TotalRuleCount > crossSnapshot.GlobalCapacity {
		r.logger.Warn("more rules stored than the global limit",
			"rules", crossSnapshot.TotalRuleCount, "limit", crossSnapshot.GlobalCapacity)
	}
	r.logger.Info("registry loaded", "users", len(r.users), "rules", crossSnapshot.TotalRuleCount)
	return nil
}

// AddUserRequest describes a user to create. A nil ID asks for a
// generated one.
type AddUserRequest struct {
	ID                  uuid.UUID
	Name                string
	OperatingSystemName string
}

// AddUser registers a user with empty rule groups.
func (r *Registry) AddUser(ctx context.Context, request AddUserRequest) (uuid.UUID, error) {
	id, err := r.addUser(ctx, request)
	r.logOutcome("user added", err, "user_id", id, "name", request.Name, "os_name", request.OperatingSystemName)
	return id, err
}

func (r *Registry) addUser(ctx context.Context, request AddUserRequest) (uuid.UUID, error) {
	if err := validateName(request.Name); err != nil {
		return uuid.Nil, err
	}
	if request.OperatingSystemName == "" {
		return uuid.Nil, fmt.Errorf("%w: operating system name is required", ErrInvalidUser)
	}
	if err := r.lookupOperatingSystemUser(request.OperatingSystemName); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q: %w", ErrNoSuchOperatingSystemUser, request.OperatingSystemName, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.users) >= r.maxUsers {
		return uuid.Nil, ErrTooManyUsers
	}

	id := request.ID
	clientSupplied := id != uuid.Nil
	if clientSupplied {
		if _, exists := r.users[id]; exists {
			return uuid.Nil, rule.ErrDuplicateID
		}
	} else {
		generated, err := uuid.NewRandom()
		if err != nil {
			return uuid.Nil, &rule.InternalError{Op: "generate user id", Err: err}
		}
		id = generated
	}

	record := UserRecord{ID: id, Name: request.Name, OperatingSystemName: request.OperatingSystemName}
	if err := r.store.InsertUser(context.WithoutCancel(ctx), record); err != nil {
		if errors.Is(err, ErrStoreDuplicateUserID) && clientSupplied {
			return uuid.Nil, rule.ErrDuplicateID
		}
		return uuid.Nil, &rule.InternalError{Op: "insert user", Err: err}
	}

	r.users[id] = newUser(record, r.maxRulesPerGroup)
	return id, nil
}

// DeleteUser removes a user and all of its rules, unless any of them
// is protected at now.
func (r *Registry) DeleteUser(ctx context.Context, id uuid.UUID, now chronic.Instant) error {
	err := r.deleteUser(ctx, id, now)
	r.logOutcome("user deleted", err, "user_id", id)
	return err
}

func (r *Registry) deleteUser(ctx context.Context, id uuid.UUID, now chronic.Instant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.users[id]
	if !exists {
		return ErrNoSuchUser
	}
	// The registry write lock excludes every group lock holder.
	for _, group := range existing.groups {
		if group.rules.IsAnyRuleProtecting(now) {
			return ErrSomeRulesStillProtected
		}
	}
	count := existing.ruleCount()

	if err := r.store.DeleteUser(context.WithoutCancel(ctx), id); err != nil {
		return &rule.InternalError{Op: "delete user", Err: err}
	}

	delete(r.users, id)
	r.crossMu.Lock()
	r.cross.Release(count)
	r.crossMu.Unlock()
	return nil
}

// RenameUser changes a user's display name.
func (r *Registry) RenameUser(ctx context.Context, id uuid.UUID, name string) error {
	err := r.renameUser(ctx, id, name)
	r.logOutcome("user renamed", err, "user_id", id, "name", name)
	return err
}

func (r *Registry) renameUser(ctx context.Context, id uuid.UUID, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.users[id]
	if !exists {
		return ErrNoSuchUser
	}
	if existing.record.Name == name {
		return nil
	}
	if err := r.store.RenameUser(context.WithoutCancel(ctx), id, name); err != nil {
		return &rule.InternalError{Op: "rename user", Err: err}
	}
	existing.record.Name = name
	return nil
}

// ListUsers returns every user ordered by name, evaluated at the given
// instant and wall-clock reading.
func (r *Registry) ListUsers(now chronic.Instant, timeOfDay chronic.TimeOfDay, weekday chronic.Weekday) []UserSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.sessionsMu.Lock()
	sessions := make(map[string]int, len(r.sessions))
	for name, count := range r.sessions {
		sessions[name] = count
	}
	r.sessionsMu.Unlock()

	summaries := make([]UserSummary, 0, len(r.users))
	for _, each := range r.users {
		summary := UserSummary{
			ID:                  each.record.ID,
			Name:                each.record.Name,
			OperatingSystemName: each.record.OperatingSystemName,
			RuleCounts:          make(map[rule.Domain]int, len(each.groups)),
			OpenSessions:        sessions[each.record.OperatingSystemName],
			SessionPermitted:    true,
		}
		for domain, group := range each.groups {
			group.mu.RLock()
			summary.RuleCounts[domain] = group.rules.Len()
			if domain == rule.Account && group.rules.IsAnyRuleEnforced(now, timeOfDay, weekday) {
				summary.SessionPermitted = false
			}
			group.mu.RUnlock()
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Name != summaries[j].Name {
			return summaries[i].Name < summaries[j].Name
		}
		return summaries[i].ID.String() < summaries[j].ID.String()
	})
	return summaries
}

// Stats is a point-in-time count of the registry's contents.
type Stats struct {
	Users            int
	MaxUsers         int
	TotalRules       int
	GlobalCapacity   int
	MaxRulesPerGroup int
	RulesPerDomain   map[rule.Domain]int
}

// Stats counts users and rules.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		Users:            len(r.users),
		MaxUsers:         r.maxUsers,
		MaxRulesPerGroup: r.maxRulesPerGroup,
		RulesPerDomain:   make(map[rule.Domain]int, len(rule.Domains)),
	}
	for _, domain := range rule.Domains {
		stats.RulesPerDomain[domain] = 0
	}
	for _, each := range r.users {
		for domain, group := range each.groups {
			group.mu.RLock()
			stats.RulesPerDomain[domain] += group.rules.Len()
			group.mu.RUnlock()
		}
	}

	r.crossMu.Lock()
	stats.TotalRules = r.cross.TotalRuleCount
	stats.GlobalCapacity = r.cross.GlobalCapacity
	r.crossMu.Unlock()
	return stats
}
