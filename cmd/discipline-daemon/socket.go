// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/discipline-project/discipline/lib/codec"
	"github.com/discipline-project/discipline/lib/protocol"
	"github.com/discipline-project/discipline/lib/regulation"
	"github.com/discipline-project/discipline/lib/rule"
	"github.com/discipline-project/discipline/lib/service"
	"github.com/discipline-project/discipline/lib/version"
	"github.com/google/uuid"
)

func protocolCode(err error) string {
	return protocol.CodeOf(err)
}

func (d *Daemon) registerActions(server *service.SocketServer) {
	handlers := map[string]service.ActionFunc{
		protocol.ActionStatus:           d.handleStatus,
		protocol.ActionAddUser:          d.handleAddUser,
		protocol.ActionDeleteUser:       d.handleDeleteUser,
		protocol.ActionRenameUser:       d.handleRenameUser,
		protocol.ActionListUsers:        d.handleListUsers,
		protocol.ActionAddRule:          d.handleAddRule,
		protocol.ActionDeleteRule:       d.handleDeleteRule,
		protocol.ActionActivateRule:     d.handleActivateRule,
		protocol.ActionDeactivateRule:   d.handleDeactivateRule,
		protocol.ActionListRules:        d.handleListRules,
		protocol.ActionIsProtected:      d.handleIsProtected,
		protocol.ActionSessionPermitted: d.handleSessionPermitted,
		protocol.ActionSessionOpened:    d.handleSessionOpened,
		protocol.ActionSessionClosed:    d.handleSessionClosed,
	}
	for _, action := range slices.Sorted(maps.Keys(handlers)) {
		handler := d.instrument(action, handlers[action])
		if protocol.Mutating(action) {
			server.HandleAuthorized(action, handler)
		} else {
			server.Handle(action, handler)
		}
	}
}

// instrument times every action and counts the outcome of mutating
// ones.
func (d *Daemon) instrument(action string, handler service.ActionFunc) service.ActionFunc {
	return func(ctx context.Context, raw []byte) (any, error) {
		started := d.clock.Now()
		result, err := handler(ctx, raw)
		d.metrics.ObserveRequest(action, d.clock.Now().Sub(started))
		if protocol.Mutating(action) {
			d.metrics.ObserveProcedure(action, err)
		}
		return result, err
	}
}

func decode[T any](raw []byte) (T, error) {
	var request T
	if err := codec.Unmarshal(raw, &request); err != nil {
		return request, fmt.Errorf("%w: %w", protocol.ErrInvalidRequest, err)
	}
	return request, nil
}

func (d *Daemon) handleStatus(ctx context.Context, raw []byte) (any, error) {
	stats := d.registry.Stats()
	rulesPerDomain := make(map[string]int, len(stats.RulesPerDomain))
	for domain, count := range stats.RulesPerDomain {
		rulesPerDomain[domain.String()] = count
	}
	return protocol.StatusResponse{
		Version:          version.Info(),
		Users:            stats.Users,
		MaxUsers:         stats.MaxUsers,
		TotalRules:       stats.TotalRules,
		MaxRulesTotal:    stats.GlobalCapacity,
		MaxRulesPerGroup: stats.MaxRulesPerGroup,
		RulesPerDomain:   rulesPerDomain,
		MonotonicNow:     uint64(d.monotonic.Now()),
		UptimeSeconds:    int64(d.clock.Now().Sub(d.startedAt).Seconds()),
	}, nil
}

func (d *Daemon) handleAddUser(ctx context.Context, raw []byte) (any, error) {
	request, err := decode[protocol.AddUserRequest](raw)
	if err != nil {
		return nil, err
	}
	id, err := d.registry.AddUser(ctx, regulation.AddUserRequest{
		ID:                  request.ID,
		Name:                request.Name,
		OperatingSystemName: request.OperatingSystemName,
	})
	if err != nil {
		return nil, err
	}
	return protocol.IDResponse{ID: id}, nil
}

func (d *Daemon) handleDeleteUser(ctx context.Context, raw []byte) (any, error) {
	request, err := decode[protocol.UserRequest](raw)
	if err != nil {
		return nil, err
	}
	return nil, d.registry.DeleteUser(ctx, request.UserID, d.monotonic.Now())
}

func (d *Daemon) handleRenameUser(ctx context.Context, raw []byte) (any, error) {
	request, err := decode[protocol.RenameUserRequest](raw)
	if err != nil {
		return nil, err
	}
	return nil, d.registry.RenameUser(ctx, request.UserID, request.Name)
}

func (d *Daemon) handleListUsers(ctx context.Context, raw []byte) (any, error) {
	moment := d.read()
	summaries := d.registry.ListUsers(moment.now, moment.timeOfDay, moment.weekday)
	users := make([]protocol.UserInfo, len(summaries))
	for index, summary := range summaries {
		counts := make(map[string]int, len(summary.RuleCounts))
		for domain, count := range summary.RuleCounts {
			counts[domain.String()] = count
		}
		users[index] = protocol.UserInfo{
			ID:                  summary.ID,
			Name:                summary.Name,
			OperatingSystemName: summary.OperatingSystemName,
			Rules:               counts,
			OpenSessions:        summary.OpenSessions,
			SessionPermitted:    summary.SessionPermitted,
		}
	}
	return protocol.ListUsersResponse{Users: users}, nil
}

func (d *Daemon) handleAddRule(ctx context.Context, raw []byte) (any, error) {
	request, err := decode[protocol.AddRuleRequest](raw)
	if err != nil {
		return nil, err
	}
	locator, err := request.Locator()
	if err != nil {
		return nil, err
	}
	id, err := d.registry.AddRule(ctx, locator, rule.AddRuleRequest{
		ID:        request.ID,
		Activator: request.Activator,
		Protector: request.Protector,
	})
	if err != nil {
		return nil, err
	}
	return protocol.IDResponse{ID: id}, nil
}

// ruleTarget decodes a RuleRequest into a locator and rule id.
func ruleTarget(raw []byte) (rule.Locator, uuid.UUID, error) {
	request, err := decode[protocol.RuleRequest](raw)
	if err != nil {
		return rule.Locator{}, uuid.Nil, err
	}
	locator, err := request.Locator()
	if err != nil {
		return rule.Locator{}, uuid.Nil, err
	}
	return locator, request.RuleID, nil
}

func (d *Daemon) handleDeleteRule(ctx context.Context, raw []byte) (any, error) {
	locator, id, err := ruleTarget(raw)
	if err != nil {
		return nil, err
	}
	outcome, err := d.registry.EnsureRuleDeleted(ctx, locator, id, d.monotonic.Now())
	if err != nil {
		return nil, err
	}
	return protocol.DeleteRuleResponse{Outcome: outcome.String()}, nil
}

func (d *Daemon) handleActivateRule(ctx context.Context, raw []byte) (any, error) {
	locator, id, err := ruleTarget(raw)
	if err != nil {
		return nil, err
	}
	return nil, d.registry.ActivateRule(ctx, locator, id, d.monotonic.Now())
}

func (d *Daemon) handleDeactivateRule(ctx context.Context, raw []byte) (any, error) {
	locator, id, err := ruleTarget(raw)
	if err != nil {
		return nil, err
	}
	return nil, d.registry.DeactivateRule(ctx, locator, id, d.monotonic.Now())
}

func (d *Daemon) handleListRules(ctx context.Context, raw []byte) (any, error) {
	request, err := decode[protocol.GroupRequest](raw)
	if err != nil {
		return nil, err
	}
	locator, err := request.Locator()
	if err != nil {
		return nil, err
	}
	moment := d.read()
	statuses, err := d.registry.ListRules(locator, moment.now, moment.timeOfDay, moment.weekday)
	if err != nil {
		return nil, err
	}
	rules := make([]protocol.RuleInfo, len(statuses))
	for index, status := range statuses {
		rules[index] = protocol.RuleInfo{
			ID:                    status.ID,
			Activator:             rule.DescribeActivator(status.Rule.Activator),
			Protector:             rule.DescribeProtector(status.Rule.Protector),
			State:                 status.State.String(),
			Protected:             status.Protected,
			Scheduled:             status.Scheduled,
			Enforced:              status.Enforced,
			RemainingMilliseconds: status.Remaining.Milliseconds(),
		}
	}
	return protocol.ListRulesResponse{Rules: rules}, nil
}

func (d *Daemon) handleIsProtected(ctx context.Context, raw []byte) (any, error) {
	request, err := decode[protocol.GroupRequest](raw)
	if err != nil {
		return nil, err
	}
	locator, err := request.Locator()
	if err != nil {
		return nil, err
	}
	protected, err := d.registry.IsAnyRuleProtecting(locator, d.monotonic.Now())
	if err != nil {
		return nil, err
	}
	return protocol.ProtectedResponse{Protected: protected}, nil
}

func sessionAccount(raw []byte) (string, error) {
	request, err := decode[protocol.SessionRequest](raw)
	if err != nil {
		return "", err
	}
	if request.OperatingSystemName == "" {
		return "", fmt.Errorf("%w: os_name is required", protocol.ErrInvalidRequest)
	}
	return request.OperatingSystemName, nil
}

func (d *Daemon) handleSessionPermitted(ctx context.Context, raw []byte) (any, error) {
	account, err := sessionAccount(raw)
	if err != nil {
		return nil, err
	}
	moment := d.read()
	permitted := d.registry.IsSessionPermitted(account, moment.now, moment.timeOfDay, moment.weekday)
	if !permitted {
		d.logger.Info("session refused", "os_name", account)
	}
	return protocol.SessionPermittedResponse{Permitted: permitted}, nil
}

func (d *Daemon) handleSessionOpened(ctx context.Context, raw []byte) (any, error) {
	account, err := sessionAccount(raw)
	if err != nil {
		return nil, err
	}
	return protocol.SessionCountResponse{OpenSessions: d.registry.SessionOpened(account)}, nil
}

func (d *Daemon) handleSessionClosed(ctx context.Context, raw []byte) (any, error) {
	account, err := sessionAccount(raw)
	if err != nil {
		return nil, err
	}
	return protocol.SessionCountResponse{OpenSessions: d.registry.SessionClosed(account)}, nil
}
