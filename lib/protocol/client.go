// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"fmt"

	"github.com/discipline-project/discipline/lib/codec"
	"github.com/discipline-project/discipline/lib/service"
	"github.com/google/uuid"
)

// Client calls the daemon with typed requests. Failures reported by
// the daemon are *service.ServiceError; use HasCode to test for a
// specific code.
type Client struct {
	service *service.ServiceClient
}

// NewClient returns a client for the daemon socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{service: service.NewServiceClient(socketPath)}
}

// call flattens request into the field map the service client sends.
func (c *Client) call(ctx context.Context, action string, request, result any) error {
	var fields map[string]any
	if request != nil {
		encoded, err := codec.Marshal(request)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", action, err)
		}
		if err := codec.Unmarshal(encoded, &fields); err != nil {
			return fmt.Errorf("encoding %s request: %w", action, err)
		}
	}
	return c.service.Call(ctx, action, fields, result)
}

func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var response StatusResponse
	err := c.call(ctx, ActionStatus, nil, &response)
	return response, err
}

func (c *Client) AddUser(ctx context.Context, request AddUserRequest) (uuid.UUID, error) {
	var response IDResponse
	err := c.call(ctx, ActionAddUser, request, &response)
	return response.ID, err
}

func (c *Client) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return c.call(ctx, ActionDeleteUser, UserRequest{UserID: userID}, nil)
}

func (c *Client) RenameUser(ctx context.Context, userID uuid.UUID, name string) error {
	return c.call(ctx, ActionRenameUser, RenameUserRequest{UserID: userID, Name: name}, nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]UserInfo, error) {
	var response ListUsersResponse
	err := c.call(ctx, ActionListUsers, nil, &response)
	return response.Users, err
}

func (c *Client) AddRule(ctx context.Context, request AddRuleRequest) (uuid.UUID, error) {
	var response IDResponse
	err := c.call(ctx, ActionAddRule, request, &response)
	return response.ID, err
}

// DeleteRule returns "deleted", or "already_absent" when the rule did
// not exist.
func (c *Client) DeleteRule(ctx context.Context, request RuleRequest) (string, error) {
	var response DeleteRuleResponse
	err := c.call(ctx, ActionDeleteRule, request, &response)
	return response.Outcome, err
}

func (c *Client) ActivateRule(ctx context.Context, request RuleRequest) error {
	return c.call(ctx, ActionActivateRule, request, nil)
}

func (c *Client) DeactivateRule(ctx context.Context, request RuleRequest) error {
	return c.call(ctx, ActionDeactivateRule, request, nil)
}

func (c *Client) ListRules(ctx context.Context, group GroupRequest) ([]RuleInfo, error) {
	var response ListRulesResponse
	err := c.call(ctx, ActionListRules, group, &response)
	return response.Rules, err
}

func (c *Client) IsProtected(ctx context.Context, group GroupRequest) (bool, error) {
	var response ProtectedResponse
	err := c.call(ctx, ActionIsProtected, group, &response)
	return response.Protected, err
}

func (c *Client) SessionPermitted(ctx context.Context, operatingSystemName string) (bool, error) {
	var response SessionPermittedResponse
	err := c.call(ctx, ActionSessionPermitted, SessionRequest{OperatingSystemName: operatingSystemName}, &response)
	return response.Permitted, err
}

func (c *Client) SessionOpened(ctx context.Context, operatingSystemName string) (int, error) {
	var response SessionCountResponse
	err := c.call(ctx, ActionSessionOpened, SessionRequest{OperatingSystemName: operatingSystemName}, &response)
	return response.OpenSessions, err
}

func (c *Client) SessionClosed(ctx context.Context, operatingSystemName string) (int, error) {
	var response SessionCountResponse
	err := c.call(ctx, ActionSessionClosed, SessionRequest{OperatingSystemName: operatingSystemName}, &response)
	return response.OpenSessions, err
}
