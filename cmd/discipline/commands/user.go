// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/lib/protocol"
	"github.com/discipline-project/discipline/lib/rule"
)

func userCommand() *cli.Command {
	return &cli.Command{
		Name:    "user",
		Summary: "Manage regulated users",
		Subcommands: []*cli.Command{
			userAddCommand(),
			userDeleteCommand(),
			userRenameCommand(),
			userListCommand(),
		},
	}
}

type userAddParams struct {
	cli.DaemonConnection
	cli.JSONOutput
	Name   string `flag:"name" desc:"display name"`
	OSName string `flag:"os-name" desc:"operating system login the user's account rules apply to"`
	ID     string `flag:"id" desc:"user id to use instead of a generated one"`
}

func userAddCommand() *cli.Command {
	var params userAddParams
	return &cli.Command{
		Name:    "add",
		Summary: "Register a user",
		Usage:   "discipline user add --name NAME --os-name LOGIN [--id UUID]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args); err != nil {
				return err
			}
			id, err := parseOptionalID("--id", params.ID)
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()

			created, err := params.Client().AddUser(ctx, protocol.AddUserRequest{
				ID:                  id,
				Name:                params.Name,
				OperatingSystemName: params.OSName,
			})
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(protocol.IDResponse{ID: created}); done {
				return err
			}
			_, err = fmt.Fprintln(cli.Stdout, created)
			return err
		},
	}
}

type userIDParams struct {
	cli.DaemonConnection
}

func userDeleteCommand() *cli.Command {
	var params userIDParams
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a user and all of their rules",
		Description: `Delete a user and all of their rules. Refused while any of the
user's rules is still protected.`,
		Usage:  "discipline user delete <user-id>",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "user-id"); err != nil {
				return err
			}
			userID, err := parseID("user id", args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			if err := params.Client().DeleteUser(ctx, userID); err != nil {
				return err
			}
			logger.Info("user deleted", "user_id", userID)
			return nil
		},
	}
}

func userRenameCommand() *cli.Command {
	var params userIDParams
	return &cli.Command{
		Name:    "rename",
		Summary: "Change a user's display name",
		Usage:   "discipline user rename <user-id> <name>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "user-id", "name"); err != nil {
				return err
			}
			userID, err := parseID("user id", args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			if err := params.Client().RenameUser(ctx, userID, args[1]); err != nil {
				return err
			}
			logger.Info("user renamed", "user_id", userID, "name", args[1])
			return nil
		},
	}
}

type userListParams struct {
	cli.DaemonConnection
	cli.JSONOutput
}

func userListCommand() *cli.Command {
	var params userListParams
	return &cli.Command{
		Name:    "list",
		Summary: "List users with their rule counts",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args); err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			users, err := params.Client().ListUsers(ctx)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(users); done {
				return err
			}
			if len(users) == 0 {
				logger.Info("no users registered")
				return nil
			}

			headers := []string{"ID", "NAME", "LOGIN"}
			for _, domain := range rule.Domains {
				headers = append(headers, strings.ToUpper(domain.String()))
			}
			headers = append(headers, "SESSIONS", "ACCESS")
			rows := make([][]string, 0, len(users))
			for _, user := range users {
				row := []string{user.ID.String(), user.Name, user.OperatingSystemName}
				for _, domain := range rule.Domains {
					row = append(row, strconv.Itoa(user.Rules[domain.String()]))
				}
				row = append(row, strconv.Itoa(user.OpenSessions), cli.Highlight(sessionWord(user.SessionPermitted)))
				rows = append(rows, row)
			}
			return cli.WriteTable(headers, rows)
		},
	}
}

func sessionWord(permitted bool) string {
	if permitted {
		return "permitted"
	}
	return "refused"
}
