// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/lib/rule"
)

type statusParams struct {
	cli.DaemonConnection
	cli.JSONOutput
}

func statusCommand() *cli.Command {
	var params statusParams
	return &cli.Command{
		Name:    "status",
		Summary: "Show daemon version, limits and usage",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args); err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			status, err := params.Client().Status(ctx)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(status); done {
				return err
			}

			rows := [][]string{
				{"version", status.Version},
				{"uptime", (time.Duration(status.UptimeSeconds) * time.Second).String()},
				{"users", strconv.Itoa(status.Users) + " / " + strconv.Itoa(status.MaxUsers)},
				{"rules", strconv.Itoa(status.TotalRules) + " / " + strconv.Itoa(status.MaxRulesTotal)},
				{"rules per group", strconv.Itoa(status.MaxRulesPerGroup)},
			}
			for _, domain := range rule.Domains {
				rows = append(rows, []string{domain.String() + " rules", strconv.Itoa(status.RulesPerDomain[domain.String()])})
			}
			rows = append(rows, []string{"daemon clock", (time.Duration(status.MonotonicNow) * time.Millisecond).String()})
			return cli.WriteTable(nil, rows)
		},
	}
}
