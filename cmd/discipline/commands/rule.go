// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/lib/protocol"
	"github.com/discipline-project/discipline/lib/rule"
)

func ruleCommand() *cli.Command {
	return &cli.Command{
		Name:    "rule",
		Summary: "Manage a user's rules",
		Description: `Manage the rules in one of a user's rule groups. Every rule command
names the group with --user and --domain (device, account or internet).`,
		Subcommands: []*cli.Command{
			ruleAddCommand(),
			ruleDeleteCommand(),
			ruleTransitionCommand("activate", "Lock a rule on", func(ctx context.Context, client *protocol.Client, request protocol.RuleRequest) error {
				return client.ActivateRule(ctx, request)
			}),
			ruleTransitionCommand("deactivate", "Ask for a rule to be released", func(ctx context.Context, client *protocol.Client, request protocol.RuleRequest) error {
				return client.DeactivateRule(ctx, request)
			}),
			ruleListCommand(),
			ruleProtectedCommand(),
		},
	}
}

// groupParams names a rule group.
type groupParams struct {
	UserID string `flag:"user,u" desc:"user id"`
	Domain string `flag:"domain,d" desc:"rule domain: device, account or internet"`
}

func (p groupParams) group() (protocol.GroupRequest, error) {
	userID, err := parseID("--user", p.UserID)
	if err != nil {
		return protocol.GroupRequest{}, err
	}
	if _, err := rule.ParseDomain(p.Domain); err != nil {
		return protocol.GroupRequest{}, err
	}
	return protocol.GroupRequest{UserID: userID, Domain: p.Domain}, nil
}

// ruleDefinition is the document accepted by "rule add --from".
type ruleDefinition struct {
	Activator rule.ActivatorSpec `json:"activator"`
	Protector rule.ProtectorSpec `json:"protector"`
}

type ruleAddParams struct {
	cli.DaemonConnection
	cli.JSONOutput
	groupParams
	ID        string        `flag:"id" desc:"rule id to use instead of a generated one"`
	From      string        `flag:"from,f" desc:"read the rule from a JSONC file (- for stdin)"`
	FromTime  string        `flag:"from-time" desc:"start of the daily window (HH:MM); omit for an always-on rule"`
	TillTime  string        `flag:"till-time" desc:"end of the daily window (HH:MM), may be past midnight"`
	Weekdays  string        `flag:"weekdays" desc:"days the window applies: all, weekdays, weekend or mon,tue,..." default:"all"`
	Protector string        `flag:"protector" desc:"protector kind: plea or countdown_latch" default:"plea"`
	Duration  time.Duration `flag:"duration" desc:"plea grace period or latch length"`
}

func (p *ruleAddParams) definition() (ruleDefinition, error) {
	if p.From != "" {
		return readRuleDefinition(p.From)
	}
	definition := ruleDefinition{
		Activator: rule.ActivatorSpec{Kind: "always"},
		Protector: rule.ProtectorSpec{Kind: p.Protector, Duration: p.Duration.String()},
	}
	if p.FromTime != "" || p.TillTime != "" {
		definition.Activator = rule.ActivatorSpec{
			Kind:     "time_window",
			From:     p.FromTime,
			Till:     p.TillTime,
			Weekdays: p.Weekdays,
		}
	}
	if p.Duration <= 0 {
		return ruleDefinition{}, fmt.Errorf("--duration is required")
	}
	return definition, nil
}

// readRuleDefinition reads a JSONC rule document. Comments and
// trailing commas are allowed; unknown fields are not.
func readRuleDefinition(path string) (ruleDefinition, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cli.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return ruleDefinition{}, fmt.Errorf("reading rule: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()
	var definition ruleDefinition
	if err := decoder.Decode(&definition); err != nil {
		return ruleDefinition{}, fmt.Errorf("parsing rule %s: %w", path, err)
	}
	return definition, nil
}

func ruleAddCommand() *cli.Command {
	var params ruleAddParams
	return &cli.Command{
		Name:    "add",
		Summary: "Add a rule to a group",
		Description: `Add a rule. The new rule starts deactivated; run "rule activate" to
lock it on.

Without --from-time and --till-time the rule is always scheduled.
--from reads the whole rule from a JSONC document instead:

  {
    // Evenings on weekdays.
    "activator": {"kind": "time_window", "from": "19:00", "till": "23:00", "weekdays": "weekdays"},
    "protector": {"kind": "countdown_latch", "duration": "2h"},
  }`,
		Usage:  "discipline rule add --user ID --domain DOMAIN [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Always-on internet block, releasable 10 minutes after asking",
				Command:     "discipline rule add -u ID -d internet --protector plea --duration 10m",
			},
			{
				Description: "Read the rule from a file",
				Command:     "discipline rule add -u ID -d device --from evenings.jsonc",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args); err != nil {
				return err
			}
			group, err := params.group()
			if err != nil {
				return err
			}
			id, err := parseOptionalID("--id", params.ID)
			if err != nil {
				return err
			}
			definition, err := params.definition()
			if err != nil {
				return err
			}

			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			created, err := params.Client().AddRule(ctx, protocol.AddRuleRequest{
				GroupRequest: group,
				ID:           id,
				Activator:    definition.Activator,
				Protector:    definition.Protector,
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

type ruleTargetParams struct {
	cli.DaemonConnection
	groupParams
}

func (p *ruleTargetParams) request(args []string) (protocol.RuleRequest, error) {
	if err := requireArgs(args, "rule-id"); err != nil {
		return protocol.RuleRequest{}, err
	}
	group, err := p.group()
	if err != nil {
		return protocol.RuleRequest{}, err
	}
	ruleID, err := parseID("rule id", args[0])
	if err != nil {
		return protocol.RuleRequest{}, err
	}
	return protocol.RuleRequest{GroupRequest: group, RuleID: ruleID}, nil
}

func ruleDeleteCommand() *cli.Command {
	var params ruleTargetParams
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a rule that is no longer protected",
		Description: `Delete a rule. Refused while the rule is protected. Deleting a rule
that does not exist succeeds and reports "already_absent".`,
		Usage:  "discipline rule delete --user ID --domain DOMAIN <rule-id>",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			request, err := params.request(args)
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			outcome, err := params.Client().DeleteRule(ctx, request)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cli.Stdout, outcome)
			return err
		},
	}
}

func ruleTransitionCommand(name, summary string, call func(context.Context, *protocol.Client, protocol.RuleRequest) error) *cli.Command {
	var params ruleTargetParams
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   "discipline rule " + name + " --user ID --domain DOMAIN <rule-id>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			request, err := params.request(args)
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			if err := call(ctx, params.Client(), request); err != nil {
				return err
			}
			logger.Info("rule "+name+"d", "rule_id", request.RuleID)
			return nil
		},
	}
}

type ruleListParams struct {
	cli.DaemonConnection
	cli.JSONOutput
	groupParams
}

func ruleListCommand() *cli.Command {
	var params ruleListParams
	return &cli.Command{
		Name:    "list",
		Summary: "List a group's rules with their current state",
		Usage:   "discipline rule list --user ID --domain DOMAIN",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args); err != nil {
				return err
			}
			group, err := params.group()
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			rules, err := params.Client().ListRules(ctx, group)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(rules); done {
				return err
			}
			if len(rules) == 0 {
				logger.Info("no rules in group", "domain", group.Domain)
				return nil
			}

			rows := make([][]string, 0, len(rules))
			for _, info := range rules {
				rows = append(rows, []string{
					info.ID.String(),
					describeSchedule(info.Activator),
					info.Protector.Kind + " " + info.Protector.Duration,
					cli.Highlight(info.State),
					cli.Highlight(yesNo(info.Enforced)),
					describeRemaining(info.RemainingMilliseconds),
				})
			}
			return cli.WriteTable([]string{"ID", "SCHEDULE", "PROTECTOR", "STATE", "ENFORCED", "REMAINING"}, rows)
		},
	}
}

func describeSchedule(activator rule.ActivatorSpec) string {
	if activator.Kind != "time_window" {
		return activator.Kind
	}
	return activator.From + "-" + activator.Till + " " + activator.Weekdays
}

func describeRemaining(milliseconds uint64) string {
	if milliseconds == 0 {
		return "-"
	}
	return (time.Duration(milliseconds) * time.Millisecond).String()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

type ruleProtectedParams struct {
	cli.DaemonConnection
	cli.JSONOutput
	groupParams
}

func ruleProtectedCommand() *cli.Command {
	var params ruleProtectedParams
	return &cli.Command{
		Name:    "protected",
		Summary: "Report whether any rule in a group is protected",
		Usage:   "discipline rule protected --user ID --domain DOMAIN",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args); err != nil {
				return err
			}
			group, err := params.group()
			if err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			protected, err := params.Client().IsProtected(ctx, group)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(protocol.ProtectedResponse{Protected: protected}); done {
				return err
			}
			_, err = fmt.Fprintln(cli.Stdout, cli.Highlight(yesNo(protected)))
			return err
		},
	}
}
