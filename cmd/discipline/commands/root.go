// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/lib/version"
)

// Root builds the complete command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "discipline",
		Description: `Discipline: self-imposed restrictions you cannot lift on impulse.

Rules restrict a user's device, account or internet use. A rule's
protector decides how hard it is to remove: a countdown latch holds
it for a fixed time once activated, a plea holds it until a grace
period after you ask to be released.`,
		Subcommands: []*cli.Command{
			userCommand(),
			ruleCommand(),
			sessionCommand(),
			statusCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					_, err := fmt.Fprintf(cli.Stdout, "discipline %s\n", version.Full())
					return err
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Register a user for the alice login",
				Command:     "discipline user add --name Alice --os-name alice",
			},
			{
				Description: "Block alice's logins from 22:00 to 06:00, releasable 30 minutes after asking",
				Command:     "discipline rule add --user ID --domain account --from-time 22:00 --till-time 06:00 --protector plea --duration 30m",
			},
			{
				Description: "Show what the daemon holds",
				Command:     "discipline status",
			},
		},
	}
}

// parseID parses a positional or flag uuid.
func parseID(label, text string) (uuid.UUID, error) {
	if text == "" {
		return uuid.Nil, fmt.Errorf("%s is required", label)
	}
	id, err := uuid.Parse(text)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", label, text, err)
	}
	return id, nil
}

// parseOptionalID returns uuid.Nil for an empty string.
func parseOptionalID(label, text string) (uuid.UUID, error) {
	if text == "" {
		return uuid.Nil, nil
	}
	return parseID(label, text)
}

func requireArgs(args []string, names ...string) error {
	if len(args) != len(names) {
		return fmt.Errorf("expected %d argument(s) (%v), got %d", len(names), names, len(args))
	}
	return nil
}
