// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/lib/protocol"
)

func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Summary: "Login session hooks",
		Description: `Commands for the login stack (a PAM exec hook or a display manager
script) to ask whether a login may proceed and to report sessions
opening and closing.`,
		Subcommands: []*cli.Command{
			sessionCheckCommand(),
			sessionCountCommand("opened", "Record that a session opened", (*protocol.Client).SessionOpened),
			sessionCountCommand("closed", "Record that a session closed", (*protocol.Client).SessionClosed),
		},
	}
}

type sessionCheckParams struct {
	cli.DaemonConnection
	cli.JSONOutput
	Quiet bool `flag:"quiet,q" desc:"print nothing; answer with the exit status only"`
}

func sessionCheckCommand() *cli.Command {
	var params sessionCheckParams
	return &cli.Command{
		Name:    "check",
		Summary: "Exit 0 if the login may open a session, 1 if refused",
		Usage:   "discipline session check <login>",
		Params:  func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "PAM account hook",
				Command:     "account required pam_exec.so quiet /usr/bin/discipline session check --quiet $PAM_USER",
			},
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "login"); err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			permitted, err := params.Client().SessionPermitted(ctx, args[0])
			if err != nil {
				return err
			}

			switch {
			case params.OutputJSON:
				if err := cli.WriteJSON(protocol.SessionPermittedResponse{Permitted: permitted}); err != nil {
					return err
				}
			case !params.Quiet:
				if _, err := fmt.Fprintln(cli.Stdout, cli.Highlight(sessionWord(permitted))); err != nil {
					return err
				}
			}
			if !permitted {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

type sessionCountParams struct {
	cli.DaemonConnection
	cli.JSONOutput
}

func sessionCountCommand(name, summary string, call func(*protocol.Client, context.Context, string) (int, error)) *cli.Command {
	var params sessionCountParams
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   "discipline session " + name + " <login>",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if err := requireArgs(args, "login"); err != nil {
				return err
			}
			ctx, cancel := cli.CallContext(ctx)
			defer cancel()
			count, err := call(params.Client(), ctx, args[0])
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(protocol.SessionCountResponse{OpenSessions: count}); done {
				return err
			}
			_, err = fmt.Fprintln(cli.Stdout, count)
			return err
		},
	}
}
