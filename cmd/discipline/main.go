// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/discipline-project/discipline/cmd/discipline/cli"
	"github.com/discipline-project/discipline/cmd/discipline/commands"
	"github.com/discipline-project/discipline/lib/process"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := commands.Root().Execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		// Commands that answer through their exit status have already
		// printed what they need to.
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			process.Exit(exitErr.ExitCode())
		}
		process.Fatal(err)
	}
}
