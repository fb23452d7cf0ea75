// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the logger passed to Command.Run. On a
// terminal it writes text; piped or redirected (scripts, PAM hooks,
// tests) it writes JSON in the daemon's log format.
func NewCommandLogger() *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if file, ok := Stderr.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return slog.New(slog.NewTextHandler(Stderr, options))
	}
	return slog.New(slog.NewJSONHandler(Stderr, options))
}
