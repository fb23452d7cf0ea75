// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// captureOutput redirects Stdout and Stderr for the rest of the test.
func captureOutput(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	previousOut, previousErr := Stdout, Stderr
	Stdout, Stderr = stdout, stderr
	t.Cleanup(func() { Stdout, Stderr = previousOut, previousErr })
	return stdout, stderr
}

func TestExecuteDispatchesToNestedSubcommand(t *testing.T) {
	captureOutput(t)
	var called string
	var received []string

	root := &Command{
		Name: "discipline",
		Subcommands: []*Command{
			{
				Name: "rule",
				Subcommands: []*Command{
					{
						Name: "add",
						Run: func(_ context.Context, args []string, _ *slog.Logger) error {
							called = "rule add"
							received = args
							return nil
						},
					},
				},
			},
			{Name: "status", Run: func(context.Context, []string, *slog.Logger) error {
				called = "status"
				return nil
			}},
		},
	}

	if err := root.Execute(context.Background(), []string{"rule", "add", "one", "two"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "rule add" {
		t.Errorf("dispatched to %q, want %q", called, "rule add")
	}
	if strings.Join(received, " ") != "one two" {
		t.Errorf("args = %v, want [one two]", received)
	}
}

func TestExecuteSuggestsUnknownCommand(t *testing.T) {
	captureOutput(t)
	root := &Command{
		Name: "discipline",
		Subcommands: []*Command{
			{Name: "status", Run: func(context.Context, []string, *slog.Logger) error { return nil }},
			{Name: "session", Run: func(context.Context, []string, *slog.Logger) error { return nil }},
		},
	}

	err := root.Execute(context.Background(), []string{"stauts"})
	if err == nil {
		t.Fatal("expected an error for an unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "status"`) {
		t.Errorf("error = %q, want a suggestion of status", err)
	}

	err = root.Execute(context.Background(), []string{"xyzzy-plugh"})
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %v, want no suggestion for a distant name", err)
	}
}

func TestExecuteParsesParams(t *testing.T) {
	captureOutput(t)
	var params struct {
		Name  string `flag:"name,n" desc:"the name"`
		Count int    `flag:"count" desc:"how many" default:"3"`
	}
	var received []string
	command := &Command{
		Name:   "add",
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			received = args
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"-n", "alice", "rest"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if params.Name != "alice" || params.Count != 3 {
		t.Errorf("params = %+v, want name alice and default count 3", params)
	}
	if len(received) != 1 || received[0] != "rest" {
		t.Errorf("args = %v, want [rest]", received)
	}
}

func TestExecuteSuggestsUnknownFlag(t *testing.T) {
	captureOutput(t)
	var params struct {
		Domain string `flag:"domain" desc:"rule domain"`
	}
	command := &Command{
		Name:   "list",
		Params: func() any { return &params },
		Run:    func(context.Context, []string, *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--domian", "device"})
	if err == nil {
		t.Fatal("expected an error for an unknown flag")
	}
	if !strings.Contains(err.Error(), "did you mean --domain?") {
		t.Errorf("error = %q, want a --domain suggestion", err)
	}
}

func TestExecuteRequiresSubcommand(t *testing.T) {
	_, stderr := captureOutput(t)
	root := &Command{
		Name:        "discipline",
		Subcommands: []*Command{{Name: "user", Summary: "Manage users"}},
	}

	if err := root.Execute(context.Background(), nil); err == nil {
		t.Fatal("expected an error without a subcommand")
	}
	if !strings.Contains(stderr.String(), "user") || !strings.Contains(stderr.String(), "Manage users") {
		t.Errorf("help output missing the subcommand listing:\n%s", stderr)
	}
}

func TestPrintHelp(t *testing.T) {
	var params struct {
		JSONOutput
		Domain string `flag:"domain,d" desc:"rule domain"`
	}
	command := &Command{
		Name:        "list",
		Description: "List the rules in a group.",
		Params:      func() any { return &params },
		Examples:    []Example{{Description: "Device rules", Command: "discipline rule list -d device"}},
		parent:      &Command{Name: "rule", parent: &Command{Name: "discipline"}},
	}

	var help bytes.Buffer
	command.PrintHelp(&help)
	output := help.String()
	for _, want := range []string{
		"List the rules in a group.",
		"discipline rule list [flags]",
		"--domain",
		"--json",
		"# Device rules",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q:\n%s", want, output)
		}
	}
}

func TestExitErrorPassesThrough(t *testing.T) {
	captureOutput(t)
	command := &Command{
		Name: "check",
		Run: func(context.Context, []string, *slog.Logger) error {
			return &ExitError{Code: 1}
		},
	}

	err := command.Execute(context.Background(), nil)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Errorf("err = %v, want ExitError with code 1", err)
	}
}

func TestCommandPath(t *testing.T) {
	root := &Command{Name: "discipline"}
	rule := &Command{Name: "rule", parent: root}
	add := &Command{Name: "add", parent: rule}

	if got := add.path(); got != "rule/add" {
		t.Errorf("path = %q, want rule/add", got)
	}
	if got := add.fullName(); got != "discipline rule add" {
		t.Errorf("fullName = %q, want %q", got, "discipline rule add")
	}
}
