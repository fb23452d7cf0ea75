// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlagsTypes(t *testing.T) {
	var params struct {
		Name     string        `flag:"name" desc:"the name"`
		Quiet    bool          `flag:"quiet,q" desc:"say nothing"`
		Count    int           `flag:"count" desc:"number of items"`
		Duration time.Duration `flag:"duration" desc:"grace period"`
		Days     []string      `flag:"days" desc:"weekdays"`
		Untagged string
	}

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&params, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	err := flagSet.Parse([]string{
		"--name", "alice",
		"-q",
		"--count", "42",
		"--duration", "10m",
		"--days", "mon,tue",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if params.Name != "alice" || !params.Quiet || params.Count != 42 {
		t.Errorf("params = %+v", params)
	}
	if params.Duration != 10*time.Minute {
		t.Errorf("Duration = %v, want 10m", params.Duration)
	}
	if strings.Join(params.Days, ",") != "mon,tue" {
		t.Errorf("Days = %v, want [mon tue]", params.Days)
	}
	if flagSet.Lookup("untagged") != nil {
		t.Error("untagged field was bound")
	}
}

func TestBindFlagsDefaults(t *testing.T) {
	var params struct {
		Protector string        `flag:"protector" default:"plea"`
		Quiet     bool          `flag:"quiet" default:"true"`
		Count     int           `flag:"count" default:"7"`
		Duration  time.Duration `flag:"duration" default:"1h"`
		Days      []string      `flag:"days" default:"sat,sun"`
	}

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&params, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if params.Protector != "plea" || !params.Quiet || params.Count != 7 || params.Duration != time.Hour {
		t.Errorf("params = %+v", params)
	}
	if strings.Join(params.Days, ",") != "sat,sun" {
		t.Errorf("Days = %v", params.Days)
	}
}

type socketFlag struct {
	Path string
}

func (s *socketFlag) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&s.Path, "socket", "/run/default.sock", "socket path")
}

func TestBindFlagsFlagBinder(t *testing.T) {
	var params struct {
		socketFlag
		JSONOutput
		Domain string `flag:"domain"`
	}

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&params, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--json", "--domain", "device"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !params.OutputJSON || params.Domain != "device" {
		t.Errorf("params = %+v", params)
	}
	// socketFlag is unexported, so it is bound by recursion rather
	// than AddFlags and contributes no flags.
	if flagSet.Lookup("socket") != nil {
		t.Error("unexported embedded FlagBinder registered flags")
	}
}

func TestBindFlagsExportedFlagBinder(t *testing.T) {
	var params struct {
		DaemonConnection
	}
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&params, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--socket", "/tmp/test.sock"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.SocketPath != "/tmp/test.sock" {
		t.Errorf("SocketPath = %q", params.SocketPath)
	}
}

func TestDaemonConnectionDefault(t *testing.T) {
	t.Setenv(SocketEnvironmentVariable, "/tmp/from-env.sock")
	var connection DaemonConnection
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	connection.AddFlags(flagSet)
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if connection.SocketPath != "/tmp/from-env.sock" {
		t.Errorf("SocketPath = %q, want the environment value", connection.SocketPath)
	}
}

func TestBindFlagsErrors(t *testing.T) {
	var notPointer struct{}
	if err := BindFlags(notPointer, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags accepted a non-pointer")
	}

	var unsupported struct {
		Ratio float32 `flag:"ratio"`
	}
	if err := BindFlags(&unsupported, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags accepted an unsupported type")
	}

	var badDefault struct {
		Count int `flag:"count" default:"many"`
	}
	if err := BindFlags(&badDefault, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags accepted an unparseable default")
	}
}
