// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "DISCIPLINE_CONFIG"

// Config is the daemon configuration.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Socket  SocketConfig  `yaml:"socket"`
	Limits  LimitsConfig  `yaml:"limits"`
	Clock   ClockConfig   `yaml:"clock"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// PathsConfig locates persistent state.
type PathsConfig struct {
	// StateDir holds the database. Created on startup if missing.
	StateDir string `yaml:"state_dir"`

	// Database is the SQLite file. Empty means
	// ${STATE_DIR}/discipline.db.
	Database string `yaml:"database"`
}

// SocketConfig configures the control socket.
type SocketConfig struct {
	Path string `yaml:"path"`

	// AllowedUIDs may call mutating actions in addition to root. Empty
	// lets any local user call them.
	AllowedUIDs []uint32 `yaml:"allowed_uids"`
}

// LimitsConfig bounds the registry.
type LimitsConfig struct {
	MaxUsers         int `yaml:"max_users"`
	MaxRulesPerGroup int `yaml:"max_rules_per_group"`
	MaxRulesTotal    int `yaml:"max_rules_total"`
}

// ClockConfig configures the daemon's monotonic clock.
type ClockConfig struct {
	// SyncInterval is how often elapsed time is folded into the clock.
	SyncInterval time.Duration `yaml:"sync_interval"`

	// PersistInterval is how often the clock is written to the
	// database. Time since the last write is lost on a crash.
	PersistInterval time.Duration `yaml:"persist_interval"`

	// Timezone evaluates time windows. "Local" uses the system zone.
	Timezone string `yaml:"timezone"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is a TCP address such as "127.0.0.1:9464". Empty
	// disables the endpoint.
	Listen string `yaml:"listen"`
}

// LogConfig configures the daemon logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
}

// Default returns a configuration that works for a system install.
// Load starts from it, so a config file need only name what differs.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			StateDir: "/var/lib/discipline",
		},
		Socket: SocketConfig{
			Path: "/run/discipline/daemon.sock",
		},
		Limits: LimitsConfig{
			MaxUsers:         16,
			MaxRulesPerGroup: 64,
			MaxRulesTotal:    1024,
		},
		Clock: ClockConfig{
			SyncInterval:    5 * time.Second,
			PersistInterval: time.Minute,
			Timezone:        "Local",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the file named by DISCIPLINE_CONFIG. There is no search
// path: an unset variable is an error.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of discipline.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile reads path over Default, expands ${STATE_DIR}, ${HOME} and
// other ${VAR} references in paths, and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Paths.StateDir = expandVars(c.Paths.StateDir, vars)
	vars["STATE_DIR"] = c.Paths.StateDir

	if c.Paths.Database == "" {
		c.Paths.Database = filepath.Join(c.Paths.StateDir, "discipline.db")
	}
	c.Paths.Database = expandVars(c.Paths.Database, vars)
	c.Socket.Path = expandVars(c.Socket.Path, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.StateDir == "" {
		errs = append(errs, errors.New("paths.state_dir is required"))
	}
	if c.Socket.Path == "" {
		errs = append(errs, errors.New("socket.path is required"))
	}
	if c.Limits.MaxUsers <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_users must be positive, got %d", c.Limits.MaxUsers))
	}
	if c.Limits.MaxRulesPerGroup <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_rules_per_group must be positive, got %d", c.Limits.MaxRulesPerGroup))
	}
	if c.Limits.MaxRulesTotal <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_rules_total must be positive, got %d", c.Limits.MaxRulesTotal))
	}
	if c.Clock.SyncInterval <= 0 {
		errs = append(errs, fmt.Errorf("clock.sync_interval must be positive, got %s", c.Clock.SyncInterval))
	}
	if c.Clock.PersistInterval < c.Clock.SyncInterval {
		errs = append(errs, fmt.Errorf("clock.persist_interval (%s) must not be shorter than clock.sync_interval (%s)",
			c.Clock.PersistInterval, c.Clock.SyncInterval))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("clock.timezone: %w", err))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves Clock.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Clock.Timezone == "" || c.Clock.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Clock.Timezone)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
}

// IsAllowed reports whether uid may call mutating actions.
func (c *Config) IsAllowed(uid uint32) bool {
	return uid == 0 || len(c.Socket.AllowedUIDs) == 0 || slices.Contains(c.Socket.AllowedUIDs, uid)
}

// EnsurePaths creates the state directory and the socket's directory.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.StateDir, filepath.Dir(c.Paths.Database), filepath.Dir(c.Socket.Path)} {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("config: creating %s: %w", path, err)
		}
	}
	return nil
}
