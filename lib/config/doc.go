// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the daemon's YAML configuration.
//
// The file is named by the --config flag or the DISCIPLINE_CONFIG
// environment variable. There is no discovery and no fallback file:
// what the daemon runs with is exactly Default overlaid with that one
// file. Unknown keys are rejected so a misspelled limit cannot silently
// fall back to its default.
//
//	paths:
//	  state_dir: /var/lib/discipline
//	socket:
//	  path: /run/discipline/daemon.sock
//	  allowed_uids: [1000]
//	limits:
//	  max_users: 16
//	  max_rules_per_group: 64
//	  max_rules_total: 1024
//	clock:
//	  sync_interval: 5s
//	  persist_interval: 1m
//	  timezone: Local
//	metrics:
//	  listen: 127.0.0.1:9464
//	log:
//	  level: info
package config
