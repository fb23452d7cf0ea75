// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Discipline-daemon enforces the machine's self-imposed restrictions.
// It owns the rule database, keeps the monotonic clock that protector
// countdowns run on, and answers the control socket used by the
// discipline CLI and the PAM hook.
//
// Usage:
//
//	discipline-daemon --config /etc/discipline/discipline.yaml
//
// The daemon runs until SIGINT or SIGTERM. On shutdown it drains
// in-flight requests and writes the clock one last time.
package main
