// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helper the binaries call from
// main once run has returned, when the structured logger may not
// exist.
package process
