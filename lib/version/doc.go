// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information injected at link time:
//
//	go build -ldflags "-X github.com/discipline-project/discipline/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
