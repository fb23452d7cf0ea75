// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package conditional

// Always holds at every moment.
type Always struct{}

// Evaluate returns true.
func (Always) Evaluate() bool { return true }
