// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes daemon counters and gauges to Prometheus.
// The daemon serves [Metrics.Handler] on /metrics when metrics.listen
// is configured.
package metrics
