// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"

	"github.com/discipline-project/discipline/lib/metrics"
)

func newMetricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	return mux
}
