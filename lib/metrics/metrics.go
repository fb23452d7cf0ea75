// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"net/http"
	"time"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/protocol"
	"github.com/discipline-project/discipline/lib/regulation"
	"github.com/discipline-project/discipline/lib/rule"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sources are read at scrape time.
type Sources struct {
	Stats func() regulation.Stats
	Now   func() chronic.Instant
}

// Metrics holds the daemon's collectors on a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Procedures counts completed procedures by outcome: "ok" or the
	// wire error code.
	Procedures *prometheus.CounterVec

	// RequestDuration times socket actions.
	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors. Gauges call sources on every scrape.
func New(sources Sources) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		Procedures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "discipline_procedure_total",
			Help: "Completed procedures by name and outcome",
		}, []string{"procedure", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "discipline_request_duration_seconds",
			Help:    "Time to answer a control socket request, by action",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"action"}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "discipline_users",
		Help: "Registered users",
	}, func() float64 {
		return float64(sources.Stats().Users)
	})

	for _, domain := range rule.Domains {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "discipline_rules",
			Help:        "Rules held across all users, by domain",
			ConstLabels: prometheus.Labels{"domain": domain.String()},
		}, func() float64 {
			return float64(sources.Stats().RulesPerDomain[domain])
		})
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "discipline_monotonic_ticks",
		Help: "Daemon monotonic clock reading in milliseconds",
	}, func() float64 {
		return float64(sources.Now())
	})

	return m
}

// ObserveProcedure counts one finished procedure.
func (m *Metrics) ObserveProcedure(procedure string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = protocol.CodeOf(err)
	}
	m.Procedures.WithLabelValues(procedure, outcome).Inc()
}

// ObserveRequest records how long an action took to answer.
func (m *Metrics) ObserveRequest(action string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
