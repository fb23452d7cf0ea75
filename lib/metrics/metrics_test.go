// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/regulation"
	"github.com/discipline-project/discipline/lib/rule"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(recorder.Result().Body)
	if err != nil {
		t.Fatalf("reading scrape: %v", err)
	}
	return string(body)
}

func TestGaugesReadSourcesAtScrape(t *testing.T) {
	stats := regulation.Stats{
		Users:          2,
		RulesPerDomain: map[rule.Domain]int{rule.Device: 3, rule.Account: 1, rule.Internet: 0},
	}
	now := chronic.Instant(42_000)
	m := New(Sources{
		Stats: func() regulation.Stats { return stats },
		Now:   func() chronic.Instant { return now },
	})

	body := scrape(t, m)
	for _, want := range []string{
		"discipline_users 2",
		`discipline_rules{domain="device"} 3`,
		`discipline_rules{domain="account"} 1`,
		`discipline_rules{domain="internet"} 0`,
		"discipline_monotonic_ticks 42000",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape lacks %q", want)
		}
	}

	stats.Users = 5
	now = 43_000
	body = scrape(t, m)
	if !strings.Contains(body, "discipline_users 5") || !strings.Contains(body, "discipline_monotonic_ticks 43000") {
		t.Error("gauges did not follow their sources")
	}
}

func TestObserveProcedureLabelsOutcome(t *testing.T) {
	m := New(Sources{
		Stats: func() regulation.Stats { return regulation.Stats{} },
		Now:   func() chronic.Instant { return 1 },
	})

	m.ObserveProcedure("add_rule", nil)
	m.ObserveProcedure("add_rule", nil)
	m.ObserveProcedure("add_rule", rule.ErrTooManyRulesInGroup)
	m.ObserveProcedure("delete_rule", &rule.InternalError{Op: "delete rule", Err: errors.New("io")})

	checks := []struct {
		procedure, outcome string
		want               float64
	}{
		{"add_rule", "ok", 2},
		{"add_rule", "too_many_rules_in_group", 1},
		{"delete_rule", "internal_error", 1},
	}
	for _, check := range checks {
		got := testutil.ToFloat64(m.Procedures.WithLabelValues(check.procedure, check.outcome))
		if got != check.want {
			t.Errorf("procedure_total{%s,%s} = %v, want %v", check.procedure, check.outcome, got, check.want)
		}
	}

	m.ObserveRequest("status", 3*time.Millisecond)
	if count := testutil.CollectAndCount(m.RequestDuration); count != 1 {
		t.Errorf("request duration series = %d, want 1", count)
	}
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.ObserveProcedure("add_rule", nil)
	m.ObserveRequest("status", time.Millisecond)
}
