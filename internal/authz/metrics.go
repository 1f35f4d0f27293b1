// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/tutorhub/internal/models"
)

var (
	// DecisionsTotal counts authorization decisions by role, object, action and outcome.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorhub_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "object", "action", "decision"},
	)

	// DecisionDuration tracks enforcement latency.
	DecisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tutorhub_authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)

	// PolicyRules is the number of loaded policy rules.
	PolicyRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tutorhub_authz_policy_rules",
			Help: "Number of loaded authorization policy rules",
		},
	)
)

func recordDecision(role models.Role, object, action string, allowed bool, d time.Duration) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	DecisionsTotal.WithLabelValues(string(role), object, action, decision).Inc()
	DecisionDuration.Observe(d.Seconds())
}
