// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package tutormetrics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/metrics"
	"github.com/tomtom215/tutorhub/internal/models"
)

// Store is the persistence the recalculator needs.
type Store interface {
	TutorSessionHistory(ctx context.Context, tutorID string) ([]models.TutorSessionFact, error)
	UpsertTutorMetrics(ctx context.Context, m *models.TutorMetrics) error
}

// Recalculator recomputes and stores tutor metrics on demand.
type Recalculator struct {
	store  Store
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Recalculator.
type Option func(*Recalculator)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recalculator) { r.now = now }
}

// NewRecalculator creates a Recalculator over store.
func NewRecalculator(store Store, opts ...Option) *Recalculator {
	r := &Recalculator{
		store:  store,
		now:    time.Now,
		logger: logging.WithComponent("tutormetrics"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recalculate scans every session the tutor has held, recomputes the metrics
// from scratch and upserts the result. It blocks until the snapshot is stored.
func (r *Recalculator) Recalculate(ctx context.Context, tutorID string) (*models.TutorMetrics, error) {
	start := time.Now()
	m, err := r.recalculate(ctx, tutorID)
	metrics.RecordMetricsRecompute(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	l := r.logger.Debug()
	if m.IsHighChurnRisk || m.IsHighCancellation {
		l = r.logger.Warn()
	}
	l.Str("tutor_id", tutorID).
		Int("total_sessions", m.TotalSessions).
		Float64("churn_risk_score", m.ChurnRiskScore).
		Bool("high_churn_risk", m.IsHighChurnRisk).
		Bool("high_cancellation", m.IsHighCancellation).
		Msg("Tutor metrics recalculated")
	return m, nil
}

func (r *Recalculator) recalculate(ctx context.Context, tutorID string) (*models.TutorMetrics, error) {
	facts, err := r.store.TutorSessionHistory(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}
	m := Compute(tutorID, facts, r.now())
	if err := r.store.UpsertTutorMetrics(ctx, &m); err != nil {
		return nil, fmt.Errorf("store metrics: %w", err)
	}
	return &m, nil
}
