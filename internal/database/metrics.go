// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/tutorhub/internal/models"
)

// TutorSessionHistory returns one fact per session the tutor has ever held,
// joined with its rating, ordered by start time.
func (db *DB) TutorSessionHistory(ctx context.Context, tutorID string) ([]models.TutorSessionFact, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.id, s.status, s.is_first_session, s.cancelled_by, s.cancelled_at, r.overall_rating
		FROM sessions s
		LEFT JOIN ratings r ON r.session_id = s.id
		WHERE s.tutor_id = ?
		ORDER BY s.start_time, s.id`, tutorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tutor history: %w", err)
	}
	defer closeWithLog(rows, "rows")

	facts := make([]models.TutorSessionFact, 0)
	for rows.Next() {
		var (
			f           models.TutorSessionFact
			status      string
			cancelledBy sql.NullString
			cancelledAt sql.NullTime
			overall     sql.NullFloat64
		)
		if err := rows.Scan(&f.SessionID, &status, &f.IsFirstSession, &cancelledBy, &cancelledAt, &overall); err != nil {
			return nil, fmt.Errorf("failed to scan tutor history: %w", err)
		}
		f.Status = models.SessionStatus(status)
		if cancelledBy.Valid {
			by := models.CancelledBy(cancelledBy.String)
			f.CancelledBy = &by
		}
		if cancelledAt.Valid {
			at := cancelledAt.Time.UTC()
			f.CancelledAt = &at
		}
		if overall.Valid {
			v := overall.Float64
			f.OverallRating = &v
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// UpsertTutorMetrics writes a complete metrics snapshot, replacing any previous one.
// Concurrent recomputes for the same tutor are last-write-wins.
func (db *DB) UpsertTutorMetrics(ctx context.Context, m *models.TutorMetrics) error {
	return db.withRetry(ctx, func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO tutor_metrics (
			tutor_id, total_sessions, completed_sessions, cancelled_sessions, cancellations_this_week,
			average_rating, first_session_count, first_session_low_rating_count, first_session_avg_rating,
			churn_risk_score, is_high_churn_risk, is_high_cancellation, last_calculated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tutor_id) DO UPDATE SET
			total_sessions = EXCLUDED.total_sessions,
			completed_sessions = EXCLUDED.completed_sessions,
			cancelled_sessions = EXCLUDED.cancelled_sessions,
			cancellations_this_week = EXCLUDED.cancellations_this_week,
			average_rating = EXCLUDED.average_rating,
			first_session_count = EXCLUDED.first_session_count,
			first_session_low_rating_count = EXCLUDED.first_session_low_rating_count,
			first_session_avg_rating = EXCLUDED.first_session_avg_rating,
			churn_risk_score = EXCLUDED.churn_risk_score,
			is_high_churn_risk = EXCLUDED.is_high_churn_risk,
			is_high_cancellation = EXCLUDED.is_high_cancellation,
			last_calculated_at = EXCLUDED.last_calculated_at`,
			m.TutorID, m.TotalSessions, m.CompletedSessions, m.CancelledSessions, m.CancellationsThisWeek,
			m.AverageRating, m.FirstSessionCount, m.FirstSessionLowRatingCount, m.FirstSessionAvgRating,
			m.ChurnRiskScore, m.IsHighChurnRisk, m.IsHighCancellation, m.LastCalculatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to upsert tutor metrics: %w", err)
		}
		return nil
	})
}

// GetTutorMetrics returns the stored snapshot or ErrNotFound.
func (db *DB) GetTutorMetrics(ctx context.Context, tutorID string) (*models.TutorMetrics, error) {
	var m models.TutorMetrics
	err := db.conn.QueryRowContext(ctx, `SELECT tutor_id, total_sessions, completed_sessions,
		cancelled_sessions, cancellations_this_week, average_rating, first_session_count,
		first_session_low_rating_count, first_session_avg_rating, churn_risk_score,
		is_high_churn_risk, is_high_cancellation, last_calculated_at
		FROM tutor_metrics WHERE tutor_id = ?`, tutorID).Scan(
		&m.TutorID, &m.TotalSessions, &m.CompletedSessions, &m.CancelledSessions, &m.CancellationsThisWeek,
		&m.AverageRating, &m.FirstSessionCount, &m.FirstSessionLowRatingCount, &m.FirstSessionAvgRating,
		&m.ChurnRiskScore, &m.IsHighChurnRisk, &m.IsHighCancellation, &m.LastCalculatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tutor metrics: %w", err)
	}
	m.LastCalculatedAt = m.LastCalculatedAt.UTC()
	return &m, nil
}
