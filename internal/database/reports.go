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

	"github.com/goccy/go-json"

	"github.com/tomtom215/tutorhub/internal/models"
)

// InsertReportOnce stores r unless the session already has a report. It
// returns the stored report and whether this call created it, so a retried or
// duplicated generation job converges on the first report written.
func (db *DB) InsertReportOnce(ctx context.Context, r *models.SessionReport) (*models.SessionReport, bool, error) {
	data, err := json.Marshal(r.ReportData)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode report data: %w", err)
	}

	var created bool
	err = db.withRetry(ctx, func(ctx context.Context) error {
		res, err := db.conn.ExecContext(ctx, `INSERT INTO session_reports
			(id, session_id, tutor_id, report_data, generated_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (session_id) DO NOTHING`,
			r.ID, r.SessionID, r.TutorID, string(data), r.GeneratedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert report: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		created = n > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	stored, err := db.GetReportBySession(ctx, r.SessionID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// GetReportBySession returns the session's report or ErrNotFound.
func (db *DB) GetReportBySession(ctx context.Context, sessionID string) (*models.SessionReport, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT id, session_id, tutor_id, report_data, generated_at
		FROM session_reports WHERE session_id = ?`, sessionID)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return r, nil
}

// ListReportsByTutor returns a tutor's reports, most recent first.
func (db *DB) ListReportsByTutor(ctx context.Context, tutorID string, limit, offset int) ([]models.SessionReport, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, session_id, tutor_id, report_data, generated_at
		FROM session_reports WHERE tutor_id = ?
		ORDER BY generated_at DESC, id LIMIT ? OFFSET ?`, tutorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer closeWithLog(rows, "rows")

	reports := make([]models.SessionReport, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// ReportExists reports whether the session already has a stored report.
func (db *DB) ReportExists(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM session_reports WHERE session_id = ?)`, sessionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check report: %w", err)
	}
	return exists, nil
}

func scanReport(row rowScanner) (*models.SessionReport, error) {
	var (
		r    models.SessionReport
		data string
	)
	if err := row.Scan(&r.ID, &r.SessionID, &r.TutorID, &data, &r.GeneratedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &r.ReportData); err != nil {
		return nil, fmt.Errorf("failed to decode report data: %w", err)
	}
	r.GeneratedAt = r.GeneratedAt.UTC()
	return &r, nil
}
