// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
schema.go - Database Schema

Tables:
  - users: marketplace accounts keyed by external identity; booking_version is
    the per-tutor lock row bumped inside every booking transaction
  - sessions: booked engagements, never deleted
  - ratings: one per session (UNIQUE session_id)
  - tutor_metrics: derived aggregate, upserted on recompute
  - chat_messages: persisted transcript read by report generation
  - session_notes: one tutor note per session
  - session_reports: one generated report per session (UNIQUE session_id)

Timestamps are stored as UTC TIMESTAMP so the ICU extension is not needed.
Foreign keys are omitted: DuckDB rejects updates to referenced parent rows,
which would block the booking_version lock-row write.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

var tableStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('STUDENT', 'TUTOR', 'ADMIN')),
		booking_version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		tutor_id TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		duration INTEGER NOT NULL CHECK (duration IN (15, 30, 45, 60)),
		status TEXT NOT NULL CHECK (status IN ('SCHEDULED', 'LIVE', 'COMPLETED', 'CANCELLED')),
		is_first_session BOOLEAN NOT NULL,
		room_ref TEXT,
		room_url TEXT,
		cancelled_by TEXT CHECK (cancelled_by IN ('STUDENT', 'TUTOR')),
		cancelled_at TIMESTAMP,
		cancellation_reason TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CHECK (end_time > start_time),
		CHECK ((status = 'CANCELLED') = (cancelled_by IS NOT NULL AND cancelled_at IS NOT NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL UNIQUE,
		student_id TEXT NOT NULL,
		tutor_id TEXT NOT NULL,
		punctuality INTEGER NOT NULL CHECK (punctuality BETWEEN 1 AND 5),
		friendliness INTEGER NOT NULL CHECK (friendliness BETWEEN 1 AND 5),
		helpfulness INTEGER NOT NULL CHECK (helpfulness BETWEEN 1 AND 5),
		overall_rating DOUBLE NOT NULL,
		comment TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tutor_metrics (
		tutor_id TEXT PRIMARY KEY,
		total_sessions INTEGER NOT NULL,
		completed_sessions INTEGER NOT NULL,
		cancelled_sessions INTEGER NOT NULL,
		cancellations_this_week INTEGER NOT NULL,
		average_rating DOUBLE NOT NULL,
		first_session_count INTEGER NOT NULL,
		first_session_low_rating_count INTEGER NOT NULL,
		first_session_avg_rating DOUBLE NOT NULL,
		churn_risk_score DOUBLE NOT NULL,
		is_high_churn_risk BOOLEAN NOT NULL,
		is_high_cancellation BOOLEAN NOT NULL,
		last_calculated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		sender_id TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_notes (
		session_id TEXT PRIMARY KEY,
		tutor_id TEXT NOT NULL,
		content TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_reports (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL UNIQUE,
		tutor_id TEXT NOT NULL,
		report_data TEXT NOT NULL,
		generated_at TIMESTAMP NOT NULL
	)`,
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_sessions_tutor ON sessions(tutor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_student ON sessions(student_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_tutor ON session_reports(tutor_id)`,
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range tableStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, stmt := range indexStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
