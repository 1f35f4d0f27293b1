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

// CreateRating inserts r. The UNIQUE(session_id) constraint turns a second
// rating for the same session into ErrDuplicate, whichever request commits last.
func (db *DB) CreateRating(ctx context.Context, r *models.Rating) error {
	err := db.withRetry(ctx, func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO ratings (
			id, session_id, student_id, tutor_id, punctuality, friendliness, helpfulness,
			overall_rating, comment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.SessionID, r.StudentID, r.TutorID, r.Punctuality, r.Friendliness, r.Helpfulness,
			r.OverallRating, nullString(r.Comment), r.CreatedAt.UTC())
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert rating: %w", err)
	}
	return nil
}

// GetRatingBySession returns the session's rating or ErrNotFound.
func (db *DB) GetRatingBySession(ctx context.Context, sessionID string) (*models.Rating, error) {
	var (
		r       models.Rating
		comment sql.NullString
	)
	err := db.conn.QueryRowContext(ctx, `SELECT id, session_id, student_id, tutor_id, punctuality,
		friendliness, helpfulness, overall_rating, comment, created_at
		FROM ratings WHERE session_id = ?`, sessionID).Scan(
		&r.ID, &r.SessionID, &r.StudentID, &r.TutorID, &r.Punctuality,
		&r.Friendliness, &r.Helpfulness, &r.OverallRating, &comment, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	if comment.Valid {
		r.Comment = &comment.String
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
