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

// UpsertNote writes the tutor's note for a session, replacing earlier content.
func (db *DB) UpsertNote(ctx context.Context, n *models.SessionNote) error {
	return db.withRetry(ctx, func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO session_notes (session_id, tutor_id, content, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (session_id) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`,
			n.SessionID, n.TutorID, n.Content, n.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to upsert note: %w", err)
		}
		return nil
	})
}

// GetNote returns the session's note or ErrNotFound.
func (db *DB) GetNote(ctx context.Context, sessionID string) (*models.SessionNote, error) {
	var n models.SessionNote
	err := db.conn.QueryRowContext(ctx,
		`SELECT session_id, tutor_id, content, updated_at FROM session_notes WHERE session_id = ?`,
		sessionID).Scan(&n.SessionID, &n.TutorID, &n.Content, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	n.UpdatedAt = n.UpdatedAt.UTC()
	return &n, nil
}
