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
	"strings"
	"time"

	"github.com/tomtom215/tutorhub/internal/metrics"
	"github.com/tomtom215/tutorhub/internal/models"
)

const sessionColumns = `id, student_id, tutor_id, start_time, end_time, duration, status, is_first_session,
	room_ref, room_url, cancelled_by, cancelled_at, cancellation_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s                  models.Session
		status             string
		roomRef, roomURL   sql.NullString
		cancelledBy        sql.NullString
		cancellationReason sql.NullString
		cancelledAt        sql.NullTime
	)
	err := row.Scan(&s.ID, &s.StudentID, &s.TutorID, &s.StartTime, &s.EndTime, &s.Duration, &status,
		&s.IsFirstSession, &roomRef, &roomURL, &cancelledBy, &cancelledAt, &cancellationReason,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = models.SessionStatus(status)
	if roomRef.Valid {
		s.RoomRef = &roomRef.String
	}
	if roomURL.Valid {
		s.RoomURL = &roomURL.String
	}
	if cancelledBy.Valid {
		by := models.CancelledBy(cancelledBy.String)
		s.CancelledBy = &by
	}
	if cancelledAt.Valid {
		at := cancelledAt.Time.UTC()
		s.CancelledAt = &at
	}
	if cancellationReason.Valid {
		s.CancellationReason = &cancellationReason.String
	}
	s.StartTime = s.StartTime.UTC()
	s.EndTime = s.EndTime.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

// BookSession atomically checks the tutor's slot, computes IsFirstSession and
// inserts s. The tutor's booking_version row is bumped first so that two
// transactions booking the same tutor conflict at commit even when they run
// on different connections; the loser is retried and then sees the winner's
// row. Returns ErrSlotConflict when the interval is taken.
func (db *DB) BookSession(ctx context.Context, s *models.Session) (err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrSlotConflict) || errors.Is(err, ErrNotFound) {
			metrics.RecordDBQuery("book_session", time.Since(start), nil)
			return
		}
		metrics.RecordDBQuery("book_session", time.Since(start), err)
	}()

	unlock := db.lockTutor(s.TutorID)
	defer unlock()

	return db.withRetry(ctx, func(ctx context.Context) error {
		return db.inTx(ctx, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx,
				`UPDATE users SET booking_version = booking_version + 1 WHERE id = ?`, s.TutorID)
			if err != nil {
				return fmt.Errorf("failed to lock tutor: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return ErrNotFound
			}

			conflict, err := slotConflict(ctx, tx, s.TutorID, s.StartTime, s.EndTime, "")
			if err != nil {
				return err
			}
			if conflict {
				return ErrSlotConflict
			}

			var prior int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM sessions WHERE student_id = ? AND tutor_id = ?`,
				s.StudentID, s.TutorID).Scan(&prior); err != nil {
				return fmt.Errorf("failed to count prior sessions: %w", err)
			}
			s.IsFirstSession = prior == 0

			_, err = tx.ExecContext(ctx, `INSERT INTO sessions (
				id, student_id, tutor_id, start_time, end_time, duration, status, is_first_session,
				room_ref, room_url, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				s.ID, s.StudentID, s.TutorID, s.StartTime.UTC(), s.EndTime.UTC(), s.Duration,
				string(s.Status), s.IsFirstSession, nullString(s.RoomRef), nullString(s.RoomURL),
				s.CreatedAt.UTC(), s.UpdatedAt.UTC())
			if err != nil {
				return fmt.Errorf("failed to insert session: %w", err)
			}
			return nil
		})
	})
}

// GetSession returns one session or ErrNotFound.
func (db *DB) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// SessionQuery scopes ListSessions. Empty StudentID and TutorID list every session.
type SessionQuery struct {
	StudentID string
	TutorID   string
	Status    models.SessionStatus
	Upcoming  bool
	Now       time.Time
	Limit     int
	Offset    int
}

// ListSessions returns sessions ordered by start time, newest first.
func (db *DB) ListSessions(ctx context.Context, q SessionQuery) ([]models.Session, error) {
	var (
		where []string
		args  []any
	)
	if q.StudentID != "" {
		where = append(where, "student_id = ?")
		args = append(args, q.StudentID)
	}
	if q.TutorID != "" {
		where = append(where, "tutor_id = ?")
		args = append(args, q.TutorID)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.Upcoming {
		where = append(where, "start_time >= ?", "status IN ('SCHEDULED', 'LIVE')")
		args = append(args, q.Now.UTC())
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_time DESC, id LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer closeWithLog(rows, "rows")

	sessions := make([]models.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// UpdateSessionStatus moves a session to status `to` only if it is currently
// in one of `from`. ErrStaleState is returned when the row was not in an
// allowed state, which makes concurrent transitions safe.
func (db *DB) UpdateSessionStatus(ctx context.Context, id string, from []models.SessionStatus, to models.SessionStatus, now time.Time) error {
	in, inArgs := statusList(from)
	args := append([]any{string(to), now.UTC(), id}, inArgs...)
	return db.withRetry(ctx, func(ctx context.Context) error {
		res, err := db.conn.ExecContext(ctx,
			`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ? AND status IN (`+in+`)`, args...)
		if err != nil {
			return fmt.Errorf("failed to update session status: %w", err)
		}
		return requireOneRow(res)
	})
}

// Cancellation carries the bookkeeping written with a CANCELLED status.
type Cancellation struct {
	By     models.CancelledBy
	At     time.Time
	Reason *string
}

// CancelSession marks a SCHEDULED or LIVE session cancelled, writing the
// cancellation fields in the same statement.
func (db *DB) CancelSession(ctx context.Context, id string, c Cancellation) error {
	return db.withRetry(ctx, func(ctx context.Context) error {
		res, err := db.conn.ExecContext(ctx, `UPDATE sessions
			SET status = 'CANCELLED', cancelled_by = ?, cancelled_at = ?, cancellation_reason = ?, updated_at = ?
			WHERE id = ? AND status IN ('SCHEDULED', 'LIVE')`,
			string(c.By), c.At.UTC(), nullString(c.Reason), c.At.UTC(), id)
		if err != nil {
			return fmt.Errorf("failed to cancel session: %w", err)
		}
		return requireOneRow(res)
	})
}

// SetSessionRoom records the external room on a session.
func (db *DB) SetSessionRoom(ctx context.Context, id, roomRef, roomURL string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE sessions SET room_ref = ?, room_url = ?, updated_at = ? WHERE id = ?`,
		roomRef, roomURL, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set session room: %w", err)
	}
	return nil
}

func statusList(statuses []models.SessionStatus) (string, []any) {
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	return strings.Join(placeholders, ", "), args
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrStaleState
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
