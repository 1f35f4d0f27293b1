// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// querier is satisfied by *sql.DB and *sql.Tx so the conflict check can run
// inside the booking transaction or standalone.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. This single comparison covers a new interval that
// starts inside, ends inside, or contains an existing one.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// slotConflictQuery mirrors Overlaps in SQL. Only SCHEDULED and LIVE sessions
// occupy a slot.
const slotConflictQuery = `
SELECT EXISTS (
	SELECT 1 FROM sessions
	WHERE tutor_id = ?
	  AND status IN ('SCHEDULED', 'LIVE')
	  AND start_time < ?
	  AND end_time > ?
	  AND (? = '' OR id <> ?)
)`

// slotConflict reports whether tutorID holds an occupying session overlapping
// [start, end), ignoring excludeSessionID when non-empty.
func slotConflict(ctx context.Context, q querier, tutorID string, start, end time.Time, excludeSessionID string) (bool, error) {
	var conflict bool
	err := q.QueryRowContext(ctx, slotConflictQuery,
		tutorID, end.UTC(), start.UTC(), excludeSessionID, excludeSessionID).Scan(&conflict)
	if err != nil {
		return false, fmt.Errorf("failed to check slot conflict: %w", err)
	}
	return conflict, nil
}
