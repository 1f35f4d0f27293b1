// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/tomtom215/tutorhub/internal/logging"
)

var (
	// ErrNotFound is returned when a single-row lookup matches nothing.
	ErrNotFound = errors.New("record not found")

	// ErrSlotConflict means the tutor already holds an overlapping SCHEDULED or LIVE session.
	ErrSlotConflict = errors.New("time slot already booked")

	// ErrDuplicate means a unique key (rating per session, user external id) already exists.
	ErrDuplicate = errors.New("record already exists")

	// ErrStaleState means a conditional status update found the row in a different state.
	ErrStaleState = errors.New("session status changed concurrently")
)

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where Close errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isTransactionConflict checks if an error is a DuckDB optimistic-concurrency conflict.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update") ||
		strings.Contains(errStr, "cannot update a table that has been altered")
}

// isUniqueViolation checks if an error is a primary key or unique constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Duplicate key") ||
		strings.Contains(errStr, "violates primary key constraint") ||
		strings.Contains(errStr, "violates unique constraint")
}
