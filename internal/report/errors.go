// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package report

import (
	"errors"
	"fmt"
)

// Job precondition failures. They are permanent.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionNotCompleted = errors.New("session is not completed")
)

// PermanentError marks a job failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func permanent(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err should fail the job without retrying.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// ParseError means the provider output could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse report response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
