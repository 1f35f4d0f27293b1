// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package textgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tutorhub/internal/breaker"
)

// ErrNotConfigured is returned when no provider is configured. It is a
// permanent failure.
var ErrNotConfigured = errors.New("text generation provider not configured")

// RateLimitError is a 429 from the provider.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// InvalidResponseError means the output did not parse or did not match the
// requested schema.
type InvalidResponseError struct {
	Content json.RawMessage
	Err     error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid provider response: %v", e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }

// UnavailableError is a transport failure or 5xx from the provider.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider unavailable: %v", e.Err)
	}
	return "provider unavailable"
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ConfigError is a rejected credential or unknown model. Retrying cannot help.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider misconfigured: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsRetryable reports whether a Generate error is transient: timeouts, rate
// limits, outages, an open circuit breaker and malformed output.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) {
		return false
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return false
	}

	var (
		rl  *RateLimitError
		inv *InvalidResponseError
		una *UnavailableError
	)
	switch {
	case errors.As(err, &rl), errors.As(err, &inv), errors.As(err, &una):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	case breaker.IsRejected(err):
		return true
	}
	return false
}

// classifyStatus maps an HTTP status from a provider SDK error.
func classifyStatus(status int, err error) error {
	switch {
	case status == 429:
		return &RateLimitError{Err: err}
	case status == 401 || status == 403 || status == 404:
		return &ConfigError{Err: err}
	case status >= 500:
		return &UnavailableError{Err: err}
	case status == 0 && errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &UnavailableError{Err: err}
}
