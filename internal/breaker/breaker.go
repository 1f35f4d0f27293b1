// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

// Package breaker wraps sony/gobreaker with the logging and Prometheus
// bookkeeping shared by every outbound provider client.
package breaker

import (
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/metrics"
)

// Config tunes one breaker.
type Config struct {
	Name string

	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32
	// Interval resets the closed-state counts.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// The breaker opens once at least MinRequests were seen in the interval
	// and the failure ratio reached FailureRatio.
	MinRequests  uint32
	FailureRatio float64

	// IsSuccessful classifies errors that should not count against the
	// upstream, such as a 404 on delete. Nil counts every error as failure.
	IsSuccessful func(err error) bool
}

// DefaultConfig returns settings suitable for a remote HTTP API.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// Breaker is a named circuit breaker.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// New creates a breaker and initialises its state gauge to closed.
func New(cfg Config) *Breaker {
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logging.Warn().Str("breaker", cfg.Name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	}
	if cfg.IsSuccessful != nil {
		settings.IsSuccessful = cfg.IsSuccessful
	}

	return &Breaker{
		cb:   gobreaker.NewCircuitBreaker[any](settings),
		name: cfg.Name,
	}
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns closed, half-open or open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Execute runs fn through the breaker.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if IsRejected(err) {
			metrics.RecordCircuitBreakerRequest(b.name, "rejected")
		} else {
			metrics.RecordCircuitBreakerRequest(b.name, "failure")
		}
		return zero, err
	}
	metrics.RecordCircuitBreakerRequest(b.name, "success")

	typed, ok := result.(T)
	if !ok && result != nil {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// IsRejected reports whether err came from the breaker itself rather than
// from the wrapped call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
