// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package textgen

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tutorhub/internal/breaker"
	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/metrics"
)

// Guarded wraps a Provider with a per-call timeout, a circuit breaker and
// request metrics.
type Guarded struct {
	inner   Provider
	breaker *breaker.Breaker
	timeout time.Duration
	logger  zerolog.Logger
}

// NewGuarded wraps inner. A zero timeout leaves the caller's deadline alone.
func NewGuarded(inner Provider, timeout time.Duration) *Guarded {
	cfg := breaker.DefaultConfig("textgen-" + inner.Name())
	// Bad output and bad credentials are not upstream health problems.
	cfg.IsSuccessful = func(err error) bool {
		var inv *InvalidResponseError
		var cfgErr *ConfigError
		return err == nil || errors.As(err, &inv) || errors.As(err, &cfgErr)
	}
	return &Guarded{
		inner:   inner,
		breaker: breaker.New(cfg),
		timeout: timeout,
		logger:  logging.WithComponent("textgen"),
	}
}

func (g *Guarded) Name() string  { return g.inner.Name() }
func (g *Guarded) Model() string { return g.inner.Model() }

// Generate implements Provider.
func (g *Guarded) Generate(ctx context.Context, req Request) (*Response, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := breaker.Execute(g.breaker, func() (*Response, error) {
		return g.inner.Generate(ctx, req)
	})
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordTextGen(g.inner.Name(), resultLabel(err), elapsed)
		g.logger.Warn().Err(err).
			Str("model", g.inner.Model()).
			Bool("retryable", IsRetryable(err)).
			Dur("duration", elapsed).
			Msg("Text generation failed")
		return nil, err
	}

	metrics.RecordTextGen(g.inner.Name(), "success", elapsed)
	g.logger.Debug().
		Str("model", resp.Model).
		Int("input_tokens", resp.Usage.InputTokens).
		Int("output_tokens", resp.Usage.OutputTokens).
		Dur("duration", elapsed).
		Msg("Text generation completed")
	return resp, nil
}

func resultLabel(err error) string {
	var (
		rl  *RateLimitError
		inv *InvalidResponseError
		cfg *ConfigError
	)
	switch {
	case breaker.IsRejected(err):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.As(err, &inv):
		return "invalid"
	case errors.As(err, &cfg), errors.Is(err, ErrNotConfigured):
		return "misconfigured"
	}
	return "error"
}
