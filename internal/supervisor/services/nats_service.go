// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/tutorhub/internal/logging"
)

// defaultHealthInterval is how often the broker is checked for an
// unexpected exit.
const defaultHealthInterval = time.Second

// EmbeddedBroker is an in-process broker already started by the caller.
type EmbeddedBroker interface {
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// NATSServerService ties the embedded broker's lifetime to the data layer.
// The broker is started before the queue connects, so the service only
// watches it and shuts it down.
type NATSServerService struct {
	broker          EmbeddedBroker
	shutdownTimeout time.Duration
	healthInterval  time.Duration
	name            string
}

// NewNATSServerService wraps broker. A non-positive timeout uses
// DefaultShutdownTimeout.
func NewNATSServerService(broker EmbeddedBroker, shutdownTimeout time.Duration) *NATSServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &NATSServerService{
		broker:          broker,
		shutdownTimeout: shutdownTimeout,
		healthInterval:  defaultHealthInterval,
		name:            "nats-server",
	}
}

// Serve blocks until ctx is canceled, then shuts the broker down. A broker
// that stops on its own cannot be restarted in place, so the service asks
// suture not to retry.
func (s *NATSServerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.broker.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("nats server shutdown failed: %w", err)
			}
			return ctx.Err()

		case <-ticker.C:
			if !s.broker.IsRunning() {
				logging.Error().Msg("Embedded NATS server stopped unexpectedly")
				return suture.ErrDoNotRestart
			}
		}
	}
}

func (s *NATSServerService) String() string {
	return s.name
}
