// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package room

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/metrics"
)

// DefaultTimeout bounds each provider call.
const DefaultTimeout = 10 * time.Second

// Adapter applies the room lifecycle contract on top of a Provider: every
// call is time-bounded, creation failures come back as a value, and
// destruction never fails.
type Adapter struct {
	provider Provider
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewAdapter wraps provider. A non-positive timeout uses DefaultTimeout.
func NewAdapter(provider Provider, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{
		provider: provider,
		timeout:  timeout,
		logger:   logging.WithComponent("room").With().Str("provider", provider.Name()).Logger(),
	}
}

// Enabled reports whether rooms can be created at all.
func (a *Adapter) Enabled() bool {
	_, disabled := a.provider.(Disabled)
	return !disabled
}

// Create provisions a room for the session. It never returns an error; a
// failure is carried in Provisioning.Err.
func (a *Adapter) Create(ctx context.Context, sessionID string, durationMinutes int) Provisioning {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	r, err := a.provider.CreateRoom(ctx, sessionID, durationMinutes)
	metrics.RecordRoomOperation("create", err)
	if err == nil && r == nil {
		err = errors.New("provider returned no room")
	}
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			a.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Room creation failed, continuing without room")
		}
		return Provisioning{Err: &ProvisioningError{SessionID: sessionID, Err: err}}
	}

	a.logger.Info().Str("session_id", sessionID).Str("room", r.Ref).Time("expires_at", r.ExpiresAt).Msg("Created video room")
	return Provisioning{Room: r}
}

// Destroy deletes a room, logging and swallowing any failure. Rooms expire
// on their own.
func (a *Adapter) Destroy(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	// Detached so a request that already returned does not cancel the cleanup.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	err := a.provider.DeleteRoom(ctx, ref)
	metrics.RecordRoomOperation("destroy", err)
	if err != nil && !errors.Is(err, ErrDisabled) {
		a.logger.Warn().Err(err).Str("room", ref).Msg("Could not delete video room")
		return
	}
	if err == nil {
		a.logger.Debug().Str("room", ref).Msg("Deleted video room")
	}
}

// JoinToken mints a participant token for an existing room. Unlike Create
// and Destroy, failures are returned to the caller.
func (a *Adapter) JoinToken(ctx context.Context, ref, userName string, owner bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	token, err := a.provider.MeetingToken(ctx, ref, userName, owner)
	metrics.RecordRoomOperation("token", err)
	return token, err
}
