// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package room

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDisabled is returned by providers that are not configured.
var ErrDisabled = errors.New("video room provider not configured")

// Room is a provisioned video room.
type Room struct {
	Ref       string
	URL       string
	ExpiresAt time.Time
}

// Provider talks to a video room service.
type Provider interface {
	Name() string
	CreateRoom(ctx context.Context, sessionID string, durationMinutes int) (*Room, error)
	DeleteRoom(ctx context.Context, ref string) error
	MeetingToken(ctx context.Context, ref, userName string, owner bool) (string, error)
}

// ProvisioningError reports a failed room creation. Booking treats it as a
// warning, never as a reason to reject the session.
type ProvisioningError struct {
	SessionID string
	Err       error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("room provisioning failed for session %s: %v", e.SessionID, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// Provisioning is the outcome of Adapter.Create. Exactly one of Room and Err is set.
type Provisioning struct {
	Room *Room
	Err  *ProvisioningError
}

// OK reports whether a room was created.
func (p Provisioning) OK() bool {
	return p.Room != nil
}
