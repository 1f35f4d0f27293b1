// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package room

import "context"

// Disabled is the provider used when no room service is configured. Sessions
// are still booked; they simply have no room.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) CreateRoom(context.Context, string, int) (*Room, error) {
	return nil, ErrDisabled
}

func (Disabled) DeleteRoom(context.Context, string) error {
	return nil
}

func (Disabled) MeetingToken(context.Context, string, string, bool) (string, error) {
	return "", ErrDisabled
}
