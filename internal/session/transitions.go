// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package session

import "github.com/tomtom215/tutorhub/internal/models"

// Event is a lifecycle trigger requested by a session participant.
type Event string

const (
	EvGoLive   Event = "go_live"
	EvComplete Event = "complete"
	EvCancel   Event = "cancel"
)

// Transition is a single allowed edge in the session state machine, with the
// side effects that run after it commits.
type Transition struct {
	From  models.SessionStatus
	To    models.SessionStatus
	Event Event

	// TeardownRoom destroys the session's video room, best-effort.
	TeardownRoom bool
	// RecalcOnTutorCancel recomputes tutor metrics when the tutor cancelled.
	RecalcOnTutorCancel bool
}

// Creation always lands in SCHEDULED and is not an edge of the table.
// COMPLETED and CANCELLED have no outgoing edges. Completion leaves the room
// to expire on its own.
var transitionsTable = []Transition{
	{From: models.StatusScheduled, To: models.StatusLive, Event: EvGoLive},

	{From: models.StatusScheduled, To: models.StatusCompleted, Event: EvComplete},
	{From: models.StatusLive, To: models.StatusCompleted, Event: EvComplete},

	{From: models.StatusScheduled, To: models.StatusCancelled, Event: EvCancel, TeardownRoom: true, RecalcOnTutorCancel: true},
	{From: models.StatusLive, To: models.StatusCancelled, Event: EvCancel, TeardownRoom: true, RecalcOnTutorCancel: true},
}

// TransitionFor returns the allowed transition for a given state and event.
func TransitionFor(from models.SessionStatus, ev Event) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// TransitionTo returns the allowed transition from one status to another.
func TransitionTo(from, to models.SessionStatus) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.To == to {
			return tr, true
		}
	}
	return Transition{}, false
}
