// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package session owns the tutoring session lifecycle.

A Manager books sessions, moves them through the state machine and enforces
who may read or change them:

	SCHEDULED ──go_live──> LIVE
	    │                   │
	    ├──complete──> COMPLETED <──complete──┤
	    │                                     │
	    └──cancel───> CANCELLED <───cancel────┘

COMPLETED and CANCELLED are terminal. The edges live in a single table
(transitions.go) together with their side effects: cancelling tears the video
room down and, when the tutor cancelled, recomputes the tutor's metrics.
Completion leaves the room to expire on its own.

Booking runs the slot check and the insert inside one store transaction.
Room provisioning happens afterwards and never fails a booking; the caller
receives RoomWarning instead.

Every operation runs synchronously in the caller's request, including the
metrics recompute after a rating or a tutor cancellation. A failed recompute
is logged; the triggering write stays committed.
*/
package session
