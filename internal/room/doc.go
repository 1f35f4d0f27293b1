// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package room manages the external video rooms attached to tutoring sessions.

A Provider is a thin client for one room service (DailyClient, or Disabled
when none is configured). The Adapter enforces the lifecycle contract the
session manager relies on:

  - Create returns a Provisioning value instead of an error. A failed
    provisioning never blocks a booking; the caller surfaces a warning.
  - Destroy is best-effort. Failures are logged and dropped because rooms
    expire on their own at session end plus DefaultExpiryBuffer.
  - Every call is bounded by the adapter timeout (10s by default).

Provider HTTP calls run through a circuit breaker so a failing room service
stops adding latency to bookings.
*/
package room
