// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

// Package logging provides the process-wide zerolog logger for Tutorhub.
//
// Every package logs through this one logger so that request, correlation and
// session identifiers end up on the same JSON line whether the record came from
// an HTTP handler, a report worker or the supervisor tree.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("session_id", id).Msg("Session booked")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Room teardown failed")
//
// Always terminate event chains with Msg or Send; an unterminated chain is
// silently dropped.
//
// # Bridges
//
// Two adapters route third-party logging into zerolog:
//
//   - NewSlogLogger for suture's sutureslog event hook
//   - NewWatermillLogger for the watermill publisher that carries report queue events
//
// # Context
//
// ContextWithRequestID is set by the HTTP middleware, ContextWithSessionID by the
// report workers. Ctx(ctx) copies whichever identifiers are present onto the record.
package logging
