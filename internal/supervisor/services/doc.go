// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package services provides suture.Service wrappers for components whose
lifecycle does not already follow suture's Serve(ctx) pattern.

HTTP Server (HTTPServerService):
  - Runs ListenAndServe in a goroutine
  - Shuts down gracefully with a fresh context when the tree stops

Embedded NATS (NATSServerService):
  - Owns the in-process broker that is started before wiring
  - Shuts the broker down when the data layer stops
  - Stops the tree from restarting it after an unexpected exit

The report worker, progress hub and event bridge implement suture.Service
themselves and are added to the tree directly.
*/
package services
