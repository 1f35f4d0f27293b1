// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package models defines the data structures shared by every Tutorhub layer.

Key Components:

  - User, Actor: registered accounts and the authenticated caller of an operation
  - Session, SessionDetail, SessionFilter: booked engagements and their read views
  - Rating, TutorMetrics: post-session feedback and the derived per-tutor aggregate
  - ChatMessage, SessionNote: the transcript and tutor notes a report is built from
  - SessionReport, ReportData, ReportStatus: generated reports and job status

Error Taxonomy:

ValidationError, NotFoundError, AccessDeniedError, ConflictError and
ExternalDependencyError are returned by the service packages, always wrapped
with fmt.Errorf("...: %w", err). The HTTP layer maps them to status codes with
errors.As; IsRetryable decides whether a report job failure is retried.

JSON field names are camelCase to match the public API.
*/
package models
