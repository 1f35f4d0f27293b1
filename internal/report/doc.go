// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package report writes the AI session summary for a completed session.

Generator is the job body run by the report queue:

 1. load the session; missing or not COMPLETED fails permanently
 2. return the stored report if one exists
 3. gather transcript (oldest first), tutor notes and rating
 4. render a deterministic prompt and call the text-generation provider
 5. decode the JSON, fill omitted fields with placeholders and insert the
    report once per session

Progress is reported at 10, 30, 50, 80 and 100 percent.

Errors are either *PermanentError (precondition failures, a provider that is
not configured or rejects its credentials) or retryable (timeouts, rate limits,
malformed output, store errors). Nothing is persisted on failure, and the
UNIQUE(session_id) constraint makes concurrent jobs converge on one report.

Service applies the access rules for the report endpoints: only the tutor
may request a report, participants and admins may read it.
*/
package report
