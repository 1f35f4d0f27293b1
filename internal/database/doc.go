// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package database is the DuckDB-backed relational store for tutorhub.

It owns the schema, the versioned migration runner and every query the
service issues. All access goes through database/sql with positional
parameters.

# Booking

BookSession is the only multi-statement write that must be isolated. It runs
the slot conflict check, the first-session count and the insert in a single
transaction, after bumping the tutor's booking_version row. DuckDB uses
optimistic concurrency, so two transactions that touch the same lock row
cannot both commit; the loser fails with a transaction conflict and withRetry
re-runs it against fresh data. Inside one process a per-tutor mutex avoids
the retry entirely.

# Status transitions

UpdateSessionStatus and CancelSession are compare-and-set updates: the WHERE
clause names the states the caller observed, and ErrStaleState means another
request moved the session first.

# Uniqueness

ratings.session_id and session_reports.session_id are UNIQUE. CreateRating
maps a violation to ErrDuplicate; InsertReportOnce uses ON CONFLICT DO NOTHING
and returns whichever report committed first.
*/
package database
