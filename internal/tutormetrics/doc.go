// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

// Package tutormetrics recomputes the derived per-tutor quality metrics.
//
// Metrics are never updated incrementally. Every recomputation reads the
// tutor's full session and rating history and writes a complete snapshot, so
// concurrent recomputations for one tutor are last-write-wins without harm.
//
// Churn risk is scored from first sessions only:
//
//	r = lowRatedFirstSessions / firstSessions   (scored when firstSessions >= 3)
//	r >= 1.00 -> 100, r >= 0.67 -> 80, r >= 0.50 -> 60, 0 < r < 0.50 -> r*100
package tutormetrics
