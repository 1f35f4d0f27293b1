// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package tutormetrics

import (
	"time"

	"github.com/tomtom215/tutorhub/internal/models"
)

const (
	// CancellationWindow is the trailing window for cancellationsThisWeek.
	CancellationWindow = 7 * 24 * time.Hour

	// HighCancellationThreshold is exclusive: more than this many tutor
	// cancellations in the window flags the tutor.
	HighCancellationThreshold = 3

	// MinFirstSessions is the number of first sessions needed before churn is scored.
	MinFirstSessions = 3

	// LowRatingCutoff is exclusive: an overall rating below it counts as low.
	LowRatingCutoff = 3.0

	// HighChurnScore is the score at and above which a tutor is a churn risk.
	HighChurnScore = 60.0
)

// Compute derives a full metrics snapshot from the tutor's session history.
// It is a pure function of its inputs; the same facts and now always yield
// the same snapshot.
func Compute(tutorID string, facts []models.TutorSessionFact, now time.Time) models.TutorMetrics {
	m := models.TutorMetrics{
		TutorID:          tutorID,
		TotalSessions:    len(facts),
		LastCalculatedAt: now.UTC(),
	}

	weekAgo := now.Add(-CancellationWindow)
	var (
		ratingSum, firstRatingSum float64
		rated, firstRated         int
	)
	for _, f := range facts {
		switch f.Status {
		case models.StatusCompleted:
			m.CompletedSessions++
		case models.StatusCancelled:
			m.CancelledSessions++
			if f.CancelledBy != nil && *f.CancelledBy == models.CancelledByTutor &&
				f.CancelledAt != nil && !f.CancelledAt.Before(weekAgo) {
				m.CancellationsThisWeek++
			}
		}

		if f.OverallRating != nil {
			ratingSum += *f.OverallRating
			rated++
		}

		if !f.IsFirstSession {
			continue
		}
		m.FirstSessionCount++
		if f.OverallRating != nil {
			firstRatingSum += *f.OverallRating
			firstRated++
			if *f.OverallRating < LowRatingCutoff {
				m.FirstSessionLowRatingCount++
			}
		}
	}

	if rated > 0 {
		m.AverageRating = ratingSum / float64(rated)
	}
	if firstRated > 0 {
		m.FirstSessionAvgRating = firstRatingSum / float64(firstRated)
	}

	m.ChurnRiskScore = ChurnRiskScore(m.FirstSessionCount, m.FirstSessionLowRatingCount)
	m.IsHighChurnRisk = m.ChurnRiskScore >= HighChurnScore
	m.IsHighCancellation = m.CancellationsThisWeek > HighCancellationThreshold
	return m
}

// ChurnRiskScore maps the share of poorly rated first sessions to a 0-100
// score. Tutors with fewer than MinFirstSessions first sessions score 0.
func ChurnRiskScore(firstSessionCount, lowRatingCount int) float64 {
	if firstSessionCount < MinFirstSessions {
		return 0
	}
	r := float64(lowRatingCount) / float64(firstSessionCount)
	switch {
	case r >= 1.0:
		return 100
	case r >= 0.67:
		return 80
	case r >= 0.5:
		return 60
	case r > 0:
		return r * 100
	default:
		return 0
	}
}
