// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package session

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/metrics"
	"github.com/tomtom215/tutorhub/internal/models"
)

// MaxRatingComment is the longest accepted rating comment, in characters.
const MaxRatingComment = 500

// RatingRequest is the input of SubmitRating.
type RatingRequest struct {
	Punctuality  int
	Friendliness int
	Helpfulness  int
	Comment      *string
}

func validScore(v int) bool { return v >= 1 && v <= 5 }

// SubmitRating records the student's single rating of a completed session
// and recomputes the tutor's metrics before returning.
func (m *Manager) SubmitRating(ctx context.Context, actor models.Actor, sessionID string, req RatingRequest) (*models.Rating, error) {
	if actor.Role != models.RoleStudent {
		return nil, models.NewAccessDeniedError("Only students can rate sessions")
	}
	if !validScore(req.Punctuality) || !validScore(req.Friendliness) || !validScore(req.Helpfulness) {
		return nil, models.NewValidationError("rating", "Ratings must be between 1 and 5")
	}
	if req.Comment != nil && utf8.RuneCountInString(*req.Comment) > MaxRatingComment {
		return nil, models.NewValidationError("comment", fmt.Sprintf("Comment must be at most %d characters", MaxRatingComment))
	}

	s, err := m.store.GetSession(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewNotFoundError("Session", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s.StudentID != actor.UserID {
		return nil, models.NewAccessDeniedError("You can only rate your own sessions")
	}
	if s.Status != models.StatusCompleted {
		return nil, models.NewValidationError("status", "Can only rate completed sessions")
	}

	r := &models.Rating{
		ID:            m.newID(),
		SessionID:     s.ID,
		StudentID:     s.StudentID,
		TutorID:       s.TutorID,
		Punctuality:   req.Punctuality,
		Friendliness:  req.Friendliness,
		Helpfulness:   req.Helpfulness,
		OverallRating: models.OverallOf(req.Punctuality, req.Friendliness, req.Helpfulness),
		Comment:       req.Comment,
		CreatedAt:     m.now().UTC(),
	}
	err = m.store.CreateRating(ctx, r)
	if errors.Is(err, database.ErrDuplicate) {
		return nil, models.NewConflictError(models.MsgAlreadyRated)
	}
	if err != nil {
		return nil, fmt.Errorf("create rating: %w", err)
	}
	metrics.RecordRating()

	ctx = logging.ContextWithSessionID(ctx, s.ID)
	logging.Ctx(ctx).Info().
		Str("tutor_id", s.TutorID).
		Float64("overall_rating", r.OverallRating).
		Msg("Session rated")

	m.recalculate(ctx, s.TutorID)
	return r, nil
}

// GetRating returns the rating of a session to one of its participants.
func (m *Manager) GetRating(ctx context.Context, actor models.Actor, sessionID string) (*models.Rating, error) {
	if _, err := m.loadForParticipant(ctx, actor, sessionID); err != nil {
		return nil, err
	}
	r, err := m.store.GetRatingBySession(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewNotFoundError("Rating", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load rating: %w", err)
	}
	return r, nil
}
