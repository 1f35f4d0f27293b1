// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/metrics"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/room"
)

// List page bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// RoomWarning is surfaced to the booking student when the session was
// created without a video room.
const RoomWarning = "Session created but video room setup failed. Please contact support."

// CreateRequest is the input of CreateSession.
type CreateRequest struct {
	TutorID   string
	StartTime time.Time
	Duration  int
}

// CreateResult is the booked session plus an optional non-fatal warning.
type CreateResult struct {
	Session *models.Session
	Warning string
}

// CreateSession books a SCHEDULED session for the calling student. The slot
// check and insert are one transaction in the store; the room is provisioned
// afterwards and its failure only produces a warning.
func (m *Manager) CreateSession(ctx context.Context, actor models.Actor, req CreateRequest) (*CreateResult, error) {
	if actor.Role != models.RoleStudent {
		return nil, models.NewAccessDeniedError("Only students can book sessions")
	}
	if !models.ValidDuration(req.Duration) {
		return nil, models.NewValidationError("duration", "Duration must be 15, 30, 45, or 60 minutes")
	}
	if req.StartTime.IsZero() {
		return nil, models.NewValidationError("startTime", "Start time is required")
	}

	tutor, err := m.store.GetUser(ctx, req.TutorID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && tutor.Role != models.RoleTutor) {
		return nil, models.NewNotFoundError("Tutor", req.TutorID)
	}
	if err != nil {
		return nil, fmt.Errorf("load tutor: %w", err)
	}

	now := m.now().UTC()
	start := req.StartTime.UTC()
	s := &models.Session{
		ID:        m.newID(),
		StudentID: actor.UserID,
		TutorID:   tutor.ID,
		StartTime: start,
		EndTime:   models.SessionEnd(start, req.Duration),
		Duration:  req.Duration,
		Status:    models.StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch err := m.store.BookSession(ctx, s); {
	case errors.Is(err, database.ErrSlotConflict):
		metrics.RecordBooking("conflict")
		return nil, models.NewConflictError(models.MsgSlotBooked)
	case errors.Is(err, database.ErrNotFound):
		metrics.RecordBooking("error")
		return nil, models.NewNotFoundError("Tutor", req.TutorID)
	case err != nil:
		metrics.RecordBooking("error")
		return nil, fmt.Errorf("book session: %w", err)
	}
	metrics.RecordBooking("booked")

	ctx = logging.ContextWithSessionID(ctx, s.ID)
	result := &CreateResult{Session: s}

	prov := m.rooms.Create(ctx, s.ID, s.Duration)
	if !prov.OK() {
		if errors.Is(prov.Err, room.ErrDisabled) {
			return result, nil
		}
		logging.Ctx(ctx).Warn().Err(prov.Err).Msg("Session booked without a video room")
		result.Warning = RoomWarning
		return result, nil
	}

	if err := m.store.SetSessionRoom(ctx, s.ID, prov.Room.Ref, prov.Room.URL); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("room_ref", prov.Room.Ref).Msg("Failed to attach room to session")
		m.destroyRoom(ctx, prov.Room.Ref)
		result.Warning = RoomWarning
		return result, nil
	}
	ref, url := prov.Room.Ref, prov.Room.URL
	s.RoomRef, s.RoomURL = &ref, &url

	logging.Ctx(ctx).Info().
		Str("tutor_id", s.TutorID).
		Time("start_time", s.StartTime).
		Int("duration", s.Duration).
		Bool("first_session", s.IsFirstSession).
		Msg("Session booked")
	return result, nil
}

// SetStatus applies a participant-requested status change. CANCELLED is
// routed through Cancel so the cancellation bookkeeping is always written.
func (m *Manager) SetStatus(ctx context.Context, actor models.Actor, id string, to models.SessionStatus) (*models.Session, error) {
	if !to.Valid() {
		return nil, models.NewValidationError("status", "Invalid status")
	}
	if to == models.StatusCancelled {
		return m.Cancel(ctx, actor, id, nil)
	}

	s, err := m.loadForParticipant(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	tr, ok := TransitionTo(s.Status, to)
	if !ok {
		return nil, models.NewValidationError("status",
			fmt.Sprintf("Cannot change status from %s to %s", s.Status, to))
	}

	now := m.now().UTC()
	err = m.store.UpdateSessionStatus(ctx, id, []models.SessionStatus{tr.From}, tr.To, now)
	if errors.Is(err, database.ErrStaleState) {
		return nil, models.NewConflictError("Session status changed, please retry")
	}
	if err != nil {
		return nil, fmt.Errorf("update session status: %w", err)
	}
	metrics.RecordTransition(string(tr.From), string(tr.To))

	s.Status = tr.To
	s.UpdatedAt = now
	m.afterTransition(ctx, tr, s)
	return s, nil
}

// Cancel cancels a SCHEDULED or LIVE session on behalf of one of its
// participants.
func (m *Manager) Cancel(ctx context.Context, actor models.Actor, id string, reason *string) (*models.Session, error) {
	s, err := m.loadForParticipant(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.Status == models.StatusCompleted {
		return nil, models.NewValidationError("status", models.MsgCannotCancel)
	}
	tr, ok := TransitionFor(s.Status, EvCancel)
	if !ok {
		return nil, models.NewValidationError("status", "Session already cancelled")
	}
	if reason != nil && len(*reason) > 500 {
		return nil, models.NewValidationError("reason", "Reason must be at most 500 characters")
	}

	by := models.CancelledByStudent
	if actor.UserID == s.TutorID {
		by = models.CancelledByTutor
	}
	now := m.now().UTC()
	err = m.store.CancelSession(ctx, id, database.Cancellation{By: by, At: now, Reason: reason})
	if errors.Is(err, database.ErrStaleState) {
		// Lost a race with another transition; report against the fresh state.
		if fresh, gerr := m.store.GetSession(ctx, id); gerr == nil && fresh.Status == models.StatusCompleted {
			return nil, models.NewValidationError("status", models.MsgCannotCancel)
		}
		return nil, models.NewConflictError("Session status changed, please retry")
	}
	if err != nil {
		return nil, fmt.Errorf("cancel session: %w", err)
	}
	metrics.RecordTransition(string(tr.From), string(tr.To))

	s.Status = models.StatusCancelled
	s.CancelledBy = &by
	s.CancelledAt = &now
	s.CancellationReason = reason
	s.UpdatedAt = now
	m.afterTransition(ctx, tr, s)
	return s, nil
}

// afterTransition runs the committed transition's side effects.
func (m *Manager) afterTransition(ctx context.Context, tr Transition, s *models.Session) {
	ctx = logging.ContextWithSessionID(ctx, s.ID)
	logging.Ctx(ctx).Info().
		Str("from", string(tr.From)).
		Str("to", string(tr.To)).
		Msg("Session status changed")

	if tr.TeardownRoom && s.RoomRef != nil {
		m.destroyRoom(ctx, *s.RoomRef)
	}
	if tr.RecalcOnTutorCancel && s.CancelledBy != nil && *s.CancelledBy == models.CancelledByTutor {
		m.recalculate(ctx, s.TutorID)
	}
}

// GetSession returns the session detail view for a participant.
func (m *Manager) GetSession(ctx context.Context, actor models.Actor, id string) (*models.SessionDetail, error) {
	s, err := m.loadForParticipant(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	detail := &models.SessionDetail{Session: *s}

	student, err := m.userSummary(ctx, s.StudentID)
	if err != nil {
		return nil, err
	}
	tutor, err := m.userSummary(ctx, s.TutorID)
	if err != nil {
		return nil, err
	}
	detail.Student, detail.Tutor = student, tutor

	r, err := m.store.GetRatingBySession(ctx, id)
	switch {
	case err == nil:
		detail.Rating = r
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("load rating: %w", err)
	}

	if detail.HasReport, err = m.store.ReportExists(ctx, id); err != nil {
		return nil, fmt.Errorf("check report: %w", err)
	}
	return detail, nil
}

func (m *Manager) userSummary(ctx context.Context, id string) (models.UserSummary, error) {
	u, err := m.store.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.UserSummary{ID: id}, nil
	}
	if err != nil {
		return models.UserSummary{}, fmt.Errorf("load user: %w", err)
	}
	return u.Summary(), nil
}

// ListSessions lists the sessions visible to the actor: students see their
// bookings, tutors their teaching sessions and admins everything.
func (m *Manager) ListSessions(ctx context.Context, actor models.Actor, f models.SessionFilter) ([]models.Session, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, models.NewValidationError("status", "Invalid status")
	}
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit < 1 || f.Limit > MaxListLimit {
		return nil, models.NewValidationError("limit", fmt.Sprintf("Limit must be between 1 and %d", MaxListLimit))
	}
	if f.Offset < 0 {
		return nil, models.NewValidationError("offset", "Offset must not be negative")
	}

	q := database.SessionQuery{
		Status:   f.Status,
		Upcoming: f.Upcoming,
		Now:      m.now().UTC(),
		Limit:    f.Limit,
		Offset:   f.Offset,
	}
	switch actor.Role {
	case models.RoleStudent:
		q.StudentID = actor.UserID
	case models.RoleTutor:
		q.TutorID = actor.UserID
	case models.RoleAdmin:
	default:
		return nil, models.NewAccessDeniedError("")
	}

	sessions, err := m.store.ListSessions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// RoomAccess is what a participant needs to join the video room.
type RoomAccess struct {
	RoomURL string `json:"roomUrl"`
	Token   string `json:"token"`
}

// RoomToken mints a meeting token for a participant. The tutor gets an owner
// token.
func (m *Manager) RoomToken(ctx context.Context, actor models.Actor, id string) (*RoomAccess, error) {
	s, err := m.loadForParticipant(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.RoomRef == nil || s.RoomURL == nil {
		return nil, models.NewConflictError("Video room not set up for this session")
	}
	if s.Status.Terminal() {
		return nil, models.NewValidationError("status", "Session has ended")
	}

	name := ""
	if u, err := m.store.GetUser(ctx, actor.UserID); err == nil {
		name = u.Name
	}
	token, err := m.rooms.JoinToken(ctx, *s.RoomRef, name, actor.UserID == s.TutorID)
	if err != nil {
		return nil, models.NewExternalDependencyError("room provider", err, true)
	}
	return &RoomAccess{RoomURL: *s.RoomURL, Token: token}, nil
}
