// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/room"
)

// Store is the persistence the manager needs. *database.DB implements it.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	BookSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, q database.SessionQuery) ([]models.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, from []models.SessionStatus, to models.SessionStatus, now time.Time) error
	CancelSession(ctx context.Context, id string, c database.Cancellation) error
	SetSessionRoom(ctx context.Context, id, roomRef, roomURL string) error

	CreateRating(ctx context.Context, r *models.Rating) error
	GetRatingBySession(ctx context.Context, sessionID string) (*models.Rating, error)
	ReportExists(ctx context.Context, sessionID string) (bool, error)

	AddChatMessage(ctx context.Context, m *models.ChatMessage) error
	ListChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	UpsertNote(ctx context.Context, n *models.SessionNote) error
	GetNote(ctx context.Context, sessionID string) (*models.SessionNote, error)
}

// Rooms is the room lifecycle contract. *room.Adapter implements it.
type Rooms interface {
	Create(ctx context.Context, sessionID string, durationMinutes int) room.Provisioning
	Destroy(ctx context.Context, ref string)
	JoinToken(ctx context.Context, ref, userName string, owner bool) (string, error)
}

// Recalculator recomputes tutor metrics. *tutormetrics.Recalculator implements it.
type Recalculator interface {
	Recalculate(ctx context.Context, tutorID string) (*models.TutorMetrics, error)
}

// Manager drives sessions through their lifecycle and enforces per-session
// access rules. Every operation runs synchronously in the caller's request,
// except room teardown, which runs in the background.
type Manager struct {
	store  Store
	rooms  Rooms
	recalc Recalculator
	now    func() time.Time
	newID  func() string

	teardowns sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// NewManager creates a session manager.
func NewManager(store Store, rooms Rooms, recalc Recalculator, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		rooms:  rooms,
		recalc: recalc,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// destroyRoom deletes ref without holding up the caller. The adapter bounds
// the provider call and detaches it from ctx.
func (m *Manager) destroyRoom(ctx context.Context, ref string) {
	m.teardowns.Add(1)
	go func() {
		defer m.teardowns.Done()
		m.rooms.Destroy(ctx, ref)
	}()
}

// Wait blocks until background room teardowns finish.
func (m *Manager) Wait() {
	m.teardowns.Wait()
}

// loadForParticipant fetches a session and checks that the actor is its
// student or tutor.
func (m *Manager) loadForParticipant(ctx context.Context, actor models.Actor, id string) (*models.Session, error) {
	s, err := m.store.GetSession(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewNotFoundError("Session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !s.IsParticipant(actor.UserID) {
		return nil, models.NewAccessDeniedError(models.MsgNotParticipant)
	}
	return s, nil
}

// recalculate runs the synchronous metrics recompute after a rating or a
// tutor cancellation. The triggering write is already committed, so a
// failure is logged rather than returned.
func (m *Manager) recalculate(ctx context.Context, tutorID string) {
	if m.recalc == nil {
		return
	}
	if _, err := m.recalc.Recalculate(ctx, tutorID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("tutor_id", tutorID).Msg("Tutor metrics recalculation failed")
	}
}
