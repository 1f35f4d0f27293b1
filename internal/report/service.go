// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/models"
)

// Queue is the durable job queue behind EnqueueReport and ReportStatus.
// *reportqueue.Queue implements it.
type Queue interface {
	Enqueue(ctx context.Context, sessionID string) (*models.ReportJobHandle, error)
	Status(ctx context.Context, sessionID string) (*models.ReportStatus, error)
}

// ServiceStore is the persistence the service reads.
type ServiceStore interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetReportBySession(ctx context.Context, sessionID string) (*models.SessionReport, error)
	ListReportsByTutor(ctx context.Context, tutorID string, limit, offset int) ([]models.SessionReport, error)
}

// Service applies access rules to report operations.
type Service struct {
	store ServiceStore
	queue Queue
}

// NewService creates a Service.
func NewService(store ServiceStore, queue Queue) *Service {
	return &Service{store: store, queue: queue}
}

func (s *Service) loadSession(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewNotFoundError("Session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// canRead allows the session's participants and admins.
func canRead(actor models.Actor, sess *models.Session) bool {
	return actor.Role == models.RoleAdmin || sess.IsParticipant(actor.UserID)
}

// EnqueueReport asks for a report on a completed session. Only the
// session's tutor may ask. Repeated calls return the same job.
func (s *Service) EnqueueReport(ctx context.Context, actor models.Actor, sessionID string) (*models.ReportJobHandle, error) {
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleTutor || sess.TutorID != actor.UserID {
		return nil, models.NewAccessDeniedError("Only the session tutor can request a report")
	}
	if sess.Status != models.StatusCompleted {
		return nil, models.NewValidationError("status", models.MsgSessionNotCompleted)
	}
	return s.queue.Enqueue(ctx, sessionID)
}

// ReportStatus reports generation progress for a session.
func (s *Service) ReportStatus(ctx context.Context, actor models.Actor, sessionID string) (*models.ReportStatus, error) {
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, sess) {
		return nil, models.NewAccessDeniedError(models.MsgNotParticipant)
	}
	return s.queue.Status(ctx, sessionID)
}

// GetReport returns the stored report.
func (s *Service) GetReport(ctx context.Context, actor models.Actor, sessionID string) (*models.SessionReport, error) {
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, sess) {
		return nil, models.NewAccessDeniedError(models.MsgNotParticipant)
	}
	r, err := s.store.GetReportBySession(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewNotFoundError("Report", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	return r, nil
}

// ListTutorReports returns the calling tutor's reports, newest first.
func (s *Service) ListTutorReports(ctx context.Context, actor models.Actor, limit, offset int) ([]models.SessionReport, error) {
	if actor.Role != models.RoleTutor {
		return nil, models.NewAccessDeniedError("Only tutors can list reports")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 || offset < 0 {
		return nil, models.NewValidationError("limit", "Limit must be between 1 and 200")
	}
	reports, err := s.store.ListReportsByTutor(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}
