// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/tutorhub/internal/auth"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/reportqueue"
	"github.com/tomtom215/tutorhub/internal/session"
	"github.com/tomtom215/tutorhub/internal/websocket"
)

// SessionService is the session lifecycle. *session.Manager implements it.
type SessionService interface {
	CreateSession(ctx context.Context, actor models.Actor, req session.CreateRequest) (*session.CreateResult, error)
	SetStatus(ctx context.Context, actor models.Actor, id string, to models.SessionStatus) (*models.Session, error)
	Cancel(ctx context.Context, actor models.Actor, id string, reason *string) (*models.Session, error)
	GetSession(ctx context.Context, actor models.Actor, id string) (*models.SessionDetail, error)
	ListSessions(ctx context.Context, actor models.Actor, f models.SessionFilter) ([]models.Session, error)
	RoomToken(ctx context.Context, actor models.Actor, id string) (*session.RoomAccess, error)

	SubmitRating(ctx context.Context, actor models.Actor, sessionID string, req session.RatingRequest) (*models.Rating, error)
	GetRating(ctx context.Context, actor models.Actor, sessionID string) (*models.Rating, error)

	PostMessage(ctx context.Context, actor models.Actor, sessionID, text string) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, actor models.Actor, sessionID string) ([]models.ChatMessage, error)
	SaveNote(ctx context.Context, actor models.Actor, sessionID, content string) (*models.SessionNote, error)
	GetNote(ctx context.Context, actor models.Actor, sessionID string) (*models.SessionNote, error)
}

// ReportService exposes report jobs and results. *report.Service implements it.
type ReportService interface {
	EnqueueReport(ctx context.Context, actor models.Actor, sessionID string) (*models.ReportJobHandle, error)
	ReportStatus(ctx context.Context, actor models.Actor, sessionID string) (*models.ReportStatus, error)
	GetReport(ctx context.Context, actor models.Actor, sessionID string) (*models.SessionReport, error)
	ListTutorReports(ctx context.Context, actor models.Actor, limit, offset int) ([]models.SessionReport, error)
}

// UserService registers and looks up users. *auth.Registrar implements it.
type UserService interface {
	Register(ctx context.Context, subject *auth.AuthSubject, req auth.RegisterRequest) (*models.User, error)
	Me(ctx context.Context, actor models.Actor) (*models.User, error)
}

// MetricsStore reads stored tutor metrics and users. *database.DB implements it.
type MetricsStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetTutorMetrics(ctx context.Context, tutorID string) (*models.TutorMetrics, error)
}

// Recalculator recomputes tutor metrics. *tutormetrics.Recalculator implements it.
type Recalculator interface {
	Recalculate(ctx context.Context, tutorID string) (*models.TutorMetrics, error)
}

// QueueInspector is the admin view of the report queue. *reportqueue.Queue
// implements it.
type QueueInspector interface {
	Overview(ctx context.Context) (*reportqueue.Overview, error)
}

// ProgressStream upgrades a request to a per-session event stream.
// *websocket.Hub implements it.
type ProgressStream interface {
	ServeSession(w http.ResponseWriter, r *http.Request, sessionID string, status websocket.StatusFunc)
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the API routes.
type Handler struct {
	users     UserService
	sessions  SessionService
	reports   ReportService
	store     MetricsStore
	recalc    Recalculator
	queue     QueueInspector
	progress  ProgressStream
	checks    map[string]Pinger
	startTime time.Time
}

// Dependencies are the services behind the handlers. Queue, Progress and
// any entry of Checks may be nil when the report queue is disabled.
type Dependencies struct {
	Users        UserService
	Sessions     SessionService
	Reports      ReportService
	Store        MetricsStore
	Recalculator Recalculator
	Queue        QueueInspector
	Progress     ProgressStream
	Checks       map[string]Pinger
}

// NewHandler creates the handler set.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		users:     deps.Users,
		sessions:  deps.Sessions,
		reports:   deps.Reports,
		store:     deps.Store,
		recalc:    deps.Recalculator,
		queue:     deps.Queue,
		progress:  deps.Progress,
		checks:    deps.Checks,
		startTime: time.Now(),
	}
}

// actorFrom returns the resolved caller. The auth middleware guarantees it
// on every route that reaches a handler using it.
func actorFrom(rw *ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
	}
	return actor, ok
}
