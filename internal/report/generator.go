// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/textgen"
)

// Progress checkpoints reported while a job runs.
const (
	ProgressStarted   = 10
	ProgressAssembled = 30
	ProgressPrompted  = 50
	ProgressResponded = 80
	ProgressDone      = 100
)

// Default generation settings.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1500
)

// Store is the persistence the generator reads and writes.
type Store interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	GetNote(ctx context.Context, sessionID string) (*models.SessionNote, error)
	GetRatingBySession(ctx context.Context, sessionID string) (*models.Rating, error)
	GetReportBySession(ctx context.Context, sessionID string) (*models.SessionReport, error)
	InsertReportOnce(ctx context.Context, r *models.SessionReport) (*models.SessionReport, bool, error)
}

// ProgressFunc receives checkpoint percentages. It may be nil.
type ProgressFunc func(pct int)

// Generator is the report job body.
type Generator struct {
	store       Store
	provider    textgen.Provider
	temperature float64
	maxTokens   int
	now         func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithSampling overrides temperature and max tokens. Zero values keep the defaults.
func WithSampling(temperature float64, maxTokens int) Option {
	return func(g *Generator) {
		if temperature > 0 {
			g.temperature = temperature
		}
		if maxTokens > 0 {
			g.maxTokens = maxTokens
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator.
func NewGenerator(store Store, provider textgen.Provider, opts ...Option) *Generator {
	g := &Generator{
		store:       store,
		provider:    provider,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces the session's report, or returns the existing one.
// Errors wrapped in *PermanentError must not be retried; any other error
// leaves nothing persisted and may be retried.
func (g *Generator) Generate(ctx context.Context, sessionID string, progress ProgressFunc) (*models.SessionReport, error) {
	if progress == nil {
		progress = func(int) {}
	}
	ctx = logging.ContextWithSessionID(ctx, sessionID)
	log := logging.Ctx(ctx)

	progress(ProgressStarted)

	s, err := g.store.GetSession(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, permanent(fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID))
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s.Status != models.StatusCompleted {
		return nil, permanent(fmt.Errorf("%w: %s is %s", ErrSessionNotCompleted, sessionID, s.Status))
	}

	existing, err := g.store.GetReportBySession(ctx, sessionID)
	if err == nil {
		log.Info().Str("report_id", existing.ID).Msg("Report already exists, skipping generation")
		progress(ProgressDone)
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("check existing report: %w", err)
	}

	in, err := g.assemble(ctx, s)
	if err != nil {
		return nil, err
	}
	progress(ProgressAssembled)

	req := textgen.Request{
		System:      SystemPrompt,
		Prompt:      BuildPrompt(in),
		Schema:      Schema,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}
	progress(ProgressPrompted)

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		if !textgen.IsRetryable(err) {
			return nil, permanent(fmt.Errorf("text generation: %w", err))
		}
		return nil, fmt.Errorf("text generation: %w", err)
	}
	progress(ProgressResponded)

	data, err := parseReport(resp.Content, in.Notes)
	if err != nil {
		return nil, err
	}

	stored, created, err := g.store.InsertReportOnce(ctx, &models.SessionReport{
		ID:          uuid.NewString(),
		SessionID:   s.ID,
		TutorID:     s.TutorID,
		ReportData:  *data,
		GeneratedAt: g.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	progress(ProgressDone)

	log.Info().
		Str("report_id", stored.ID).
		Bool("created", created).
		Str("model", resp.Model).
		Int("messages", len(in.Messages)).
		Msg("Session report generated")
	return stored, nil
}

func (g *Generator) assemble(ctx context.Context, s *models.Session) (*Input, error) {
	in := &Input{Session: s}

	student, err := g.store.GetUser(ctx, s.StudentID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student != nil {
		in.StudentName = student.Name
	}
	tutor, err := g.store.GetUser(ctx, s.TutorID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("load tutor: %w", err)
	}
	if tutor != nil {
		in.TutorName = tutor.Name
	}

	if in.Messages, err = g.store.ListChatMessages(ctx, s.ID); err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	note, err := g.store.GetNote(ctx, s.ID)
	switch {
	case err == nil:
		in.Notes = note.Content
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("load notes: %w", err)
	}

	rating, err := g.store.GetRatingBySession(ctx, s.ID)
	switch {
	case err == nil:
		in.Rating = rating
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("load rating: %w", err)
	}
	return in, nil
}

// rawReport mirrors models.ReportData with every field optional.
type rawReport struct {
	Summary             *string  `json:"summary"`
	TopicsDiscussed     []string `json:"topicsDiscussed"`
	StudentProgress     *string  `json:"studentProgress"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	NextSteps           []string `json:"nextSteps"`
	TutorNotes          *string  `json:"tutorNotes"`
}

// parseReport decodes provider output and fills every missing field, so a
// stored report never has a null member.
func parseReport(raw json.RawMessage, notes string) (*models.ReportData, error) {
	var r rawReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, &ParseError{Err: err}
	}

	data := &models.ReportData{
		Summary:             orDefault(r.Summary, NoSummary),
		TopicsDiscussed:     orEmpty(r.TopicsDiscussed),
		StudentProgress:     orDefault(r.StudentProgress, NoProgress),
		Strengths:           orEmpty(r.Strengths),
		AreasForImprovement: orEmpty(r.AreasForImprovement),
		NextSteps:           orEmpty(r.NextSteps),
	}
	fallbackNotes := NoNotes
	if notes != "" {
		fallbackNotes = notes
	}
	data.TutorNotes = orDefault(r.TutorNotes, fallbackNotes)
	return data, nil
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
