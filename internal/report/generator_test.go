// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package report

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/tutorhub/internal/config"
	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/textgen"
)

var testDBSemaphore = make(chan struct{}, 1)

var baseTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

const fullReport = `{
	"summary": "Covered derivatives.",
	"topicsDiscussed": ["derivatives"],
	"studentProgress": "Good",
	"strengths": ["curious"],
	"areasForImprovement": ["notation"],
	"nextSteps": ["chain rule"],
	"tutorNotes": "Solid start"
}`

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{
		Path:           ":memory:",
		MaxMemory:      "512MB",
		RetryAttempts:  5,
		RetryBaseDelay: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("close: %v", err)
		}
	})
	return db
}

type seeded struct {
	db      *database.DB
	session *models.Session
	student *models.User
	tutor   *models.User
}

// seedSession books a 30 minute session between alice and bob and moves it
// to status.
func seedSession(t *testing.T, status models.SessionStatus) *seeded {
	t.Helper()
	ctx := context.Background()
	db := setupTestDB(t)

	mkUser := func(name string, role models.Role) *models.User {
		u := &models.User{
			ID: uuid.NewString(), ExternalID: "ext-" + name, Name: name,
			Email: name + "@example.com", Role: role, CreatedAt: baseTime,
		}
		checkNoError(t, db.CreateUser(ctx, u))
		return u
	}
	student := mkUser("Alice", models.RoleStudent)
	tutor := mkUser("Bob", models.RoleTutor)

	s := &models.Session{
		ID: uuid.NewString(), StudentID: student.ID, TutorID: tutor.ID,
		StartTime: baseTime, EndTime: models.SessionEnd(baseTime, 30), Duration: 30,
		Status: models.StatusScheduled, CreatedAt: baseTime, UpdatedAt: baseTime,
	}
	checkNoError(t, db.BookSession(ctx, s))
	if status != models.StatusScheduled {
		checkNoError(t, db.UpdateSessionStatus(ctx, s.ID, []models.SessionStatus{models.StatusScheduled}, status, baseTime))
		s.Status = status
	}
	return &seeded{db: db, session: s, student: student, tutor: tutor}
}

func (sd *seeded) chat(t *testing.T, from *models.User, text string, at time.Time) {
	t.Helper()
	checkNoError(t, sd.db.AddChatMessage(context.Background(), &models.ChatMessage{
		ID: uuid.NewString(), SessionID: sd.session.ID, SenderID: from.ID, Message: text, Timestamp: at,
	}))
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func mockWith(content string) *textgen.MockProvider {
	return textgen.NewMockProvider(textgen.MockResponse{Content: json.RawMessage(content)})
}

func TestGenerate_HappyPath(t *testing.T) {
	t.Parallel()
	sd := seedSession(t, models.StatusCompleted)
	sd.chat(t, sd.student, "what is a derivative?", baseTime.Add(time.Minute))
	sd.chat(t, sd.tutor, "rate of change", baseTime.Add(2*time.Minute))

	provider := mockWith(fullReport)
	var progress []int
	g := NewGenerator(sd.db, provider)

	r, err := g.Generate(context.Background(), sd.session.ID, func(p int) { progress = append(progress, p) })
	checkNoError(t, err)
	if r.ReportData.Summary != "Covered derivatives." || r.TutorID != sd.tutor.ID {
		t.Errorf("report = %+v", r)
	}

	want := []int{ProgressStarted, ProgressAssembled, ProgressPrompted, ProgressResponded, ProgressDone}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress = %v, want %v", progress, want)
			break
		}
	}

	calls := provider.Calls()
	if len(calls) != 1 {
		t.Fatalf("provider calls = %d", len(calls))
	}
	prompt := calls[0].Prompt
	for _, s := range []string{"Alice: what is a derivative?\nBob: rate of change", "Duration: 30 minutes", NoNotesRecorded, "Not rated yet"} {
		if !strings.Contains(prompt, s) {
			t.Errorf("prompt missing %q:\n%s", s, prompt)
		}
	}
	if calls[0].Temperature != DefaultTemperature || calls[0].MaxTokens != DefaultMaxTokens {
		t.Errorf("sampling = %v/%d", calls[0].Temperature, calls[0].MaxTokens)
	}
}

func TestGenerate_DefaultsMissingFields(t *testing.T) {
	t.Parallel()
	sd := seedSession(t, models.StatusCompleted)
	checkNoError(t, sd.db.UpsertNote(context.Background(), &models.SessionNote{
		SessionID: sd.session.ID, TutorID: sd.tutor.ID, Content: "needs practice", UpdatedAt: baseTime,
	}))

	g := NewGenerator(sd.db, mockWith(`{"summary": "Short"}`))
	r, err := g.Generate(context.Background(), sd.session.ID, nil)
	checkNoError(t, err)

	d := r.ReportData
	if d.Summary != "Short" || d.StudentProgress != NoProgress {
		t.Errorf("data = %+v", d)
	}
	if d.TutorNotes != "needs practice" {
		t.Errorf("TutorNotes = %q, want the tutor's note", d.TutorNotes)
	}
	if d.TopicsDiscussed == nil || d.Strengths == nil || d.NextSteps == nil || d.AreasForImprovement == nil {
		t.Error("lists must never be null")
	}
}

func TestGenerate_PreconditionsArePermanent(t *testing.T) {
	t.Parallel()

	sd := seedSession(t, models.StatusLive)
	g := NewGenerator(sd.db, mockWith(fullReport))

	_, err := g.Generate(context.Background(), sd.session.ID, nil)
	if !IsPermanent(err) || !errors.Is(err, ErrSessionNotCompleted) {
		t.Errorf("live session err = %v", err)
	}
	_, err = g.Generate(context.Background(), "missing", nil)
	if !IsPermanent(err) || !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("missing session err = %v", err)
	}
}

func TestGenerate_ProviderErrors(t *testing.T) {
	t.Parallel()
	sd := seedSession(t, models.StatusCompleted)
	ctx := context.Background()

	_, err := NewGenerator(sd.db, textgen.Disabled{}).Generate(ctx, sd.session.ID, nil)
	if !IsPermanent(err) || !errors.Is(err, textgen.ErrNotConfigured) {
		t.Errorf("disabled provider err = %v", err)
	}

	_, err = NewGenerator(sd.db, mockWith(`not json at all`)).Generate(ctx, sd.session.ID, nil)
	if err == nil || IsPermanent(err) {
		t.Errorf("malformed output should be retryable, got %v", err)
	}

	flaky := textgen.NewMockProvider(textgen.MockResponse{Err: &textgen.RateLimitError{}})
	_, err = NewGenerator(sd.db, flaky).Generate(ctx, sd.session.ID, nil)
	if err == nil || IsPermanent(err) {
		t.Errorf("rate limit should be retryable, got %v", err)
	}

	if _, err := sd.db.GetReportBySession(ctx, sd.session.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("failed attempts left a report behind: %v", err)
	}
}

func TestGenerate_ConcurrentProducesOneReport(t *testing.T) {
	t.Parallel()
	sd := seedSession(t, models.StatusCompleted)
	sd.chat(t, sd.student, "what is a derivative?", baseTime.Add(time.Minute))
	sd.chat(t, sd.tutor, "rate of change", baseTime.Add(2*time.Minute))

	provider := textgen.NewMockProvider()
	provider.Fallback = &textgen.MockResponse{Content: json.RawMessage(fullReport)}
	g := NewGenerator(sd.db, provider)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[string]bool{}
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := g.Generate(context.Background(), sd.session.ID, nil)
			if err != nil {
				t.Errorf("generate: %v", err)
				return
			}
			mu.Lock()
			ids[r.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != 1 {
		t.Errorf("got %d distinct reports, want 1", len(ids))
	}
	reports, err := sd.db.ListReportsByTutor(context.Background(), sd.tutor.ID, 10, 0)
	checkNoError(t, err)
	if len(reports) != 1 {
		t.Errorf("stored reports = %d, want 1", len(reports))
	}
}

func TestGenerate_ExistingReportShortCircuits(t *testing.T) {
	t.Parallel()
	sd := seedSession(t, models.StatusCompleted)

	first, err := NewGenerator(sd.db, mockWith(fullReport)).Generate(context.Background(), sd.session.ID, nil)
	checkNoError(t, err)

	provider := textgen.NewMockProvider()
	again, err := NewGenerator(sd.db, provider).Generate(context.Background(), sd.session.ID, nil)
	checkNoError(t, err)
	if again.ID != first.ID {
		t.Errorf("second run returned %q, want %q", again.ID, first.ID)
	}
	if provider.CallCount() != 0 {
		t.Error("provider should not be called when a report exists")
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	t.Parallel()
	comment := "very clear"
	in := &Input{
		Session:     &models.Session{StartTime: baseTime, EndTime: baseTime.Add(45 * time.Minute)},
		StudentName: "Alice",
		TutorName:   "Bob",
		Notes:       "practice limits",
		Rating:      &models.Rating{Punctuality: 5, Friendliness: 4, Helpfulness: 3, OverallRating: 4, Comment: &comment},
	}
	a, b := BuildPrompt(in), BuildPrompt(in)
	if a != b {
		t.Fatal("prompt is not deterministic")
	}
	for _, s := range []string{"Duration: 45 minutes", "Rating: 4.00/5", "Student feedback: very clear", NoChatRecorded, "practice limits"} {
		if !strings.Contains(a, s) {
			t.Errorf("prompt missing %q", s)
		}
	}
}
