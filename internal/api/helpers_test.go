// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tutorhub/internal/auth"
	"github.com/tomtom215/tutorhub/internal/authz"
	"github.com/tomtom215/tutorhub/internal/config"
	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/report"
	"github.com/tomtom215/tutorhub/internal/reportqueue"
	"github.com/tomtom215/tutorhub/internal/room"
	"github.com/tomtom215/tutorhub/internal/session"
	"github.com/tomtom215/tutorhub/internal/tutormetrics"
)

const (
	testSecret       = "0123456789abcdef0123456789abcdef"
	testAdminSubject = "admin-subject"
)

// testDBSemaphore serializes DuckDB usage across parallel tests.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

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

// fakeQueue stands in for the JetStream queue. Enqueued sessions read as
// queued until a report is stored.
type fakeQueue struct {
	mu       sync.Mutex
	db       *database.DB
	enqueued map[string]bool
	err      error
}

func newFakeQueue(db *database.DB) *fakeQueue {
	return &fakeQueue{db: db, enqueued: make(map[string]bool)}
}

func (q *fakeQueue) Enqueue(_ context.Context, sessionID string) (*models.ReportJobHandle, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	existing := q.enqueued[sessionID]
	q.enqueued[sessionID] = true
	return &models.ReportJobHandle{
		JobID:     reportqueue.JobID(sessionID),
		SessionID: sessionID,
		State:     models.ReportQueued,
		Existing:  existing,
	}, nil
}

func (q *fakeQueue) Status(ctx context.Context, sessionID string) (*models.ReportStatus, error) {
	if r, err := q.db.GetReportBySession(ctx, sessionID); err == nil {
		return &models.ReportStatus{SessionID: sessionID, State: models.ReportCompleted, Progress: 100, ReportID: r.ID}, nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueued[sessionID] {
		return &models.ReportStatus{SessionID: sessionID, State: models.ReportQueued}, nil
	}
	return &models.ReportStatus{SessionID: sessionID, State: models.ReportNotStarted}, nil
}

func (q *fakeQueue) Overview(context.Context) (*reportqueue.Overview, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	return &reportqueue.Overview{
		Stream:      "REPORTS",
		Consumer:    "report-workers",
		Messages:    uint64(len(q.enqueued)),
		Concurrency: 5,
		Attempts:    3,
	}, nil
}

// stubPinger fails readiness with err.
type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	handler http.Handler
	db      *database.DB
	queue   *fakeQueue
	jwt     *auth.JWTManager
}

type serverOption func(*Dependencies, *RouterConfig)

func withRateLimit(requests int) serverOption {
	return func(_ *Dependencies, cfg *RouterConfig) {
		cfg.Middleware.RateLimitDisabled = false
		cfg.Middleware.RateLimitRequests = requests
		cfg.Middleware.RateLimitWindow = time.Minute
	}
}

func withCheck(name string, p Pinger) serverOption {
	return func(deps *Dependencies, _ *RouterConfig) {
		deps.Checks[name] = p
	}
}

func withProgress(p ProgressStream) serverOption {
	return func(deps *Dependencies, _ *RouterConfig) {
		deps.Progress = p
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	db := setupTestDB(t)
	queue := newFakeQueue(db)
	recalc := tutormetrics.NewRecalculator(db)

	sec := &config.SecurityConfig{JWTSecret: testSecret, JWTIssuer: "tutorhub"}
	jwtManager, err := auth.NewJWTManager(sec)
	checkNoError(t, err)
	enforcer, err := authz.NewEnforcer(&config.CasbinConfig{})
	checkNoError(t, err)

	deps := Dependencies{
		Users:        auth.NewRegistrar(db, []string{testAdminSubject}),
		Sessions:     session.NewManager(db, room.NewAdapter(room.Disabled{}, time.Second), recalc),
		Reports:      report.NewService(db, queue),
		Store:        db,
		Recalculator: recalc,
		Queue:        queue,
		Checks:       map[string]Pinger{"database": db},
	}
	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	cfg := RouterConfig{Middleware: mw, SwaggerEnabled: true}
	for _, opt := range opts {
		opt(&deps, &cfg)
	}

	router := NewRouter(NewHandler(deps), auth.NewJWTAuthenticator(jwtManager), db, enforcer, cfg)
	return &testServer{
		handler: router.Setup(),
		db:      db,
		queue:   queue,
		jwt:     jwtManager,
	}
}

// token signs a credential for subject.
func (s *testServer) token(t *testing.T, subject string) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(subject, subject, subject+"@example.com", time.Hour)
	checkNoError(t, err)
	return tok
}

// register provisions subject with role and returns its token and user.
func (s *testServer) register(t *testing.T, subject string, role models.Role) (string, models.User) {
	t.Helper()
	tok := s.token(t, subject)
	rec := s.do(t, http.MethodPost, "/api/users/register", tok, map[string]string{
		"name":  subject,
		"email": subject + "@example.com",
		"role":  string(role),
	})
	checkStatus(t, rec, http.StatusCreated)
	var u models.User
	decodeData(t, rec, &u)
	return tok, u
}

func (s *testServer) preflight(t *testing.T, path, origin string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodOptions, path, nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		checkNoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors APIResponse with a raw payload.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return env
}

func checkStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
	}
}

// checkError asserts the status and envelope error code.
func checkError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	checkStatus(t, rec, status)
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %s, want %s (message %q)", env.Error.Code, code, env.Error.Message)
	}
	return env
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
