// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/tutorhub/internal/config"
	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/report"
)

const testEventsTopic = "reports.events"

func testQueueConfig() *config.QueueConfig {
	return &config.QueueConfig{
		Enabled:           true,
		Stream:            "REPORTS",
		Subject:           "reports.jobs",
		Consumer:          "report-workers",
		StateBucket:       "report_jobs",
		Concurrency:       2,
		Attempts:          3,
		BackoffBase:       10 * time.Millisecond,
		JobTimeout:        2 * time.Second,
		LockDuration:      5 * time.Second,
		HeartbeatInterval: 50 * time.Millisecond,
		MaxStalls:         2,
		LimiterMax:        100,
		LimiterWindow:     time.Second,
		Retention:         time.Hour,
		DedupWindow:       time.Minute,
		FetchMaxWait:      100 * time.Millisecond,
	}
}

// startServer runs an embedded JetStream server on a random port.
func startServer(t *testing.T) *EmbeddedServer {
	t.Helper()
	srv, err := NewEmbeddedServer(EmbeddedOptions{
		Host:      "127.0.0.1",
		Port:      -1,
		StoreDir:  t.TempDir(),
		MaxMemory: 64 << 20,
		MaxStore:  256 << 20,
	})
	if err != nil {
		t.Fatalf("Failed to start embedded NATS: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

type harness struct {
	queue  *Queue
	store  *fakeStore
	events *gochannel.GoChannel
	nc     *natsgo.Conn
}

func newHarness(t *testing.T, cfg *config.QueueConfig) *harness {
	t.Helper()
	srv := startServer(t)
	nc, err := Connect(srv.ClientURL(), 5*time.Second)
	checkNoError(t, err)
	t.Cleanup(nc.Close)

	events := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, watermill.NopLogger{})
	t.Cleanup(func() { _ = events.Close() })

	store := newFakeStore()
	q, err := New(context.Background(), nc, store, cfg, WithEvents(events, testEventsTopic))
	checkNoError(t, err)
	return &harness{queue: q, store: store, events: events, nc: nc}
}

// startWorker runs the pool until the test ends.
func (h *harness) startWorker(t *testing.T, runner Runner) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(h.queue, runner)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// collectEvents subscribes before the test acts and returns a function
// that drains what has arrived for sessionID until a terminal event.
func (h *harness) collectEvents(t *testing.T, sessionID string) func() []QueueEvent {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	msgs, err := h.events.Subscribe(ctx, testEventsTopic)
	checkNoError(t, err)

	return func() []QueueEvent {
		t.Helper()
		var got []QueueEvent
		timeout := time.After(10 * time.Second)
		for {
			select {
			case msg := <-msgs:
				msg.Ack()
				ev, err := DecodeEvent(msg.Payload)
				checkNoError(t, err)
				if ev.SessionID != sessionID {
					continue
				}
				got = append(got, *ev)
				if ev.Type.Terminal() {
					return got
				}
			case <-timeout:
				t.Fatalf("timed out waiting for terminal event, got %v", eventTypes(got))
				return nil
			}
		}
	}
}

func eventTypes(events []QueueEvent) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func hasEvent(events []QueueEvent, typ EventType) bool {
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

// waitForState polls Status until it reports want.
func waitForState(t *testing.T, q *Queue, sessionID string, want models.ReportJobState) *models.ReportStatus {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		st, err := q.Status(context.Background(), sessionID)
		checkNoError(t, err)
		if st.State == want {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("status = %s after 10s, want %s", st.State, want)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

type fakeStore struct {
	mu      sync.Mutex
	reports map[string]*models.SessionReport
}

func newFakeStore() *fakeStore {
	return &fakeStore{reports: make(map[string]*models.SessionReport)}
}

func (s *fakeStore) ReportExists(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reports[sessionID]
	return ok, nil
}

func (s *fakeStore) GetReportBySession(_ context.Context, sessionID string) (*models.SessionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[sessionID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) put(sessionID string) *models.SessionReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reports[sessionID]; ok {
		return r
	}
	r := &models.SessionReport{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		TutorID:     "tutor-1",
		GeneratedAt: time.Now().UTC(),
	}
	s.reports[sessionID] = r
	return r
}

// scriptedRunner decides each call's outcome with fn, which receives the
// 1-based call number. A nil error stores a report.
type scriptedRunner struct {
	store *fakeStore
	fn    func(ctx context.Context, call int) error
	calls atomic.Int32
}

func (r *scriptedRunner) Generate(ctx context.Context, sessionID string, progress report.ProgressFunc) (*models.SessionReport, error) {
	call := int(r.calls.Add(1))
	progress(report.ProgressStarted)
	if err := r.fn(ctx, call); err != nil {
		return nil, err
	}
	progress(report.ProgressResponded)
	return r.store.put(sessionID), nil
}

func succeed(context.Context, int) error { return nil }

var errProviderDown = errors.New("provider unavailable")

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
