// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/report"
)

func TestWorker_CompletesJob(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())
	sessionID := uuid.NewString()
	drain := h.collectEvents(t, sessionID)
	runner := &scriptedRunner{store: h.store, fn: succeed}
	h.startWorker(t, runner)

	_, err := h.queue.Enqueue(context.Background(), sessionID)
	checkNoError(t, err)

	events := drain()
	for _, typ := range []EventType{EventQueued, EventActive, EventProgress, EventCompleted} {
		if !hasEvent(events, typ) {
			t.Errorf("events %v missing %s", eventTypes(events), typ)
		}
	}
	last := events[len(events)-1]
	if last.Progress != 100 || last.ReportID == "" {
		t.Errorf("completed event = %+v, want progress 100 with report id", last)
	}

	st := waitForState(t, h.queue, sessionID, models.ReportCompleted)
	if st.Progress != 100 {
		t.Errorf("progress = %d, want 100", st.Progress)
	}
	if runner.calls.Load() != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls.Load())
	}
}

func TestWorker_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())
	sessionID := uuid.NewString()
	drain := h.collectEvents(t, sessionID)
	runner := &scriptedRunner{store: h.store, fn: func(_ context.Context, call int) error {
		if call == 1 {
			return errProviderDown
		}
		return nil
	}}
	h.startWorker(t, runner)

	_, err := h.queue.Enqueue(context.Background(), sessionID)
	checkNoError(t, err)

	events := drain()
	if !hasEvent(events, EventRetrying) {
		t.Errorf("events %v missing retrying", eventTypes(events))
	}
	if last := events[len(events)-1]; last.Type != EventCompleted {
		t.Errorf("last event = %s, want completed", last.Type)
	}
	if runner.calls.Load() != 2 {
		t.Errorf("runner calls = %d, want 2", runner.calls.Load())
	}
}

func TestWorker_ExhaustsAttempts(t *testing.T) {
	t.Parallel()
	cfg := testQueueConfig()
	h := newHarness(t, cfg)
	sessionID := uuid.NewString()
	runner := &scriptedRunner{store: h.store, fn: func(context.Context, int) error {
		return errProviderDown
	}}
	h.startWorker(t, runner)

	_, err := h.queue.Enqueue(context.Background(), sessionID)
	checkNoError(t, err)

	st := waitForState(t, h.queue, sessionID, models.ReportFailed)
	if st.Attempts != cfg.Attempts {
		t.Errorf("attempts = %d, want %d", st.Attempts, cfg.Attempts)
	}
	if !strings.Contains(st.Error, errProviderDown.Error()) {
		t.Errorf("error = %q, want provider failure", st.Error)
	}
	if got := int(runner.calls.Load()); got != cfg.Attempts {
		t.Errorf("runner calls = %d, want %d", got, cfg.Attempts)
	}
}

func TestWorker_PermanentErrorFailsImmediately(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())
	sessionID := uuid.NewString()
	runner := &scriptedRunner{store: h.store, fn: func(context.Context, int) error {
		return &report.PermanentError{Err: report.ErrSessionNotCompleted}
	}}
	h.startWorker(t, runner)

	_, err := h.queue.Enqueue(context.Background(), sessionID)
	checkNoError(t, err)

	st := waitForState(t, h.queue, sessionID, models.ReportFailed)
	if st.Attempts != 0 {
		t.Errorf("attempts = %d, want 0 for a permanent failure", st.Attempts)
	}
	// Give a wrongly retried job time to show up.
	time.Sleep(100 * time.Millisecond)
	if runner.calls.Load() != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls.Load())
	}
}

func TestWorker_JobTimeoutIsRetryable(t *testing.T) {
	t.Parallel()
	cfg := testQueueConfig()
	cfg.JobTimeout = 50 * time.Millisecond
	cfg.Attempts = 2
	h := newHarness(t, cfg)
	sessionID := uuid.NewString()
	runner := &scriptedRunner{store: h.store, fn: func(ctx context.Context, _ int) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	h.startWorker(t, runner)

	_, err := h.queue.Enqueue(context.Background(), sessionID)
	checkNoError(t, err)

	st := waitForState(t, h.queue, sessionID, models.ReportFailed)
	if st.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", st.Attempts)
	}
	if !strings.Contains(st.Error, context.DeadlineExceeded.Error()) {
		t.Errorf("error = %q, want deadline exceeded", st.Error)
	}
}

func TestEnqueue_AfterFailureStartsFresh(t *testing.T) {
	t.Parallel()
	cfg := testQueueConfig()
	cfg.Attempts = 1
	h := newHarness(t, cfg)
	sessionID := uuid.NewString()
	runner := &scriptedRunner{store: h.store, fn: func(_ context.Context, call int) error {
		if call == 1 {
			return errProviderDown
		}
		return nil
	}}
	h.startWorker(t, runner)
	ctx := context.Background()

	_, err := h.queue.Enqueue(ctx, sessionID)
	checkNoError(t, err)
	waitForState(t, h.queue, sessionID, models.ReportFailed)

	handle, err := h.queue.Enqueue(ctx, sessionID)
	checkNoError(t, err)
	if handle.Existing || handle.State != models.ReportQueued {
		t.Errorf("re-enqueue = %+v, want a fresh queued job", handle)
	}
	waitForState(t, h.queue, sessionID, models.ReportCompleted)
}

// seedActive leaves a job marked active with a message on the stream, as a
// worker that died mid-job would.
func seedActive(t *testing.T, h *harness, sessionID string, stalls int) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	rec := &jobRecord{
		JobID:      JobID(sessionID),
		SessionID:  sessionID,
		State:      models.ReportActive,
		Progress:   30,
		Stalls:     stalls,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}
	data, err := rec.marshal()
	checkNoError(t, err)
	rev, err := h.queue.kv.Create(ctx, sessionID, data)
	checkNoError(t, err)
	checkNoError(t, h.queue.publish(ctx, rec, rev))
}

func TestWorker_StalledJobIsRecovered(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())
	sessionID := uuid.NewString()
	drain := h.collectEvents(t, sessionID)
	seedActive(t, h, sessionID, 0)

	runner := &scriptedRunner{store: h.store, fn: succeed}
	h.startWorker(t, runner)

	events := drain()
	if !hasEvent(events, EventStalled) {
		t.Errorf("events %v missing stalled", eventTypes(events))
	}
	if last := events[len(events)-1]; last.Type != EventCompleted {
		t.Errorf("last event = %s, want completed", last.Type)
	}

	rec, err := h.queue.load(context.Background(), sessionID)
	checkNoError(t, err)
	if rec.Stalls != 1 {
		t.Errorf("stalls = %d, want 1", rec.Stalls)
	}
}

func TestWorker_TooManyStallsFails(t *testing.T) {
	t.Parallel()
	cfg := testQueueConfig()
	h := newHarness(t, cfg)
	sessionID := uuid.NewString()
	seedActive(t, h, sessionID, cfg.MaxStalls)

	runner := &scriptedRunner{store: h.store, fn: succeed}
	h.startWorker(t, runner)

	st := waitForState(t, h.queue, sessionID, models.ReportFailed)
	if !strings.Contains(st.Error, "stalled") {
		t.Errorf("error = %q, want stall failure", st.Error)
	}
	if runner.calls.Load() != 0 {
		t.Errorf("runner calls = %d, want 0", runner.calls.Load())
	}
}

func TestWorker_DropsMalformedJob(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())
	ctx := context.Background()

	_, err := h.queue.js.Publish(ctx, h.queue.cfg.Subject, []byte(`{"kind":"unknown"}`))
	checkNoError(t, err)

	runner := &scriptedRunner{store: h.store, fn: succeed}
	h.startWorker(t, runner)

	deadline := time.Now().Add(10 * time.Second)
	for {
		ov, err := h.queue.Overview(ctx)
		checkNoError(t, err)
		if ov.Messages == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("malformed job still on stream")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if runner.calls.Load() != 0 {
		t.Errorf("runner calls = %d, want 0", runner.calls.Load())
	}
}

func TestWorker_ShutdownRequeuesWithoutChargingAttempt(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())
	sessionID := uuid.NewString()
	started := make(chan struct{})
	runner := &scriptedRunner{store: h.store, fn: func(ctx context.Context, _ int) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(h.queue, runner)
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	_, err := h.queue.Enqueue(context.Background(), sessionID)
	checkNoError(t, err)
	<-started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}

	st, err := h.queue.Status(context.Background(), sessionID)
	checkNoError(t, err)
	if st.State != models.ReportQueued || st.Attempts != 0 {
		t.Errorf("status = %+v, want queued with no attempts charged", st)
	}
}

func TestWorker_RestartsAfterRepeatedShutdowns(t *testing.T) {
	t.Parallel()
	cfg := testQueueConfig()
	cfg.Attempts = 1
	cfg.MaxStalls = 0
	h := newHarness(t, cfg)
	sessionID := uuid.NewString()

	_, err := h.queue.Enqueue(context.Background(), sessionID)
	checkNoError(t, err)

	// More shutdowns than the attempt and stall limits combined.
	for i := 0; i < 3; i++ {
		started := make(chan struct{})
		runner := &scriptedRunner{store: h.store, fn: func(ctx context.Context, _ int) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}}
		ctx, cancel := context.WithCancel(context.Background())
		w := NewWorker(h.queue, runner)
		done := make(chan error, 1)
		go func() { done <- w.Serve(ctx) }()

		select {
		case <-started:
		case <-time.After(10 * time.Second):
			t.Fatalf("restart %d: job was not redelivered", i)
		}
		cancel()
		<-done
		waitForState(t, h.queue, sessionID, models.ReportQueued)
	}

	runner := &scriptedRunner{store: h.store, fn: succeed}
	h.startWorker(t, runner)

	st := waitForState(t, h.queue, sessionID, models.ReportCompleted)
	if st.Attempts != 0 {
		t.Errorf("attempts = %d, want none charged by shutdowns", st.Attempts)
	}
	if runner.calls.Load() != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls.Load())
	}
}

func TestConsumerConfig_UnboundedDelivery(t *testing.T) {
	t.Parallel()
	cfg := testQueueConfig()
	if got := consumerConfig(cfg).MaxDeliver; got != -1 {
		t.Errorf("MaxDeliver = %d, want -1", got)
	}
}
