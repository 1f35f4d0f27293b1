// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tutorhub/internal/models"
)

func TestJobID(t *testing.T) {
	t.Parallel()
	if got := JobID("abc"); got != "report-abc" {
		t.Errorf("JobID = %s, want report-abc", got)
	}
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()
	base := 2 * time.Second
	tests := []struct {
		n    int
		want time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{0, 2 * time.Second},
	}
	for _, tt := range tests {
		if got := retryDelay(base, tt.n); got != tt.want {
			t.Errorf("retryDelay(%v, %d) = %v, want %v", base, tt.n, got, tt.want)
		}
	}
}

func TestDecodeJob(t *testing.T) {
	t.Parallel()
	data, err := encodeJob(jobMessage{Kind: JobKind, JobID: "report-s1", SessionID: "s1"})
	checkNoError(t, err)
	job, err := decodeJob(data)
	checkNoError(t, err)
	if job.SessionID != "s1" {
		t.Errorf("SessionID = %s, want s1", job.SessionID)
	}

	for _, bad := range []string{`{`, `{"kind":"other","sessionId":"s1"}`, `{"kind":"session_report"}`} {
		if _, err := decodeJob([]byte(bad)); err == nil {
			t.Errorf("decodeJob(%s) expected error", bad)
		}
	}
}

func TestEnsureStream_Idempotent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())

	// A second queue on the same broker updates rather than recreates.
	q2, err := New(context.Background(), h.nc, h.store, testQueueConfig())
	checkNoError(t, err)
	checkNoError(t, q2.Ping(context.Background()))
}

func TestStatus_NotStarted(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())

	st, err := h.queue.Status(context.Background(), uuid.NewString())
	checkNoError(t, err)
	if st.State != models.ReportNotStarted || st.Progress != 0 {
		t.Errorf("status = %+v, want not_started at 0", st)
	}
}

func TestEnqueue_QueuedThenJoined(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())
	ctx := context.Background()
	sessionID := uuid.NewString()

	first, err := h.queue.Enqueue(ctx, sessionID)
	checkNoError(t, err)
	if first.State != models.ReportQueued || first.Existing {
		t.Errorf("first enqueue = %+v, want fresh queued job", first)
	}
	if first.JobID != JobID(sessionID) {
		t.Errorf("JobID = %s, want %s", first.JobID, JobID(sessionID))
	}

	second, err := h.queue.Enqueue(ctx, sessionID)
	checkNoError(t, err)
	if !second.Existing || second.JobID != first.JobID {
		t.Errorf("second enqueue = %+v, want existing %s", second, first.JobID)
	}

	st, err := h.queue.Status(ctx, sessionID)
	checkNoError(t, err)
	if st.State != models.ReportQueued {
		t.Errorf("status = %s, want queued", st.State)
	}
}

func TestEnqueue_ConcurrentPublishesOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())
	ctx := context.Background()
	sessionID := uuid.NewString()

	const callers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fresh int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle, err := h.queue.Enqueue(ctx, sessionID)
			if err != nil {
				t.Errorf("Enqueue: %v", err)
				return
			}
			if !handle.Existing {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if fresh != 1 {
		t.Errorf("fresh enqueues = %d, want 1", fresh)
	}
	ov, err := h.queue.Overview(ctx)
	checkNoError(t, err)
	if ov.Messages != 1 {
		t.Errorf("stream messages = %d, want 1", ov.Messages)
	}
}

func TestEnqueue_ExistingReportShortCircuits(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())
	ctx := context.Background()
	sessionID := uuid.NewString()
	stored := h.store.put(sessionID)

	handle, err := h.queue.Enqueue(ctx, sessionID)
	checkNoError(t, err)
	if handle.State != models.ReportCompleted || !handle.Existing {
		t.Errorf("handle = %+v, want existing completed", handle)
	}

	ov, err := h.queue.Overview(ctx)
	checkNoError(t, err)
	if ov.Messages != 0 {
		t.Errorf("stream messages = %d, want 0", ov.Messages)
	}

	st, err := h.queue.Status(ctx, sessionID)
	checkNoError(t, err)
	if st.State != models.ReportCompleted || st.Progress != 100 || st.ReportID != stored.ID {
		t.Errorf("status = %+v, want completed with report %s", st, stored.ID)
	}
}

func TestStatus_ReportTakesPrecedenceOverJobState(t *testing.T) {
	t.Parallel()
	h := newHarness(t, testQueueConfig())
	ctx := context.Background()
	sessionID := uuid.NewString()

	_, err := h.queue.Enqueue(ctx, sessionID)
	checkNoError(t, err)
	stored := h.store.put(sessionID)

	st, err := h.queue.Status(ctx, sessionID)
	checkNoError(t, err)
	if st.State != models.ReportCompleted || st.ReportID != stored.ID {
		t.Errorf("status = %+v, want completed from the reports table", st)
	}
}

func TestOverview_ReportsPolicy(t *testing.T) {
	t.Parallel()
	cfg := testQueueConfig()
	h := newHarness(t, cfg)

	ov, err := h.queue.Overview(context.Background())
	checkNoError(t, err)
	if ov.Stream != cfg.Stream || ov.Consumer != cfg.Consumer {
		t.Errorf("overview names = %s/%s", ov.Stream, ov.Consumer)
	}
	if ov.Concurrency != cfg.Concurrency || ov.Attempts != cfg.Attempts || ov.MaxStalls != cfg.MaxStalls {
		t.Errorf("overview policy = %+v", ov)
	}
	if ov.LimiterMax != cfg.LimiterMax || ov.LimiterStarts != 0 {
		t.Errorf("overview limiter = %d/%d, want 0/%d", ov.LimiterStarts, ov.LimiterMax, cfg.LimiterMax)
	}
}
