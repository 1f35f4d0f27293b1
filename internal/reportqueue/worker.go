// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/metrics"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/report"
)

const (
	stateWriteTimeout = 5 * time.Second
	pendingRefresh    = 15 * time.Second
	fetchErrorBackoff = time.Second
)

// Runner produces the report for a session. report.Generator satisfies it.
type Runner interface {
	Generate(ctx context.Context, sessionID string, progress report.ProgressFunc) (*models.SessionReport, error)
}

// Worker pulls jobs from the queue's consumer and runs them with bounded
// concurrency. It implements suture.Service.
type Worker struct {
	q      *Queue
	runner Runner
}

// NewWorker returns a pool bound to the queue's start limit, which admits at
// most LimiterMax job starts in any LimiterWindow across all processes.
func NewWorker(q *Queue, runner Runner) *Worker {
	return &Worker{q: q, runner: runner}
}

// String names the service for the supervisor.
func (w *Worker) String() string {
	return "report-workers"
}

// Serve runs Concurrency fetch loops until ctx is cancelled.
func (w *Worker) Serve(ctx context.Context) error {
	logger := logging.WithComponent("reportqueue")
	logger.Info().
		Int("concurrency", w.q.cfg.Concurrency).
		Int("attempts", w.q.cfg.Attempts).
		Msg("Report workers started")

	var wg sync.WaitGroup
	for i := 0; i < w.q.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.refreshPending(ctx)
	}()

	wg.Wait()
	logger.Info().Msg("Report workers stopped")
	return ctx.Err()
}

func (w *Worker) loop(ctx context.Context) {
	logger := logging.WithComponent("reportqueue")
	for ctx.Err() == nil {
		batch, err := w.q.consumer.Fetch(1, jetstream.FetchMaxWait(w.q.cfg.FetchMaxWait))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("Failed to fetch report job")
			sleepCtx(ctx, fetchErrorBackoff)
			continue
		}
		for msg := range batch.Messages() {
			if ctx.Err() != nil {
				// Fetched during shutdown; hand it straight back.
				_ = msg.Nak()
				continue
			}
			w.handle(ctx, msg)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, natsgo.ErrTimeout) && ctx.Err() == nil {
			logger.Debug().Err(err).Msg("Report job fetch ended with error")
		}
	}
}

func (w *Worker) refreshPending(ctx context.Context) {
	ticker := time.NewTicker(pendingRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if info, err := w.q.consumer.Info(ctx); err == nil {
				metrics.UpdateReportQueuePending(info.NumPending)
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// stateCtx detaches state writes from shutdown so a job interrupted by
// cancellation is still recorded.
func stateCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), stateWriteTimeout)
}

func (w *Worker) handle(ctx context.Context, msg jetstream.Msg) {
	job, err := decodeJob(msg.Data())
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Dropping malformed report job")
		_ = msg.TermWithReason("malformed job")
		return
	}
	ctx = logging.ContextWithSessionID(ctx, job.SessionID)
	logger := logging.Ctx(ctx)

	rec, err := w.q.load(ctx, job.SessionID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load report job state")
		_ = msg.NakWithDelay(w.q.cfg.BackoffBase)
		return
	}
	if rec == nil {
		rec = &jobRecord{
			JobID:      job.JobID,
			SessionID:  job.SessionID,
			State:      models.ReportQueued,
			EnqueuedAt: job.CreatedAt,
		}
	}

	switch rec.State {
	case models.ReportCompleted, models.ReportFailed:
		// Finished on an earlier delivery whose ack was lost.
		_ = msg.Ack()
		return
	case models.ReportActive:
		if !w.recordStall(ctx, msg, rec) {
			return
		}
	}

	rec.State = models.ReportActive
	rec.Error = ""
	w.q.save(ctx, rec)
	attempt := rec.Attempts + 1
	w.q.events.emit(ctx, QueueEvent{
		Type:      EventActive,
		JobID:     rec.JobID,
		SessionID: rec.SessionID,
		Progress:  rec.Progress,
		Attempt:   attempt,
	})

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go w.heartbeat(hbCtx, msg)

	waitStart := time.Now()
	if err := w.q.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			logger.Error().Err(err).Msg("Report start limiter unavailable")
		}
		w.requeue(ctx, msg, rec)
		return
	}
	metrics.RecordReportJobStart(time.Since(waitStart))
	w.q.active.Add(1)
	defer w.q.active.Add(-1)

	logger.Info().Str("job_id", rec.JobID).Int("attempt", attempt).Msg("Report job started")
	start := time.Now()
	jobCtx, cancel := context.WithTimeout(ctx, w.q.cfg.JobTimeout)
	result, err := w.runner.Generate(jobCtx, rec.SessionID, func(pct int) {
		w.progress(ctx, rec, pct)
	})
	cancel()
	stopHeartbeat()
	duration := time.Since(start)

	switch {
	case err == nil:
		w.complete(ctx, msg, rec, result)
		metrics.RecordReportJobEnd(duration, "completed")
	case ctx.Err() != nil:
		w.requeue(ctx, msg, rec)
		metrics.RecordReportJobEnd(duration, "retry")
	case report.IsPermanent(err):
		w.fail(ctx, msg, rec, err.Error())
		metrics.RecordReportJobEnd(duration, "permanent")
	default:
		rec.Attempts++
		if rec.Attempts >= w.q.cfg.Attempts {
			w.fail(ctx, msg, rec, err.Error())
			metrics.RecordReportJobEnd(duration, "exhausted")
			return
		}
		w.retry(ctx, msg, rec, err)
		metrics.RecordReportJobEnd(duration, "retry")
	}
}

// recordStall counts a delivery that found the job still active, which means
// the previous holder stopped heartbeating. It reports whether the job may
// run again.
func (w *Worker) recordStall(ctx context.Context, msg jetstream.Msg, rec *jobRecord) bool {
	rec.Stalls++
	metrics.RecordReportStall()
	logging.Ctx(ctx).Warn().Int("stalls", rec.Stalls).Msg("Report job stalled")
	if rec.Stalls > w.q.cfg.MaxStalls {
		w.fail(ctx, msg, rec, fmt.Sprintf("job stalled more than %d times", w.q.cfg.MaxStalls))
		metrics.RecordReportJobAbandoned()
		return false
	}
	w.q.events.emit(ctx, QueueEvent{
		Type:      EventStalled,
		JobID:     rec.JobID,
		SessionID: rec.SessionID,
		Progress:  rec.Progress,
		Attempt:   rec.Attempts + 1,
	})
	return true
}

func (w *Worker) heartbeat(ctx context.Context, msg jetstream.Msg) {
	ticker := time.NewTicker(w.q.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := msg.InProgress(); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("Report job heartbeat failed")
			}
		}
	}
}

func (w *Worker) progress(ctx context.Context, rec *jobRecord, pct int) {
	if pct <= rec.Progress {
		return
	}
	rec.Progress = pct
	w.q.save(ctx, rec)
	w.q.events.emit(ctx, QueueEvent{
		Type:      EventProgress,
		JobID:     rec.JobID,
		SessionID: rec.SessionID,
		Progress:  pct,
		Attempt:   rec.Attempts + 1,
	})
}

func (w *Worker) complete(ctx context.Context, msg jetstream.Msg, rec *jobRecord, result *models.SessionReport) {
	sctx, cancel := stateCtx(ctx)
	defer cancel()

	rec.State = models.ReportCompleted
	rec.Progress = 100
	rec.Error = ""
	if result != nil {
		rec.ReportID = result.ID
	}
	w.q.save(sctx, rec)
	if err := msg.Ack(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to ack report job")
	}
	logging.Ctx(ctx).Info().Str("report_id", rec.ReportID).Msg("Report job completed")
	w.q.events.emit(sctx, QueueEvent{
		Type:      EventCompleted,
		JobID:     rec.JobID,
		SessionID: rec.SessionID,
		Progress:  100,
		ReportID:  rec.ReportID,
	})
}

func (w *Worker) fail(ctx context.Context, msg jetstream.Msg, rec *jobRecord, reason string) {
	sctx, cancel := stateCtx(ctx)
	defer cancel()

	rec.State = models.ReportFailed
	rec.Error = reason
	w.q.save(sctx, rec)
	if err := msg.TermWithReason(reason); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to terminate report job")
	}
	logging.Ctx(ctx).Error().Str("reason", reason).Int("attempts", rec.Attempts).Msg("Report job failed")
	w.q.events.emit(sctx, QueueEvent{
		Type:      EventFailed,
		JobID:     rec.JobID,
		SessionID: rec.SessionID,
		Progress:  rec.Progress,
		Attempt:   rec.Attempts,
		Error:     reason,
	})
}

func (w *Worker) retry(ctx context.Context, msg jetstream.Msg, rec *jobRecord, cause error) {
	rec.State = models.ReportQueued
	rec.Error = cause.Error()
	w.q.save(ctx, rec)
	delay := retryDelay(w.q.cfg.BackoffBase, rec.Attempts)
	if err := msg.NakWithDelay(delay); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to nak report job")
	}
	logging.Ctx(ctx).Warn().Err(cause).Int("attempt", rec.Attempts).Dur("delay", delay).Msg("Report job will retry")
	w.q.events.emit(ctx, QueueEvent{
		Type:      EventRetrying,
		JobID:     rec.JobID,
		SessionID: rec.SessionID,
		Progress:  rec.Progress,
		Attempt:   rec.Attempts,
		Error:     rec.Error,
	})
}

// requeue hands an interrupted job back without charging an attempt. A job
// interrupted by anything other than shutdown is redelivered after
// BackoffBase.
func (w *Worker) requeue(ctx context.Context, msg jetstream.Msg, rec *jobRecord) {
	sctx, cancel := stateCtx(ctx)
	defer cancel()

	rec.State = models.ReportQueued
	w.q.save(sctx, rec)
	var err error
	if ctx.Err() != nil {
		err = msg.Nak()
	} else {
		err = msg.NakWithDelay(w.q.cfg.BackoffBase)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to release interrupted report job")
	}
}
