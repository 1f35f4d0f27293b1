// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/tutorhub/internal/config"
	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/metrics"
	"github.com/tomtom215/tutorhub/internal/models"
)

// claimRetries bounds the optimistic KV loop in Enqueue.
const claimRetries = 5

// Store is the report lookup the queue needs to answer for finished jobs.
type Store interface {
	ReportExists(ctx context.Context, sessionID string) (bool, error)
	GetReportBySession(ctx context.Context, sessionID string) (*models.SessionReport, error)
}

// Queue enqueues report jobs and reports their status. Workers are run by
// Worker.
type Queue struct {
	cfg      config.QueueConfig
	js       jetstream.JetStream
	stream   jetstream.Stream
	consumer jetstream.Consumer
	kv       jetstream.KeyValue
	store    Store
	events   *eventSink
	limiter  *startLimiter
	now      func() time.Time

	active atomic.Int64
}

// Option configures a Queue.
type Option func(*Queue)

// WithEvents publishes QueueEvents on topic.
func WithEvents(pub message.Publisher, topic string) Option {
	return func(q *Queue) {
		q.events = &eventSink{pub: pub, topic: topic}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// New provisions the stream, consumer and state bucket on nc and returns a
// ready queue.
func New(ctx context.Context, nc *natsgo.Conn, store Store, cfg *config.QueueConfig, opts ...Option) (*Queue, error) {
	if nc == nil {
		return nil, fmt.Errorf("NATS connection required")
	}
	if store == nil {
		return nil, fmt.Errorf("report store required")
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	stream, err := ensureStream(ctx, js, cfg)
	if err != nil {
		return nil, err
	}
	consumer, err := ensureConsumer(ctx, stream, cfg)
	if err != nil {
		return nil, err
	}
	kv, err := ensureBucket(ctx, js, cfg)
	if err != nil {
		return nil, err
	}

	q := &Queue{
		cfg:      *cfg,
		js:       js,
		stream:   stream,
		consumer: consumer,
		kv:       kv,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.limiter = newStartLimiter(kv, cfg.LimiterMax, cfg.LimiterWindow, q.now)
	return q, nil
}

func completedHandle(sessionID string) *models.ReportJobHandle {
	return &models.ReportJobHandle{
		JobID:     JobID(sessionID),
		SessionID: sessionID,
		State:     models.ReportCompleted,
		Existing:  true,
	}
}

// Enqueue requests a report for sessionID. An existing report, or a job that
// is already queued or active, is returned with Existing set instead of
// starting a second job. A job that previously failed is started afresh.
func (q *Queue) Enqueue(ctx context.Context, sessionID string) (*models.ReportJobHandle, error) {
	exists, err := q.store.ReportExists(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("check existing report: %w", err)
	}
	if exists {
		metrics.RecordReportEnqueue("existing_report")
		return completedHandle(sessionID), nil
	}

	for range claimRetries {
		handle, retry, err := q.claim(ctx, sessionID)
		if !retry {
			return handle, err
		}
	}
	return nil, fmt.Errorf("enqueue report for session %s: state changed concurrently", sessionID)
}

// claim takes the session's job slot in KV and publishes the job. retry is
// true when another writer changed the key first.
func (q *Queue) claim(ctx context.Context, sessionID string) (handle *models.ReportJobHandle, retry bool, err error) {
	now := q.now().UTC()
	rec := &jobRecord{
		JobID:      JobID(sessionID),
		SessionID:  sessionID,
		State:      models.ReportQueued,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}
	data, err := rec.marshal()
	if err != nil {
		return nil, false, err
	}

	var rev uint64
	entry, err := q.kv.Get(ctx, sessionID)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		rev, err = q.kv.Create(ctx, sessionID, data)
	case err != nil:
		return nil, false, fmt.Errorf("read job state: %w", err)
	default:
		existing, derr := unmarshalRecord(entry.Value())
		if derr == nil && existing.pending() {
			metrics.RecordReportEnqueue("joined")
			return &models.ReportJobHandle{
				JobID:     existing.JobID,
				SessionID: sessionID,
				State:     existing.State,
				Existing:  true,
			}, false, nil
		}
		if derr == nil && existing.State == models.ReportCompleted {
			metrics.RecordReportEnqueue("existing_report")
			return completedHandle(sessionID), false, nil
		}
		rev, err = q.kv.Update(ctx, sessionID, data, entry.Revision())
	}
	if isRevisionConflict(err) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("claim job: %w", err)
	}

	if err := q.publish(ctx, rec, rev); err != nil {
		rec.State = models.ReportFailed
		rec.Error = "could not be queued"
		q.releaseClaim(ctx, rec, rev)
		return nil, false, err
	}

	metrics.RecordReportEnqueue("queued")
	logging.Ctx(ctx).Info().Str("job_id", rec.JobID).Msg("Report job queued")
	q.events.emit(ctx, QueueEvent{
		Type:      EventQueued,
		JobID:     rec.JobID,
		SessionID: sessionID,
	})
	return &models.ReportJobHandle{
		JobID:     rec.JobID,
		SessionID: sessionID,
		State:     models.ReportQueued,
	}, false, nil
}

func (q *Queue) publish(ctx context.Context, rec *jobRecord, rev uint64) error {
	payload, err := encodeJob(jobMessage{
		Kind:      JobKind,
		JobID:     rec.JobID,
		SessionID: rec.SessionID,
		CreatedAt: rec.EnqueuedAt,
	})
	if err != nil {
		return err
	}
	msgID := fmt.Sprintf("%s-%d", rec.JobID, rev)
	ack, err := q.js.Publish(ctx, q.cfg.Subject, payload, jetstream.WithMsgID(msgID))
	if err != nil {
		return fmt.Errorf("publish report job: %w", err)
	}
	if ack.Duplicate {
		metrics.RecordNATSDeduplicated()
	}
	metrics.RecordNATSPublish(q.cfg.Subject)
	return nil
}

func (q *Queue) releaseClaim(ctx context.Context, rec *jobRecord, rev uint64) {
	data, err := rec.marshal()
	if err == nil {
		_, err = q.kv.Update(context.WithoutCancel(ctx), rec.SessionID, data, rev)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to release report job claim")
	}
}

func isRevisionConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

// load returns the job record for sessionID, or nil when there is none.
func (q *Queue) load(ctx context.Context, sessionID string) (*jobRecord, error) {
	entry, err := q.kv.Get(ctx, sessionID)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read job state: %w", err)
	}
	return unmarshalRecord(entry.Value())
}

// save writes rec unconditionally. Only the worker holding the message
// writes a pending record, so last-writer-wins is safe here.
func (q *Queue) save(ctx context.Context, rec *jobRecord) {
	rec.UpdatedAt = q.now().UTC()
	data, err := rec.marshal()
	if err == nil {
		_, err = q.kv.Put(ctx, rec.SessionID, data)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("state", string(rec.State)).Msg("Failed to save report job state")
	}
}

// Status reports the job state for sessionID. A stored report always reads
// as completed; a session that was never queued reads as not_started.
func (q *Queue) Status(ctx context.Context, sessionID string) (*models.ReportStatus, error) {
	r, err := q.store.GetReportBySession(ctx, sessionID)
	if err == nil {
		generated := r.GeneratedAt
		return &models.ReportStatus{
			SessionID: sessionID,
			State:     models.ReportCompleted,
			Progress:  100,
			ReportID:  r.ID,
			UpdatedAt: &generated,
		}, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("check report: %w", err)
	}

	rec, err := q.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &models.ReportStatus{SessionID: sessionID, State: models.ReportNotStarted}, nil
	}
	return rec.status(), nil
}

// Overview is the admin view of the queue.
type Overview struct {
	Stream        string `json:"stream"`
	Consumer      string `json:"consumer"`
	Messages      uint64 `json:"messages"`
	Pending       uint64 `json:"pending"`
	AckPending    int    `json:"ackPending"`
	Redelivered   int    `json:"redelivered"`
	Active        int64  `json:"active"`
	Concurrency   int    `json:"concurrency"`
	Attempts      int    `json:"attempts"`
	MaxStalls     int    `json:"maxStalls"`
	LimiterMax    int    `json:"limiterMax"`
	LimiterWindow string `json:"limiterWindow"`
	LimiterStarts int    `json:"limiterStarts"`
	LockDuration  string `json:"lockDuration"`
}

// Overview reads stream and consumer counters.
func (q *Queue) Overview(ctx context.Context) (*Overview, error) {
	sinfo, err := q.stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("stream info: %w", err)
	}
	cinfo, err := q.consumer.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("consumer info: %w", err)
	}
	starts, err := q.limiter.inWindow(ctx)
	if err != nil {
		return nil, err
	}
	metrics.UpdateReportQueuePending(cinfo.NumPending)
	return &Overview{
		Stream:        q.cfg.Stream,
		Consumer:      q.cfg.Consumer,
		Messages:      sinfo.State.Msgs,
		Pending:       cinfo.NumPending,
		AckPending:    cinfo.NumAckPending,
		Redelivered:   cinfo.NumRedelivered,
		Active:        q.active.Load(),
		Concurrency:   q.cfg.Concurrency,
		Attempts:      q.cfg.Attempts,
		MaxStalls:     q.cfg.MaxStalls,
		LimiterMax:    q.cfg.LimiterMax,
		LimiterWindow: q.cfg.LimiterWindow.String(),
		LimiterStarts: starts,
		LockDuration:  q.cfg.LockDuration.String(),
	}, nil
}

// Ping checks that the stream is reachable.
func (q *Queue) Ping(ctx context.Context) error {
	if _, err := q.js.Stream(ctx, q.cfg.Stream); err != nil {
		return fmt.Errorf("report stream unavailable: %w", err)
	}
	return nil
}
