// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/metrics"
)

// EventType names a job lifecycle change.
type EventType string

const (
	EventQueued    EventType = "queued"
	EventActive    EventType = "active"
	EventProgress  EventType = "progress"
	EventRetrying  EventType = "retrying"
	EventStalled   EventType = "stalled"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Terminal reports whether no further events follow for the job.
func (t EventType) Terminal() bool {
	return t == EventCompleted || t == EventFailed
}

// QueueEvent is broadcast on the events topic for every job state change.
type QueueEvent struct {
	Type      EventType `json:"type"`
	JobID     string    `json:"jobId"`
	SessionID string    `json:"sessionId"`
	Progress  int       `json:"progress"`
	Attempt   int       `json:"attempt,omitempty"`
	Error     string    `json:"error,omitempty"`
	ReportID  string    `json:"reportId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DecodeEvent parses a watermill message payload.
func DecodeEvent(payload []byte) (*QueueEvent, error) {
	var ev QueueEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode queue event: %w", err)
	}
	return &ev, nil
}

// eventSink publishes QueueEvents. Publish failures are logged and dropped;
// the KV record remains the source of truth for job state.
type eventSink struct {
	pub   message.Publisher
	topic string
}

func (s *eventSink) emit(ctx context.Context, ev QueueEvent) {
	if s == nil || s.pub == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to encode queue event")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("session_id", ev.SessionID)
	msg.Metadata.Set("event_type", string(ev.Type))
	if err := s.pub.Publish(s.topic, msg); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event", string(ev.Type)).Msg("Failed to publish queue event")
		return
	}
	metrics.RecordNATSPublish(s.topic)
}

// NewNATSEventPublisher returns a watermill publisher on core NATS for
// QueueEvents. Events are transient so JetStream is not used.
func NewNATSEventPublisher(url string, connectTimeout time.Duration) (message.Publisher, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOptions("tutorhub-events-pub", connectTimeout),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logging.NewWatermillLogger())
	if err != nil {
		return nil, fmt.Errorf("create event publisher: %w", err)
	}
	return pub, nil
}

// NewNATSEventSubscriber returns a fan-out subscriber for QueueEvents. Every
// process receives every event.
func NewNATSEventSubscriber(url string, connectTimeout time.Duration) (message.Subscriber, error) {
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		SubscribersCount: 1,
		CloseTimeout:     5 * time.Second,
		AckWaitTimeout:   5 * time.Second,
		NatsOptions:      natsOptions("tutorhub-events-sub", connectTimeout),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logging.NewWatermillLogger())
	if err != nil {
		return nil, fmt.Errorf("create event subscriber: %w", err)
	}
	return sub, nil
}
