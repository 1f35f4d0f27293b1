// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package websocket

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/reportqueue"
)

// EventBridge forwards QueueEvents from a watermill subscriber to the hub.
type EventBridge struct {
	sub   message.Subscriber
	topic string
	hub   *Hub
}

// NewEventBridge subscribes hub to topic on sub.
func NewEventBridge(sub message.Subscriber, topic string, hub *Hub) *EventBridge {
	return &EventBridge{sub: sub, topic: topic, hub: hub}
}

// String names the service for the supervisor.
func (b *EventBridge) String() string {
	return "report-event-bridge"
}

// Serve consumes the topic until ctx is cancelled. A subscription that ends
// on its own is reported as an error so the supervisor restarts it.
func (b *EventBridge) Serve(ctx context.Context) error {
	msgs, err := b.sub.Subscribe(ctx, b.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.topic, err)
	}
	logger := logging.WithComponent("websocket")
	logger.Info().Str("topic", b.topic).Msg("Report event bridge started")

	for msg := range msgs {
		ev, err := reportqueue.DecodeEvent(msg.Payload)
		msg.Ack()
		if err != nil {
			logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Skipping undecodable report event")
			continue
		}
		b.hub.Publish(*ev)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("subscription to %s closed", b.topic)
}
