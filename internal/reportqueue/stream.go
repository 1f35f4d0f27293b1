// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/tutorhub/internal/config"
)

// streamAPI is the subset of jetstream.JetStream used to provision the queue.
type streamAPI interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

func streamConfig(cfg *config.QueueConfig) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "Session report generation jobs",
		Subjects:    []string{cfg.Subject},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      cfg.Retention,
		Duplicates:  cfg.DedupWindow,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
	}
}

// ensureStream creates the job stream or brings an existing one up to date.
// It is idempotent.
func ensureStream(ctx context.Context, js streamAPI, cfg *config.QueueConfig) (jetstream.Stream, error) {
	scfg := streamConfig(cfg)

	_, err := js.Stream(ctx, cfg.Stream)
	if err == nil {
		stream, err := js.UpdateStream(ctx, scfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", cfg.Stream, err)
		}
		return stream, nil
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err := js.CreateStream(ctx, scfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", cfg.Stream, err)
		}
		return stream, nil
	}

	return nil, fmt.Errorf("check stream %s: %w", cfg.Stream, err)
}

// consumerConfig sizes the durable pull consumer. AckWait is the job lock.
// Delivery is unbounded: shutdown releases do not count as attempts, so the
// workers' attempt and stall limits are the only ones that end a job.
func consumerConfig(cfg *config.QueueConfig) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:       cfg.Consumer,
		Description:   "Report generation workers",
		FilterSubject: cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.LockDuration,
		MaxDeliver:    -1,
		MaxAckPending: cfg.Concurrency * 4,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}
}

func ensureConsumer(ctx context.Context, stream jetstream.Stream, cfg *config.QueueConfig) (jetstream.Consumer, error) {
	cons, err := stream.CreateOrUpdateConsumer(ctx, consumerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create consumer %s: %w", cfg.Consumer, err)
	}
	return cons, nil
}

func ensureBucket(ctx context.Context, js jetstream.JetStream, cfg *config.QueueConfig) (jetstream.KeyValue, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.StateBucket,
		Description: "Report job state by session id",
		TTL:         cfg.Retention,
		History:     1,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create key-value bucket %s: %w", cfg.StateBucket, err)
	}
	return kv, nil
}
