// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/tutorhub/internal/logging"
)

const (
	maxReconnects   = -1
	reconnectWait   = 2 * time.Second
	reconnectBuffer = 8 * 1024 * 1024
)

// natsOptions are shared by the job connection and the watermill event
// publisher and subscriber.
func natsOptions(name string, connectTimeout time.Duration) []natsgo.Option {
	logger := logging.WithComponent("nats")
	return []natsgo.Option{
		natsgo.Name(name),
		natsgo.Timeout(connectTimeout),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(maxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.ReconnectBufSize(reconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Str("client", name).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("client", name).Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		natsgo.ErrorHandler(func(_ *natsgo.Conn, sub *natsgo.Subscription, err error) {
			ev := logger.Error().Err(err).Str("client", name)
			if sub != nil {
				ev = ev.Str("subject", sub.Subject)
			}
			ev.Msg("NATS error")
		}),
	}
}

// Connect dials the broker for the job queue.
func Connect(url string, connectTimeout time.Duration) (*natsgo.Conn, error) {
	nc, err := natsgo.Connect(url, natsOptions("tutorhub-reports", connectTimeout)...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}
