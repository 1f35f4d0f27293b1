// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/tutorhub/internal/config"
)

// EmbeddedServer wraps an in-process NATS server with JetStream enabled.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// EmbeddedOptions tunes the embedded server. Port -1 picks a random port.
type EmbeddedOptions struct {
	Host      string
	Port      int
	StoreDir  string
	MaxMemory int64
	MaxStore  int64
}

// EmbeddedOptionsFromConfig derives server options from the NATS config. The
// host and port are taken from NATSConfig.URL.
func EmbeddedOptionsFromConfig(cfg *config.NATSConfig) (EmbeddedOptions, error) {
	host, port, err := config.NATSHostPort(cfg.URL)
	if err != nil {
		return EmbeddedOptions{}, err
	}
	return EmbeddedOptions{
		Host:      host,
		Port:      port,
		StoreDir:  cfg.StoreDir,
		MaxMemory: cfg.MaxMemory,
		MaxStore:  cfg.MaxStore,
	}, nil
}

// NewEmbeddedServer starts the server and waits up to 30 seconds for it to
// accept connections.
func NewEmbeddedServer(opts EmbeddedOptions) (*EmbeddedServer, error) {
	sopts := &server.Options{
		ServerName:         "tutorhub-reports",
		Host:               opts.Host,
		Port:               opts.Port,
		JetStream:          true,
		StoreDir:           opts.StoreDir,
		JetStreamMaxMemory: opts.MaxMemory,
		JetStreamMaxStore:  opts.MaxStore,
		NoLog:              true,
		NoSigs:             true,
		MaxPayload:         1024 * 1024,
	}

	ns, err := server.NewServer(sopts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}

	return &EmbeddedServer{
		server:    ns,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server. It returns ctx.Err() if ctx ends before the
// server has drained.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// IsRunning reports server health.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// JetStreamEnabled reports whether JetStream is enabled.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.server.JetStreamEnabled()
}
