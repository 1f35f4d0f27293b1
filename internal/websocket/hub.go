// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/metrics"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/reportqueue"
)

const broadcastBuffer = 256

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Hub tracks progress subscribers by session id.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[*Client]struct{}
	broadcast chan reportqueue.QueueEvent
	upgrader  websocket.Upgrader
}

// NewHub creates a hub. allowedOrigins restricts the Origin header of
// upgrade requests; "*" allows any origin and an empty list allows only
// same-host requests.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		clients:   make(map[string]map[*Client]struct{}),
		broadcast: make(chan reportqueue.QueueEvent, broadcastBuffer),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// String names the service for the supervisor.
func (h *Hub) String() string {
	return "websocket-hub"
}

// Register adds c to its session's subscriber set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.sessionID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.sessionID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSConnections.Inc()
	logging.Debug().Str("session_id", c.sessionID).Uint64("client_id", c.id).Msg("Report progress client connected")
}

// Unregister removes c and closes its send channel. It is safe to call
// more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.sessionID]
	_, present := set[c]
	if ok && present {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.sessionID)
		}
	}
	h.mu.Unlock()
	if present {
		metrics.WSConnections.Dec()
		c.closeSend()
	}
}

// Publish queues ev for delivery. It never blocks; events are dropped when
// the hub is saturated.
func (h *Hub) Publish(ev reportqueue.QueueEvent) {
	select {
	case h.broadcast <- ev:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("session_id", ev.SessionID).Str("event", string(ev.Type)).Msg("Dropped report event, hub saturated")
	}
}

// Serve delivers published events until ctx is cancelled, then closes
// every client.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			logging.Info().
				Str("component", h.String()).
				Str("reason", string(shutdownReason(ctx))).
				Msg("WebSocket hub stopped")
			return ctx.Err()
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func shutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sessionClients returns the session's clients ordered by id.
func (h *Hub) sessionClients(sessionID string) []*Client {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[sessionID]))
	for c := range h.clients[sessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

func (h *Hub) deliver(ev reportqueue.QueueEvent) {
	msg := Message{Type: MessageTypeEvent, Data: ev, final: ev.Type.Terminal()}
	for _, c := range h.sessionClients(ev.SessionID) {
		c.enqueue(msg)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.mu.Unlock()
	for _, c := range all {
		metrics.WSConnections.Dec()
		c.closeSend()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// StatusFunc returns the current job state for the snapshot message.
type StatusFunc func(ctx context.Context) (*models.ReportStatus, error)

// ServeSession upgrades the request and streams sessionID's progress.
// Callers authorize the request before calling. The client is registered
// before the snapshot is taken so no event between the two is lost.
func (h *Hub) ServeSession(w http.ResponseWriter, r *http.Request, sessionID string, status StatusFunc) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := newClient(h, conn, sessionID)
	h.Register(c)
	c.start()

	snapshot, err := status(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to read report status for stream")
		h.Unregister(c)
		return
	}
	finished := snapshot.State == models.ReportCompleted || snapshot.State == models.ReportFailed
	c.enqueue(Message{Type: MessageTypeStatus, Data: snapshot, final: finished})
}
