// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package websocket

// Message types.
const (
	MessageTypeStatus = "report_status"
	MessageTypeEvent  = "report_event"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
)

// Message is a frame sent to or received from a client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`

	// final closes the connection after this message is written.
	final bool
}
