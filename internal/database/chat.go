// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/tutorhub/internal/models"
)

// AddChatMessage appends one message to a session transcript.
func (db *DB) AddChatMessage(ctx context.Context, m *models.ChatMessage) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, sender_id, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, m.SenderID, m.Message, m.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns a session transcript in chronological order with
// sender display names resolved. Messages from deleted users keep an empty name.
func (db *DB) ListChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT m.id, m.session_id, m.sender_id, COALESCE(u.name, ''), m.message, m.created_at
		FROM chat_messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.session_id = ?
		ORDER BY m.created_at ASC, m.id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer closeWithLog(rows, "rows")

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.SenderID, &m.SenderName, &m.Message, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
