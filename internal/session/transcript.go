// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/models"
)

// Transcript limits, in characters.
const (
	MaxMessageLength = 2000
	MaxNoteLength    = 10000
)

// PostMessage appends a chat line to the session transcript. Messages are
// only accepted while the session is SCHEDULED or LIVE.
func (m *Manager) PostMessage(ctx context.Context, actor models.Actor, sessionID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, models.NewValidationError("message",
			fmt.Sprintf("Message must be between 1 and %d characters", MaxMessageLength))
	}
	s, err := m.loadForParticipant(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.Status.Occupying() {
		return nil, models.NewValidationError("status", "Session is not active")
	}

	msg := &models.ChatMessage{
		ID:        m.newID(),
		SessionID: sessionID,
		SenderID:  actor.UserID,
		Message:   text,
		Timestamp: m.now().UTC(),
	}
	if err := m.store.AddChatMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("add chat message: %w", err)
	}
	if u, err := m.store.GetUser(ctx, actor.UserID); err == nil {
		msg.SenderName = u.Name
	}
	return msg, nil
}

// ListMessages returns the transcript oldest first.
func (m *Manager) ListMessages(ctx context.Context, actor models.Actor, sessionID string) ([]models.ChatMessage, error) {
	if _, err := m.loadForParticipant(ctx, actor, sessionID); err != nil {
		return nil, err
	}
	msgs, err := m.store.ListChatMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return msgs, nil
}

// SaveNote writes the tutor's note for the session, replacing any earlier one.
func (m *Manager) SaveNote(ctx context.Context, actor models.Actor, sessionID, content string) (*models.SessionNote, error) {
	if utf8.RuneCountInString(content) > MaxNoteLength {
		return nil, models.NewValidationError("content",
			fmt.Sprintf("Notes must be at most %d characters", MaxNoteLength))
	}
	s, err := m.loadForParticipant(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if s.TutorID != actor.UserID {
		return nil, models.NewAccessDeniedError("Only the tutor can write session notes")
	}

	n := &models.SessionNote{
		SessionID: sessionID,
		TutorID:   actor.UserID,
		Content:   content,
		UpdatedAt: m.now().UTC(),
	}
	if err := m.store.UpsertNote(ctx, n); err != nil {
		return nil, fmt.Errorf("save note: %w", err)
	}
	return n, nil
}

// GetNote returns the session note to either participant.
func (m *Manager) GetNote(ctx context.Context, actor models.Actor, sessionID string) (*models.SessionNote, error) {
	if _, err := m.loadForParticipant(ctx, actor, sessionID); err != nil {
		return nil, err
	}
	n, err := m.store.GetNote(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewNotFoundError("Notes", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load note: %w", err)
	}
	return n, nil
}
