// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tutorhub/internal/session"
)

// CreateSession books a session for the calling student.
//
// @Summary Book a session
// @Description Books a SCHEDULED session with a tutor. The slot check and insert are atomic; a failed video room setup only adds meta.warning.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body CreateSessionRequest true "Booking"
// @Success 201 {object} APIResponse{data=models.Session}
// @Failure 400 {object} APIResponse
// @Failure 403 {object} APIResponse "Only students can book sessions"
// @Failure 404 {object} APIResponse "Tutor not found"
// @Failure 409 {object} APIResponse "This time slot is already booked"
// @Security BearerAuth
// @Router /sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondServiceError(rw, err)
		return
	}

	result, err := h.sessions.CreateSession(r.Context(), actor, req.toService())
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(result.Session, result.Warning)
}

// ListSessions lists the sessions visible to the caller.
//
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param status query string false "SCHEDULED, LIVE, COMPLETED or CANCELLED"
// @Param upcoming query bool false "Only sessions starting now or later that are SCHEDULED or LIVE"
// @Param limit query int false "Page size (1-200, default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {object} APIResponse{data=[]models.Session}
// @Failure 400 {object} APIResponse
// @Security BearerAuth
// @Router /sessions [get]
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}

	filter, err := parseSessionFilter(r)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	sessions, err := h.sessions.ListSessions(r.Context(), actor, filter)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(sessions, pagination(len(sessions), filter.Limit, filter.Offset, session.DefaultListLimit))
}

// GetSession returns one session with participant summaries.
//
// @Summary Session detail
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} APIResponse{data=models.SessionDetail}
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	detail, err := h.sessions.GetSession(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(detail)
}

// UpdateSessionStatus moves a session along its lifecycle.
//
// @Summary Set session status
// @Description Allowed moves are SCHEDULED to LIVE and LIVE to COMPLETED. Cancellation uses DELETE.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body UpdateStatusRequest true "Target status"
// @Success 200 {object} APIResponse{data=models.Session}
// @Failure 400 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /sessions/{id}/status [patch]
func (h *Handler) UpdateSessionStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondServiceError(rw, err)
		return
	}
	s, err := h.sessions.SetStatus(r.Context(), actor, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(s)
}

// CancelSession cancels a session for either participant.
//
// @Summary Cancel a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body CancelSessionRequest false "Optional reason"
// @Success 200 {object} APIResponse{data=models.Session}
// @Failure 400 {object} APIResponse "Cannot cancel completed session"
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /sessions/{id} [delete]
func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}

	var req CancelSessionRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respondServiceError(rw, err)
		return
	}
	s, err := h.sessions.Cancel(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(s)
}

// RoomToken mints a video room join token for a participant.
//
// @Summary Join the video room
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} APIResponse{data=session.RoomAccess}
// @Failure 403 {object} APIResponse
// @Failure 409 {object} APIResponse "Video room not set up"
// @Failure 502 {object} APIResponse
// @Security BearerAuth
// @Router /sessions/{id}/room [get]
func (h *Handler) RoomToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	access, err := h.sessions.RoomToken(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(access)
}

// PostMessage appends a line to the session transcript.
//
// @Summary Post a chat message
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body PostMessageRequest true "Message"
// @Success 201 {object} APIResponse{data=models.ChatMessage}
// @Security BearerAuth
// @Router /sessions/{id}/messages [post]
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondServiceError(rw, err)
		return
	}
	msg, err := h.sessions.PostMessage(r.Context(), actor, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(msg, "")
}

// ListMessages returns the transcript oldest first.
//
// @Summary Read the transcript
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} APIResponse{data=[]models.ChatMessage}
// @Security BearerAuth
// @Router /sessions/{id}/messages [get]
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	msgs, err := h.sessions.ListMessages(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(msgs)
}

// SaveNote stores the tutor's note for the session.
//
// @Summary Save tutor notes
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body SaveNoteRequest true "Note"
// @Success 200 {object} APIResponse{data=models.SessionNote}
// @Security BearerAuth
// @Router /sessions/{id}/notes [put]
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}

	var req SaveNoteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondServiceError(rw, err)
		return
	}
	note, err := h.sessions.SaveNote(r.Context(), actor, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(note)
}

// GetNote returns the session's tutor note.
//
// @Summary Read tutor notes
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} APIResponse{data=models.SessionNote}
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /sessions/{id}/notes [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	note, err := h.sessions.GetNote(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(note)
}
