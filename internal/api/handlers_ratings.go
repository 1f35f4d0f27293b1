// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SubmitRating records the student's rating of a completed session.
//
// @Summary Rate a session
// @Description One rating per session, by its student, after completion. Tutor metrics are recomputed before the response.
// @Tags Ratings
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body SubmitRatingRequest true "Scores 1-5"
// @Success 201 {object} APIResponse{data=models.Rating}
// @Failure 400 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Failure 409 {object} APIResponse "Session already rated"
// @Security BearerAuth
// @Router /ratings/session/{id} [post]
func (h *Handler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}

	var req SubmitRatingRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondServiceError(rw, err)
		return
	}
	rating, err := h.sessions.SubmitRating(r.Context(), actor, chi.URLParam(r, "id"), req.toService())
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(rating, "")
}

// GetRating returns the session's rating to a participant.
//
// @Summary Read a rating
// @Tags Ratings
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} APIResponse{data=models.Rating}
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /ratings/session/{id} [get]
func (h *Handler) GetRating(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	rating, err := h.sessions.GetRating(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(rating)
}
