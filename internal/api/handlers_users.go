// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"net/http"

	"github.com/tomtom215/tutorhub/internal/auth"
)

// RegisterUser provisions the user row for the authenticated subject.
//
// @Summary Register the caller
// @Description Creates the marketplace user for the verified bearer identity. Role must be STUDENT or TUTOR.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body auth.RegisterRequest true "Profile"
// @Success 201 {object} APIResponse{data=models.User}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Failure 409 {object} APIResponse "Already registered"
// @Security BearerAuth
// @Router /users/register [post]
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	subject, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
		return
	}

	var req auth.RegisterRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondServiceError(rw, err)
		return
	}

	user, err := h.users.Register(r.Context(), subject, req)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(user, "")
}

// Me returns the caller's user.
//
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} APIResponse{data=models.User}
// @Failure 401 {object} APIResponse "User not registered"
// @Security BearerAuth
// @Router /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	user, err := h.users.Me(r.Context(), actor)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(user)
}
