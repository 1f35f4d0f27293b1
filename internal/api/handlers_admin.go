// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/models"
)

// requireTutor checks that id names a registered tutor.
func (h *Handler) requireTutor(ctx context.Context, id string) error {
	u, err := h.store.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && u.Role != models.RoleTutor) {
		return models.NewNotFoundError("Tutor", id)
	}
	if err != nil {
		return fmt.Errorf("load tutor: %w", err)
	}
	return nil
}

// GetTutorMetrics returns the stored metrics snapshot of a tutor.
//
// @Summary Tutor metrics
// @Tags Admin
// @Produce json
// @Param id path string true "Tutor user ID"
// @Success 200 {object} APIResponse{data=models.TutorMetrics}
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /admin/tutors/{id}/metrics [get]
func (h *Handler) GetTutorMetrics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tutorID := chi.URLParam(r, "id")
	if err := h.requireTutor(r.Context(), tutorID); err != nil {
		respondServiceError(rw, err)
		return
	}

	m, err := h.store.GetTutorMetrics(r.Context(), tutorID)
	if errors.Is(err, database.ErrNotFound) {
		respondServiceError(rw, models.NewNotFoundError("Tutor metrics", tutorID))
		return
	}
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(m)
}

// RecalculateTutorMetrics recomputes a tutor's metrics from every session.
//
// @Summary Recalculate tutor metrics
// @Tags Admin
// @Produce json
// @Param id path string true "Tutor user ID"
// @Success 200 {object} APIResponse{data=models.TutorMetrics}
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /admin/tutors/{id}/metrics/recalculate [post]
func (h *Handler) RecalculateTutorMetrics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tutorID := chi.URLParam(r, "id")
	if err := h.requireTutor(r.Context(), tutorID); err != nil {
		respondServiceError(rw, err)
		return
	}

	m, err := h.recalc.Recalculate(r.Context(), tutorID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(m)
}

// QueueOverview reports stream and consumer counters of the report queue.
//
// @Summary Report queue overview
// @Tags Admin
// @Produce json
// @Success 200 {object} APIResponse{data=reportqueue.Overview}
// @Failure 403 {object} APIResponse
// @Failure 503 {object} APIResponse "Report queue disabled"
// @Security BearerAuth
// @Router /admin/queue [get]
func (h *Handler) QueueOverview(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.queue == nil {
		rw.ServiceUnavailable("Report queue disabled")
		return
	}
	ov, err := h.queue.Overview(r.Context())
	if err != nil {
		respondServiceError(rw, models.NewExternalDependencyError("report queue", err, true))
		return
	}
	rw.Success(ov)
}
