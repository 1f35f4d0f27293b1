// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tutorhub/internal/models"
)

// defaultReportPage mirrors the report service's default page size.
const defaultReportPage = 50

// EnqueueReport starts report generation for a completed session.
//
// @Summary Generate a report
// @Description Queues a report job and returns immediately. Repeated calls return the existing job or report with existing=true.
// @Tags Reports
// @Produce json
// @Param id path string true "Session ID"
// @Success 202 {object} APIResponse{data=models.ReportJobHandle}
// @Failure 400 {object} APIResponse "Session must be completed"
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /reports/session/{id} [post]
func (h *Handler) EnqueueReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	handle, err := h.reports.EnqueueReport(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Accepted(handle)
}

// ReportStatus returns the job state of a session's report.
//
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} APIResponse{data=models.ReportStatus}
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Security BearerAuth
// @Router /reports/session/{id}/status [get]
func (h *Handler) ReportStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	st, err := h.reports.ReportStatus(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(st)
}

// GetReport returns the generated report.
//
// @Summary Read a report
// @Tags Reports
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} APIResponse{data=models.SessionReport}
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse "Report not found"
// @Security BearerAuth
// @Router /reports/session/{id} [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	rep, err := h.reports.GetReport(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(rep)
}

// ListTutorReports returns the calling tutor's reports, newest first.
//
// @Summary List my reports
// @Tags Reports
// @Produce json
// @Param limit query int false "Page size (1-200, default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {object} APIResponse{data=[]models.SessionReport}
// @Failure 403 {object} APIResponse
// @Security BearerAuth
// @Router /reports [get]
func (h *Handler) ListTutorReports(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	p, err := parseListParams(r)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	reports, err := h.reports.ListTutorReports(r.Context(), actor, p.Limit, p.Offset)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(reports, pagination(len(reports), p.Limit, p.Offset, defaultReportPage))
}

// ReportEvents upgrades to a WebSocket that streams the session's queue
// events. Access is checked with a status read before the upgrade.
//
// @Summary Report progress stream
// @Description WebSocket. Sends a report_status snapshot, then report_event messages until the job completes or fails.
// @Tags Reports
// @Param id path string true "Session ID"
// @Success 101 "Switching Protocols"
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 503 {object} APIResponse "Progress stream disabled"
// @Security BearerAuth
// @Router /reports/session/{id}/events [get]
func (h *Handler) ReportEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	actor, ok := actorFrom(rw, r)
	if !ok {
		return
	}
	if h.progress == nil {
		rw.ServiceUnavailable("Progress stream disabled")
		return
	}

	sessionID := chi.URLParam(r, "id")
	if _, err := h.reports.ReportStatus(r.Context(), actor, sessionID); err != nil {
		respondServiceError(rw, err)
		return
	}
	h.progress.ServeSession(w, r, sessionID, func(ctx context.Context) (*models.ReportStatus, error) {
		return h.reports.ReportStatus(ctx, actor, sessionID)
	})
}
