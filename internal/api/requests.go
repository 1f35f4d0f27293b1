// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/session"
	"github.com/tomtom215/tutorhub/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	TutorID   string    `json:"tutorId" validate:"required,notblank"`
	StartTime time.Time `json:"startTime" validate:"required"`
	Duration  int       `json:"duration" validate:"required,session_duration"`
}

// UpdateStatusRequest is the body of PATCH /api/sessions/{id}/status.
type UpdateStatusRequest struct {
	Status models.SessionStatus `json:"status" validate:"required,session_status"`
}

// CancelSessionRequest is the optional body of DELETE /api/sessions/{id}.
type CancelSessionRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// SubmitRatingRequest is the body of POST /api/ratings/session/{id}.
type SubmitRatingRequest struct {
	Punctuality  int     `json:"punctuality" validate:"required,gte=1,lte=5"`
	Friendliness int     `json:"friendliness" validate:"required,gte=1,lte=5"`
	Helpfulness  int     `json:"helpfulness" validate:"required,gte=1,lte=5"`
	Comment      *string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

// PostMessageRequest is the body of POST /api/sessions/{id}/messages.
type PostMessageRequest struct {
	Content string `json:"content" validate:"required,notblank,max=2000"`
}

// SaveNoteRequest is the body of PUT /api/sessions/{id}/notes.
type SaveNoteRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
}

func (r CreateSessionRequest) toService() session.CreateRequest {
	return session.CreateRequest{
		TutorID:   r.TutorID,
		StartTime: r.StartTime,
		Duration:  r.Duration,
	}
}

func (r SubmitRatingRequest) toService() session.RatingRequest {
	return session.RatingRequest{
		Punctuality:  r.Punctuality,
		Friendliness: r.Friendliness,
		Helpfulness:  r.Helpfulness,
		Comment:      r.Comment,
	}
}

// decodeJSON reads a JSON body into dst and validates it. An empty body is
// accepted only when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, optional bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return nil
			}
			return models.NewValidationError("", "Request body is required")
		}
		return models.NewValidationError("", fmt.Sprintf("Invalid JSON body: %v", err))
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// listParams are the limit and offset query parameters of list endpoints.
type listParams struct {
	Limit  int
	Offset int
}

// parseListParams reads limit and offset. A missing limit stays zero so the
// service applies its default.
func parseListParams(r *http.Request) (listParams, error) {
	var p listParams
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, models.NewValidationError("limit", "Limit must be an integer")
		}
		p.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, models.NewValidationError("offset", "Offset must be an integer")
		}
		p.Offset = n
	}
	return p, nil
}

// parseSessionFilter reads the listSessions query: status, upcoming, limit
// and offset.
func parseSessionFilter(r *http.Request) (models.SessionFilter, error) {
	p, err := parseListParams(r)
	if err != nil {
		return models.SessionFilter{}, err
	}
	f := models.SessionFilter{
		Status: models.SessionStatus(r.URL.Query().Get("status")),
		Limit:  p.Limit,
		Offset: p.Offset,
	}
	if v := r.URL.Query().Get("upcoming"); v != "" {
		upcoming, err := strconv.ParseBool(v)
		if err != nil {
			return f, models.NewValidationError("upcoming", "Upcoming must be true or false")
		}
		f.Upcoming = upcoming
	}
	return f, nil
}

// pagination builds list metadata. HasMore is a guess from a full page.
func pagination(count, limit, offset, defaultLimit int) *PaginationMeta {
	if limit == 0 {
		limit = defaultLimit
	}
	return &PaginationMeta{
		Count:   count,
		Offset:  offset,
		Limit:   limit,
		HasMore: count == limit,
	}
}
