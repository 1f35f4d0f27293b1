// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

// Package validation validates API request DTOs with go-playground/validator.
//
// A single validator instance is shared process-wide; it caches struct
// metadata after first use. Field names in messages are taken from the json
// tag, so errors name the field the client actually sent.
//
// Custom tags:
//
//	session_duration  one of the bookable lengths (15, 30, 45, 60)
//	session_status    SCHEDULED, LIVE, COMPLETED or CANCELLED
//	notblank          non-empty after trimming whitespace
//
// Example:
//
//	type bookRequest struct {
//	    TutorID  string `json:"tutorId" validate:"required,uuid"`
//	    Duration int    `json:"duration" validate:"session_duration"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation
