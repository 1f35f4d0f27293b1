// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/validation"
)

// respondServiceError maps an error returned by a service package to a
// status code and envelope. Unknown errors are logged and rendered as 500
// without leaking their text.
func respondServiceError(rw *ResponseWriter, err error) {
	var (
		reqErr      *validation.RequestValidationError
		validErr    *models.ValidationError
		notFoundErr *models.NotFoundError
		deniedErr   *models.AccessDeniedError
		conflictErr *models.ConflictError
		extErr      *models.ExternalDependencyError
	)

	switch {
	case errors.As(err, &reqErr):
		apiErr := reqErr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
	case errors.As(err, &validErr):
		var details interface{}
		if validErr.Field != "" {
			details = map[string]string{"field": validErr.Field}
		}
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed, validErr.Message, details)
	case errors.As(err, &notFoundErr):
		rw.Error(http.StatusNotFound, ErrCodeNotFound, notFoundErr.Error())
	case errors.As(err, &deniedErr):
		rw.Error(http.StatusForbidden, ErrCodeForbidden, deniedErr.Error())
	case errors.As(err, &conflictErr):
		rw.Error(http.StatusConflict, ErrCodeConflict, conflictErr.Error())
	case errors.As(err, &extErr):
		logging.Ctx(rw.r.Context()).Warn().Err(err).Str("dependency", extErr.Dependency).Msg("External dependency failed")
		rw.Error(http.StatusBadGateway, ErrCodeExternalServiceFail, extErr.Dependency+" unavailable")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		logging.Ctx(rw.r.Context()).Debug().Err(err).Msg("Request cancelled")
	default:
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Request failed")
		rw.InternalError("Internal server error")
	}
}
