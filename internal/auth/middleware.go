// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/models"
)

// Error codes written by the middleware.
const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeUserNotRegistered = "USER_NOT_REGISTERED"
	CodeAuthUnavailable   = "AUTH_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
)

// MsgUserNotRegistered is returned for verified subjects without a user row.
const MsgUserNotRegistered = "User not registered"

// UserStore resolves external identities to users.
type UserStore interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

// ErrorWriter renders an authentication failure. The API layer supplies its
// envelope writer.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code, message string)

func plainError(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
	http.Error(w, message, status)
}

// Middleware authenticates requests and resolves the caller.
type Middleware struct {
	authenticator Authenticator
	users         UserStore
	writeError    ErrorWriter
}

// NewMiddleware builds the middleware. writeError may be nil.
func NewMiddleware(authenticator Authenticator, users UserStore, writeError ErrorWriter) *Middleware {
	if writeError == nil {
		writeError = plainError
	}
	return &Middleware{
		authenticator: authenticator,
		users:         users,
		writeError:    writeError,
	}
}

// Authenticate verifies the bearer credential and stores the AuthSubject.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.authenticator.Authenticate(r.Context(), r)
		if err != nil {
			m.handleAuthError(w, r, err)
			return
		}
		AuthAttempts.WithLabelValues(m.authenticator.Name(), "success").Inc()
		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
	})
}

// RequireUser maps the stored subject to a registered user and stores the
// models.Actor. It must run after Authenticate.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := SubjectFromContext(r.Context())
		if !ok {
			m.writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
			return
		}

		user, err := m.users.GetUserByExternalID(r.Context(), subject.ID)
		if errors.Is(err, database.ErrNotFound) {
			UnregisteredSubjects.Inc()
			m.writeError(w, r, http.StatusUnauthorized, CodeUserNotRegistered, MsgUserNotRegistered)
			return
		}
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to resolve user")
			m.writeError(w, r, http.StatusInternalServerError, CodeInternal, "Failed to resolve user")
			return
		}

		actor := models.Actor{UserID: user.ID, ExternalID: user.ExternalID, Role: user.Role}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

func (m *Middleware) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	method := m.authenticator.Name()
	switch {
	case errors.Is(err, ErrNoCredentials):
		AuthAttempts.WithLabelValues(method, "missing").Inc()
		m.writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
	case errors.Is(err, ErrExpiredCredentials):
		AuthAttempts.WithLabelValues(method, "expired").Inc()
		m.writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "Credentials expired")
	case errors.Is(err, ErrAuthenticatorUnavailable):
		AuthAttempts.WithLabelValues(method, "unavailable").Inc()
		logging.Ctx(r.Context()).Error().Err(err).Msg("Authenticator unavailable")
		m.writeError(w, r, http.StatusServiceUnavailable, CodeAuthUnavailable, "Authentication service unavailable")
	default:
		AuthAttempts.WithLabelValues(method, "invalid").Inc()
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Authentication failed")
		m.writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "Invalid credentials")
	}
}
