// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package authz

import (
	"net/http"

	"github.com/tomtom215/tutorhub/internal/auth"
	"github.com/tomtom215/tutorhub/internal/logging"
)

// Error codes written by the middleware.
const (
	CodeForbidden = "FORBIDDEN"
	CodeInternal  = "INTERNAL_ERROR"
)

// Middleware enforces the role policy for a route.
type Middleware struct {
	enforcer   *Enforcer
	writeError auth.ErrorWriter
}

// NewMiddleware creates the middleware. writeError may be nil.
func NewMiddleware(enforcer *Enforcer, writeError auth.ErrorWriter) *Middleware {
	if writeError == nil {
		writeError = func(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{enforcer: enforcer, writeError: writeError}
}

// Require allows the request through when the caller's role may perform
// action on object. It must run after auth.Middleware.RequireUser.
func (m *Middleware) Require(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := auth.ActorFromContext(r.Context())
			if !ok {
				m.writeError(w, r, http.StatusForbidden, CodeForbidden, "Access denied")
				return
			}

			allowed, err := m.enforcer.Allowed(actor.Role, object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
				m.writeError(w, r, http.StatusInternalServerError, CodeInternal, "Internal server error")
				return
			}
			if !allowed {
				logging.Ctx(r.Context()).Debug().
					Str("role", string(actor.Role)).
					Str("object", object).
					Str("action", action).
					Msg("Operation denied by policy")
				m.writeError(w, r, http.StatusForbidden, CodeForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
