// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/tutorhub/internal/middleware"
	"github.com/tomtom215/tutorhub/internal/models"
)

func TestHealthLive(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/health/live", "", nil)
	checkStatus(t, rec, http.StatusOK)
	var body map[string]interface{}
	env := decodeData(t, rec, &body)
	if body["alive"] != true {
		t.Errorf("alive = %v, want true", body["alive"])
	}
	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Error("meta.request_id missing")
	}
	if rec.Header().Get(middleware.RequestIDHeader) != env.Meta.RequestID {
		t.Errorf("header request id %q != meta %q", rec.Header().Get(middleware.RequestIDHeader), env.Meta.RequestID)
	}
}

func TestHealthReady(t *testing.T) {
	t.Parallel()

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		rec := s.do(t, http.MethodGet, "/api/health/ready", "", nil)
		checkStatus(t, rec, http.StatusOK)
	})

	t.Run("failing dependency", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, withCheck("nats", stubPinger{err: errors.New("connection closed")}))
		rec := s.do(t, http.MethodGet, "/api/health/ready", "", nil)
		env := checkError(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
		details, ok := env.Error.Details.(map[string]interface{})
		if !ok {
			t.Fatalf("details = %T, want object", env.Error.Details)
		}
		if details["database"] != "ok" || details["nats"] != "connection closed" {
			t.Errorf("details = %v", details)
		}
	})
}

func TestRouter_UnknownRoute(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	checkError(t, s.do(t, http.MethodGet, "/api/nope", "", nil), http.StatusNotFound, ErrCodeNotFound)
	checkError(t, s.do(t, http.MethodPut, "/api/health/live", "", nil), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/api/health/live", "", nil)
	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	checkStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("metrics output missing API request counter")
	}
}

func TestRouter_Swagger(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/swagger/index.html", "", nil)
	checkStatus(t, rec, http.StatusOK)
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, withRateLimit(2))

	for i := 0; i < 2; i++ {
		checkStatus(t, s.do(t, http.MethodGet, "/api/users/me", "", nil), http.StatusUnauthorized)
	}
	checkError(t, s.do(t, http.MethodGet, "/api/users/me", "", nil), http.StatusTooManyRequests, ErrCodeTooManyRequests)
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(_ *Dependencies, cfg *RouterConfig) {
		cfg.Middleware.CORSAllowedOrigins = []string{"https://app.example.com"}
	})

	rec := s.preflight(t, "/api/sessions", "https://app.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	rec = s.preflight(t, "/api/sessions", "https://evil.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q for a foreign origin", got)
	}
}

func TestAuth_Errors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name   string
		token  string
		status int
		code   string
	}{
		{"missing token", "", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized, ErrCodeUnauthorized},
		{"unregistered subject", s.token(t, "ghost"), http.StatusUnauthorized, "USER_NOT_REGISTERED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := checkError(t, s.do(t, http.MethodGet, "/api/users/me", tt.token, nil), tt.status, tt.code)
			if tt.code == "USER_NOT_REGISTERED" && env.Error.Message != "User not registered" {
				t.Errorf("message = %q", env.Error.Message)
			}
		})
	}
}

func TestUsers_RegisterAndMe(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tok, u := s.register(t, "alice", models.RoleStudent)
	if u.Role != models.RoleStudent || u.ExternalID != "alice" {
		t.Errorf("registered user = %+v", u)
	}

	var me models.User
	decodeData(t, s.do(t, http.MethodGet, "/api/users/me", tok, nil), &me)
	if me.ID != u.ID {
		t.Errorf("me.ID = %s, want %s", me.ID, u.ID)
	}

	// Second registration conflicts.
	rec := s.do(t, http.MethodPost, "/api/users/register", tok, map[string]string{
		"name": "Alice", "email": "alice@example.com", "role": "STUDENT",
	})
	checkError(t, rec, http.StatusConflict, ErrCodeConflict)
}

func TestUsers_RegisterValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	tok := s.token(t, "bob")

	tests := []struct {
		name  string
		body  interface{}
		field string
	}{
		{"admin role", map[string]string{"name": "Bob", "email": "bob@example.com", "role": "ADMIN"}, "role"},
		{"bad email", map[string]string{"name": "Bob", "email": "nope", "role": "TUTOR"}, "email"},
		{"missing name", map[string]string{"email": "bob@example.com", "role": "TUTOR"}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := checkError(t, s.do(t, http.MethodPost, "/api/users/register", tok, tt.body), http.StatusBadRequest, ErrCodeValidationFailed)
			details, _ := env.Error.Details.(map[string]interface{})
			if details["field"] != tt.field {
				t.Errorf("details = %v, want field %s", env.Error.Details, tt.field)
			}
		})
	}

	checkError(t, s.do(t, http.MethodPost, "/api/users/register", tok, nil), http.StatusBadRequest, ErrCodeValidationFailed)
	checkError(t, s.do(t, http.MethodPost, "/api/users/register", tok, "{"), http.StatusBadRequest, ErrCodeValidationFailed)
}

func TestUsers_AdminSubject(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	_, u := s.register(t, testAdminSubject, models.RoleTutor)
	if u.Role != models.RoleAdmin {
		t.Errorf("role = %s, want ADMIN", u.Role)
	}
}
