// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/tutorhub/internal/models"
)

// AuthMode selects how bearer credentials are verified.
type AuthMode string

const (
	AuthModeJWT   AuthMode = "jwt"
	AuthModeOIDC  AuthMode = "oidc"
	AuthModeMulti AuthMode = "multi"
)

// ParseAuthMode parses the AUTH_MODE setting.
func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(s) {
	case AuthModeJWT, AuthModeOIDC, AuthModeMulti:
		return AuthMode(s), nil
	case "":
		return AuthModeJWT, nil
	default:
		return "", errors.New("invalid auth mode: " + s)
	}
}

var (
	// ErrNoCredentials is returned when the request carries no token.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials is returned for malformed or unverifiable tokens.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials is returned for expired tokens.
	ErrExpiredCredentials = errors.New("credentials expired")

	// ErrAuthenticatorUnavailable is returned when the verifier cannot run,
	// for example when the OpenID provider's keys cannot be fetched.
	ErrAuthenticatorUnavailable = errors.New("authenticator unavailable")
)

// Authenticator verifies the credential carried by a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error)

	// Name identifies the authenticator in logs and metrics.
	Name() string

	// Priority orders authenticators in multi mode. Lower runs first.
	Priority() int
}

// AuthSubject is a verified identity. ID is the stable external user id.
type AuthSubject struct {
	ID         string   `json:"id"`
	Email      string   `json:"email,omitempty"`
	Name       string   `json:"name,omitempty"`
	Issuer     string   `json:"issuer,omitempty"`
	AuthMethod AuthMode `json:"auth_method"`
	ExpiresAt  int64    `json:"expires_at,omitempty"`
}

// IsExpired reports whether the subject's credential has expired.
func (s *AuthSubject) IsExpired() bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return time.Now().Unix() > s.ExpiresAt
}

type contextKey string

const (
	subjectContextKey contextKey = "auth_subject"
	actorContextKey   contextKey = "auth_actor"
)

// ContextWithSubject stores a verified subject.
func ContextWithSubject(ctx context.Context, s *AuthSubject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// SubjectFromContext returns the verified subject, if any.
func SubjectFromContext(ctx context.Context) (*AuthSubject, bool) {
	s, ok := ctx.Value(subjectContextKey).(*AuthSubject)
	return s, ok && s != nil
}

// ContextWithActor stores the registered caller.
func ContextWithActor(ctx context.Context, a models.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, a)
}

// ActorFromContext returns the registered caller, if any.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(actorContextKey).(models.Actor)
	return a, ok
}

// TokenCookie is the cookie consulted when no Authorization header is sent.
const TokenCookie = "token"

// extractToken reads the bearer token from the Authorization header, the
// token cookie or, for WebSocket upgrades only, the access_token query
// parameter.
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
