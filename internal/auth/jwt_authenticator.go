// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// JWTAuthenticator verifies HS256 bearer tokens.
type JWTAuthenticator struct {
	manager *JWTManager
}

// NewJWTAuthenticator wraps manager as an Authenticator.
func NewJWTAuthenticator(manager *JWTManager) *JWTAuthenticator {
	return &JWTAuthenticator{manager: manager}
}

// Authenticate implements Authenticator.
func (a *JWTAuthenticator) Authenticate(_ context.Context, r *http.Request) (*AuthSubject, error) {
	tokenStr := extractToken(r)
	if tokenStr == "" {
		return nil, ErrNoCredentials
	}

	claims, err := a.manager.ValidateToken(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredentials
		}
		return nil, ErrInvalidCredentials
	}

	subject := &AuthSubject{
		ID:         claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		Issuer:     claims.Issuer,
		AuthMethod: AuthModeJWT,
	}
	if claims.ExpiresAt != nil {
		subject.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return subject, nil
}

// Name implements Authenticator.
func (a *JWTAuthenticator) Name() string {
	return string(AuthModeJWT)
}

// Priority implements Authenticator.
func (a *JWTAuthenticator) Priority() int {
	return 20
}

var _ Authenticator = (*JWTAuthenticator)(nil)
