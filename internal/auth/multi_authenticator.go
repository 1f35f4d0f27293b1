// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package auth

import (
	"context"
	"errors"
	"net/http"
	"sort"
)

// MultiAuthenticator tries authenticators in priority order. An expired token
// stops the search; any other failure is offered to the next authenticator.
type MultiAuthenticator struct {
	authenticators []Authenticator
}

// NewMultiAuthenticator orders authenticators by Priority.
func NewMultiAuthenticator(authenticators ...Authenticator) *MultiAuthenticator {
	sorted := append([]Authenticator(nil), authenticators...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &MultiAuthenticator{authenticators: sorted}
}

// Authenticate implements Authenticator.
func (m *MultiAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	lastErr := ErrNoCredentials
	for _, a := range m.authenticators {
		subject, err := a.Authenticate(ctx, r)
		if err == nil {
			return subject, nil
		}
		lastErr = err
		if shouldTryNext(err) {
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// An HS256 token is invalid to the OIDC verifier, so invalid credentials
// fall through as well.
func shouldTryNext(err error) bool {
	return errors.Is(err, ErrNoCredentials) ||
		errors.Is(err, ErrAuthenticatorUnavailable) ||
		errors.Is(err, ErrInvalidCredentials)
}

// Name implements Authenticator.
func (m *MultiAuthenticator) Name() string {
	return string(AuthModeMulti)
}

// Priority implements Authenticator.
func (m *MultiAuthenticator) Priority() int {
	return 0
}

var _ Authenticator = (*MultiAuthenticator)(nil)
