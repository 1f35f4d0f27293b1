// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/tomtom215/tutorhub/internal/config"
	"github.com/tomtom215/tutorhub/internal/logging"
)

const oidcHTTPTimeout = 10 * time.Second

// OIDCAuthenticator verifies ID tokens issued by an OpenID provider. The
// provider's discovery document and keys are loaded by the zitadel relying
// party; signature, issuer, audience and expiry are checked on every call.
type OIDCAuthenticator struct {
	rp rp.RelyingParty
}

// NewOIDCAuthenticator performs discovery against cfg.IssuerURL. httpClient
// may be nil.
func NewOIDCAuthenticator(ctx context.Context, cfg *config.OIDCConfig, httpClient *http.Client) (*OIDCAuthenticator, error) {
	if cfg.IssuerURL == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("OIDC issuer and client id are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: oidcHTTPTimeout}
	}

	relyingParty, err := rp.NewRelyingPartyOIDC(ctx,
		cfg.IssuerURL,
		cfg.ClientID,
		"",
		"",
		cfg.Scopes,
		rp.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create relying party: %w", err)
	}
	return &OIDCAuthenticator{rp: relyingParty}, nil
}

// Authenticate implements Authenticator.
func (a *OIDCAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	tokenStr := extractToken(r)
	if tokenStr == "" {
		return nil, ErrNoCredentials
	}

	verifier := a.rp.IDTokenVerifier()
	if verifier == nil {
		return nil, fmt.Errorf("%w: verifier not initialized", ErrAuthenticatorUnavailable)
	}

	claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, tokenStr, verifier)
	if err != nil {
		return nil, mapVerificationError(err)
	}

	subject := &AuthSubject{
		ID:         claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		Issuer:     claims.Issuer,
		AuthMethod: AuthModeOIDC,
		ExpiresAt:  claims.Expiration.AsTime().Unix(),
	}
	if subject.Name == "" {
		subject.Name = claims.PreferredUsername
	}

	logging.Debug().
		Str("subject", subject.ID).
		Str("issuer", subject.Issuer).
		Msg("OIDC authentication successful")
	return subject, nil
}

// mapVerificationError folds verifier failures into the package errors.
func mapVerificationError(err error) error {
	if errors.Is(err, oidc.ErrExpired) || strings.Contains(err.Error(), "expired") {
		return ErrExpiredCredentials
	}
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "issuer"):
		logging.Warn().Err(err).Msg("Token issuer mismatch")
		return fmt.Errorf("%w: issuer mismatch", ErrInvalidCredentials)
	case strings.Contains(errStr, "audience"):
		logging.Warn().Err(err).Msg("Token audience mismatch")
		return fmt.Errorf("%w: audience mismatch", ErrInvalidCredentials)
	case strings.Contains(errStr, "fetching keys") || strings.Contains(errStr, "connection refused"):
		return fmt.Errorf("%w: %s", ErrAuthenticatorUnavailable, errStr)
	default:
		logging.Debug().Err(err).Msg("Token validation failed")
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, errStr)
	}
}

// Name implements Authenticator.
func (a *OIDCAuthenticator) Name() string {
	return string(AuthModeOIDC)
}

// Priority implements Authenticator.
func (a *OIDCAuthenticator) Priority() int {
	return 10
}

// Issuer returns the discovered issuer URL.
func (a *OIDCAuthenticator) Issuer() string {
	return a.rp.Issuer()
}

var _ Authenticator = (*OIDCAuthenticator)(nil)
