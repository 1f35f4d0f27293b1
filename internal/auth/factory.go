// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package auth

import (
	"context"
	"fmt"

	"github.com/tomtom215/tutorhub/internal/config"
)

// NewAuthenticator builds the authenticator selected by cfg.AuthMode.
func NewAuthenticator(ctx context.Context, cfg *config.SecurityConfig) (Authenticator, error) {
	mode, err := ParseAuthMode(cfg.AuthMode)
	if err != nil {
		return nil, err
	}

	switch mode {
	case AuthModeJWT:
		manager, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		return NewJWTAuthenticator(manager), nil

	case AuthModeOIDC:
		return NewOIDCAuthenticator(ctx, &cfg.OIDC, nil)

	case AuthModeMulti:
		oidcAuth, err := NewOIDCAuthenticator(ctx, &cfg.OIDC, nil)
		if err != nil {
			return nil, err
		}
		manager, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		return NewMultiAuthenticator(oidcAuth, NewJWTAuthenticator(manager)), nil

	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", mode)
	}
}
