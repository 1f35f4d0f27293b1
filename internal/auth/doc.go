// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package auth verifies bearer credentials and maps them to registered users.

# Modes

  - jwt: HS256 tokens signed with JWT_SECRET (JWTAuthenticator). The token
    subject is the external user id. `tutorhub token` mints development tokens.
  - oidc: ID tokens from an OpenID provider, verified with the certified
    zitadel/oidc relying party (OIDCAuthenticator).
  - multi: OIDC first, then JWT (MultiAuthenticator).

# Request Flow

	Authorization: Bearer <token>
	        |
	Middleware.Authenticate  -> AuthSubject in context (401 on failure)
	        |
	Middleware.RequireUser   -> models.Actor in context
	                            (401 "User not registered" for unknown subjects)

Registration routes use Authenticate only, so a verified but unregistered
subject can create its user row.

Credentials are read from the Authorization header, then the "token" cookie.
WebSocket upgrades may pass access_token as a query parameter because
browsers cannot set headers on the upgrade request.
*/
package auth
