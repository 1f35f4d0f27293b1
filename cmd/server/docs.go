// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

// Tutorhub API general annotations for swag.
//
// @title Tutorhub API
// @version 1.0
// @description Booking, lifecycle and report generation for one-to-one tutoring sessions.
// @description
// @description ## Authentication
// @description
// @description Every endpoint except the health probes requires a bearer token. Tokens are
// @description HS256 JWTs issued by the platform or OIDC ID tokens from the configured provider.
// @description A verified subject must call `POST /users/register` once before any other call.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address.
// @description
// @description ## Error Responses
// @description
// @description All responses share one envelope:
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {
// @description     "code": "CONFLICT",
// @description     "message": "This time slot is already booked",
// @description     "request_id": "b7a1..."
// @description   },
// @description   "meta": {
// @description     "request_id": "b7a1...",
// @description     "timestamp": "2026-03-01T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/tutorhub/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token: "Bearer {jwt}".
//
// @tag.name Health
// @tag.description Liveness and readiness probes
//
// @tag.name Users
// @tag.description Registration and the caller's profile
//
// @tag.name Sessions
// @tag.description Booking, lifecycle transitions, video room access, chat and tutor notes
//
// @tag.name Ratings
// @tag.description Student ratings of completed sessions
//
// @tag.name Reports
// @tag.description Generated session reports, job status and progress streaming
//
// @tag.name Admin
// @tag.description Tutor metrics and report queue inspection
package main
