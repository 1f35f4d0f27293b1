// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package api provides the HTTP surface of Tutorhub.

The router is built on go-chi/chi. Every route under /api runs through the
same global stack: request ID, panic recovery, Prometheus metrics, access
logging, gzip compression and CORS. Authenticated groups add rate limiting
(go-chi/httprate), bearer authentication, user resolution and a Casbin
permission check per route.

Routes:

	POST   /api/users/register                 register the authenticated subject
	GET    /api/users/me                       current user
	POST   /api/sessions                       book a session (student)
	GET    /api/sessions                       list visible sessions
	GET    /api/sessions/{id}                  session detail
	PATCH  /api/sessions/{id}/status           move a session to LIVE or COMPLETED
	DELETE /api/sessions/{id}                  cancel a session
	GET    /api/sessions/{id}/room             room join token
	POST   /api/sessions/{id}/messages         append to the transcript
	GET    /api/sessions/{id}/messages         read the transcript
	PUT    /api/sessions/{id}/notes            save tutor notes
	GET    /api/sessions/{id}/notes            read tutor notes
	POST   /api/ratings/session/{id}           rate a completed session
	GET    /api/ratings/session/{id}           read the rating
	POST   /api/reports/session/{id}           enqueue report generation (202)
	GET    /api/reports/session/{id}/status    report job status
	GET    /api/reports/session/{id}           generated report
	GET    /api/reports/session/{id}/events    WebSocket progress stream
	GET    /api/reports                        the tutor's reports
	GET    /api/admin/tutors/{id}/metrics      stored tutor metrics
	POST   /api/admin/tutors/{id}/metrics/recalculate
	GET    /api/admin/queue                    report queue overview
	GET    /api/health/live, /api/health/ready probes
	GET    /metrics                            Prometheus exposition

Response Format:

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "Session not found"}}

Service errors from the models package map to status codes in
respondServiceError.
*/
package api
