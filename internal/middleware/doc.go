// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package middleware provides chi-compatible HTTP middleware shared by the API
router.

	RequestID          accepts or generates X-Request-ID and seeds the
	                   logging context with request and correlation ids
	PrometheusMetrics  records request count, latency and in-flight gauge
	                   keyed by the chi route pattern
	AccessLog          one structured zerolog line per request

Order in the router:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)

Metrics use the route pattern rather than the raw path so that session ids
do not create a label per session.
*/
package middleware
