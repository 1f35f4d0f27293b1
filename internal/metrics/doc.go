// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package metrics provides Prometheus instrumentation for tutorhub.

Collectors are package-level promauto vectors registered with the default
registry and exposed at /metrics. Callers use the Record* helpers rather
than touching the vectors directly.

# Available Metrics

HTTP:
  - http_requests_total (method, endpoint, status)
  - http_request_duration_seconds (method, endpoint)
  - http_requests_in_flight
  - http_rate_limit_hits_total (endpoint)

Store:
  - duckdb_query_duration_seconds (operation)
  - duckdb_query_errors_total (operation, error_type)
  - duckdb_transaction_conflicts_total

Sessions:
  - tutoring_sessions_booked_total (outcome)
  - tutoring_session_transitions_total (from, to)
  - tutoring_room_operations_total (operation, result)
  - tutoring_ratings_submitted_total
  - tutor_metrics_recompute_duration_seconds, tutor_metrics_recompute_errors_total

Report queue:
  - report_jobs_enqueued_total (result)
  - report_jobs_started_total, report_jobs_completed_total
  - report_jobs_failed_total (reason)
  - report_job_retries_total, report_job_stalls_total
  - report_job_duration_seconds, report_limiter_wait_seconds
  - report_workers_busy, report_queue_pending

Providers:
  - textgen_requests_total (provider, result)
  - textgen_request_duration_seconds (provider)
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total (name)

Realtime and messaging:
  - websocket_connections_active, websocket_messages_sent_total, websocket_errors_total
  - nats_messages_published_total (subject), nats_messages_deduplicated_total
*/
package metrics
