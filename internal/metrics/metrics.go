// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB operation errors",
		},
		[]string{"operation", "error_type"},
	)

	DBTransactionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duckdb_transaction_conflicts_total",
			Help: "Total number of optimistic transaction conflicts that were retried",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Session lifecycle
	SessionsBooked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutoring_sessions_booked_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"}, // created, conflict, invalid, error
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutoring_session_transitions_total",
			Help: "Session status transitions applied",
		},
		[]string{"from", "to"},
	)

	RoomOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutoring_room_operations_total",
			Help: "Video room provider calls by operation and result",
		},
		[]string{"operation", "result"}, // operation: create, destroy, token
	)

	RatingsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutoring_ratings_submitted_total",
			Help: "Total number of ratings stored",
		},
	)

	TutorMetricsRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tutor_metrics_recompute_duration_seconds",
			Help:    "Duration of full tutor metrics recomputations",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	TutorMetricsRecomputeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutor_metrics_recompute_errors_total",
			Help: "Total number of failed tutor metrics recomputations",
		},
	)

	// Report queue
	ReportJobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_jobs_enqueued_total",
			Help: "Report enqueue requests by result",
		},
		[]string{"result"}, // new, existing, report_exists
	)

	ReportJobsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_jobs_started_total",
			Help: "Total number of report job attempts started",
		},
	)

	ReportJobsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_jobs_completed_total",
			Help: "Total number of report jobs completed",
		},
	)

	ReportJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_jobs_failed_total",
			Help: "Report jobs that ended in the failed state",
		},
		[]string{"reason"}, // permanent, exhausted, stalled
	)

	ReportJobRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_job_retries_total",
			Help: "Total number of report job attempts scheduled for retry",
		},
	)

	ReportJobStalls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_job_stalls_total",
			Help: "Total number of redeliveries caused by an expired job lock",
		},
	)

	ReportJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_job_duration_seconds",
			Help:    "Wall-clock duration of report job attempts",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	ReportWorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "report_workers_busy",
			Help: "Number of report workers currently running a job",
		},
	)

	ReportLimiterWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_limiter_wait_seconds",
			Help:    "Time spent waiting for the job start rate limiter",
			Buckets: []float64{.001, .01, .1, 1, 5, 10, 30, 60},
		},
	)

	ReportQueuePending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "report_queue_pending",
			Help: "Messages pending delivery on the report consumer",
		},
	)

	// Text generation
	TextGenRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textgen_requests_total",
			Help: "Text generation requests by provider and result",
		},
		[]string{"provider", "result"}, // success, error, invalid_output
	)

	TextGenDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "textgen_request_duration_seconds",
			Help:    "Text generation round trip in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of report progress WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// NATS
	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
		[]string{"subject"},
	)

	NATSMessagesDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_deduplicated_total",
			Help: "Publishes dropped by the JetStream duplicate window",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database operation metric
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, errorType(err)).Inc()
	}
}

// RecordTransactionConflict counts one retried DuckDB conflict.
func RecordTransactionConflict() {
	DBTransactionConflicts.Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a request rejected by httprate.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordBooking records the outcome of a createSession call.
func RecordBooking(outcome string) {
	SessionsBooked.WithLabelValues(outcome).Inc()
}

// RecordTransition records an applied session status change.
func RecordTransition(from, to string) {
	SessionTransitions.WithLabelValues(from, to).Inc()
}

// RecordRoomOperation records a room provider call.
func RecordRoomOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	RoomOperations.WithLabelValues(operation, result).Inc()
}

// RecordRating counts a stored rating.
func RecordRating() {
	RatingsSubmitted.Inc()
}

// RecordMetricsRecompute records one tutor metrics recomputation.
func RecordMetricsRecompute(duration time.Duration, err error) {
	TutorMetricsRecomputeDuration.Observe(duration.Seconds())
	if err != nil {
		TutorMetricsRecomputeErrors.Inc()
	}
}

// RecordReportEnqueue records how an enqueue request was satisfied.
func RecordReportEnqueue(result string) {
	ReportJobsEnqueued.WithLabelValues(result).Inc()
}

// RecordReportJobStart marks a worker picking up a job attempt.
func RecordReportJobStart(limiterWait time.Duration) {
	ReportJobsStarted.Inc()
	ReportLimiterWait.Observe(limiterWait.Seconds())
	ReportWorkersBusy.Inc()
}

// RecordReportJobEnd records how a job attempt finished. outcome is one of
// completed, retry, permanent, exhausted or stalled.
func RecordReportJobEnd(duration time.Duration, outcome string) {
	ReportWorkersBusy.Dec()
	ReportJobDuration.Observe(duration.Seconds())
	switch outcome {
	case "completed":
		ReportJobsCompleted.Inc()
	case "retry":
		ReportJobRetries.Inc()
	default:
		ReportJobsFailed.WithLabelValues(outcome).Inc()
	}
}

// RecordReportStall counts a redelivery caused by an expired job lock.
func RecordReportStall() {
	ReportJobStalls.Inc()
}

// RecordReportJobAbandoned counts a job failed for stalling too often. No
// attempt is running, so the busy gauge is left alone.
func RecordReportJobAbandoned() {
	ReportJobsFailed.WithLabelValues("stalled").Inc()
}

// UpdateReportQueuePending sets the consumer's pending message count.
func UpdateReportQueuePending(pending uint64) {
	ReportQueuePending.Set(float64(pending))
}

// RecordTextGen records a text generation round trip.
func RecordTextGen(provider, result string, duration time.Duration) {
	TextGenRequests.WithLabelValues(provider, result).Inc()
	TextGenDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCircuitBreakerRequest records a call made through a breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition records a state change and updates the state gauge.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

// RecordNATSPublish counts a message published on subject.
func RecordNATSPublish(subject string) {
	NATSMessagesPublished.WithLabelValues(subject).Inc()
}

// RecordNATSDeduplicated counts a publish JetStream reported as a duplicate.
func RecordNATSDeduplicated() {
	NATSMessagesDeduplicated.Inc()
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// errorType buckets an error message into a low-cardinality label.
func errorType(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "conflict"):
		return "conflict"
	case strings.Contains(msg, "constraint"), strings.Contains(msg, "duplicate"):
		return "constraint"
	case strings.Contains(msg, "context deadline"), strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "not found"):
		return "not_found"
	default:
		return "other"
	}
}
