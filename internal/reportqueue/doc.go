// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package reportqueue runs session report generation as durable background jobs
on NATS JetStream.

# Architecture

	Enqueue --> KV report_jobs (state) --> stream REPORTS (work queue)
	                                              |
	                                              v
	                          pull consumer report-workers (AckWait = lock)
	                                              |
	                         worker pool (Concurrency) + rate limiter
	                                              |
	                                              v
	                               report.Generator.Generate
	                                              |
	                         QueueEvent --> watermill topic reports.events

# Job Identity

The job id is derived from the session id ("report-" + sessionID). Enqueue
claims the job with an atomic KV create, so concurrent requests for the same
session join one job. The JetStream message id carries the KV revision, which
lets the stream's duplicate window drop replays of the same claim while a
re-request after failure is published as a new message.

# Retry and Stall Policy

  - Retryable failures are redelivered with NakWithDelay(BackoffBase * 2^(n-1))
    until Attempts is reached, then the job is failed.
  - Permanent failures (report.IsPermanent) are terminated immediately.
  - Workers call InProgress every HeartbeatInterval. A worker that stops
    heartbeating loses its lock after LockDuration and JetStream redelivers
    the message. A delivery that finds the job still marked active counts as
    a stall; more than MaxStalls stalls fails the job.
  - Job starts are capped at LimiterMax in any rolling LimiterWindow, across
    every process sharing the state bucket. The start log is one KV entry
    updated with revision compare-and-set.
  - A release at shutdown is not an attempt, and the consumer has no
    delivery cap, so an interrupted job always runs again.

# Status

Status consults the reports table first, so a generated report always reads
as completed even after its KV entry has expired. KV entries live for
Retention (24h by default).

# Embedded Server

EmbeddedServer starts an in-process nats-server with JetStream for
single-node deployments and tests.
*/
package reportqueue
