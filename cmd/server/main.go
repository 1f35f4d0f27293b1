// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

// Package main is the entry point for the tutorhub binary.
//
// Tutorhub books one-to-one tutoring sessions, drives them through their
// lifecycle, keeps per-tutor quality metrics current and generates a
// post-session report for every completed session on a durable job queue.
//
// # Commands
//
//	tutorhub serve     # run the API, report workers and progress hub (default)
//	tutorhub migrate   # apply the database schema and exit
//	tutorhub token     # mint a development bearer token
//
// # Application Architecture
//
// serve initializes components in this order:
//
//  1. Configuration: .env file, then Koanf v2 defaults < config.yaml < environment
//  2. Database: DuckDB with versioned migrations
//  3. NATS: embedded JetStream server (optional) and the report queue
//  4. Services: session manager, metrics recalculator, report generator
//  5. HTTP: chi router with authentication, casbin authorization and Swagger
//  6. Supervisor: suture tree with data, messaging and api layers
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor drains HTTP
// connections, requeues in-flight report jobs and shuts the embedded broker
// down before the database is closed.
//
// # Example Usage
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export TEXTGEN_PROVIDER=openai
//	export TEXTGEN_API_KEY=sk-...
//	./tutorhub serve
//
//	./tutorhub token --subject student-1 --ttl 1h
package main

import (
	"os"

	"github.com/tomtom215/tutorhub/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
