// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package config loads and validates Tutorhub configuration.

# Sources

Configuration is layered with Koanf v2, later sources winning:

  - Built-in defaults (defaultConfig)
  - An optional YAML file (CONFIG_PATH, config.yaml, /etc/tutorhub/config.yaml)
  - Environment variables, after cmd/server has loaded any .env file

Only variables listed in envMappings are read. Comma-separated values are
split for list settings such as CORS_ORIGINS and ADMIN_SUBJECTS.

# Sections

  - server: HTTP listener and shutdown
  - database: DuckDB path and write-conflict retry
  - nats: broker URL and the optional embedded server
  - queue: report worker pool, retry, stall and rate-limit policy
  - room: video-room provider
  - textgen: text-generation provider and model
  - security: identity verification, authorization, CORS, rate limiting
  - logging: zerolog level and format

# Example

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	db, err := database.New(&cfg.Database)
*/
package config
