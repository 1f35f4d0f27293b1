// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package textgen abstracts the text-generation provider used to write session
reports.

Providers:
  - openai: sashabaranov/go-openai, JSON object mode; also any compatible endpoint via base_url
  - anthropic: anthropics/anthropic-sdk-go with JSON output format
  - gemini: google.golang.org/genai with a response schema
  - mock: canned responses, used in tests and local development
  - none: every call fails with ErrNotConfigured

Structured output is validated locally with santhosh-tekuri/jsonschema before
it is returned, so callers only see JSON that matched the requested schema.

Error classes drive the report queue's retry policy (see IsRetryable):

	ErrNotConfigured, *ConfigError         permanent
	*RateLimitError, *UnavailableError     retryable
	*InvalidResponseError                  retryable (models sometimes emit malformed JSON)
	context.DeadlineExceeded               retryable
	circuit breaker open                   retryable

Every real provider is wrapped by Guarded, which adds the per-call timeout, a
gobreaker circuit and Prometheus request metrics.
*/
package textgen
