// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package textgen

import (
	"context"

	"github.com/goccy/go-json"
)

// Provider generates structured text from a prompt.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set, Content is JSON that has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name is the provider label used in metrics and logs.
	Name() string

	// Model returns the model identifier requests are sent to.
	Model() string
}

// Request is a single-turn generation request.
type Request struct {
	System string
	Prompt string

	// Schema asks the provider for JSON output and is used to validate it.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Schema describes the JSON document expected back.
type Schema struct {
	// Name identifies the schema, e.g. "session-report".
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the model output.
type Response struct {
	Content json.RawMessage
	Model   string
	Usage   Usage
}

// Usage is token consumption for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
