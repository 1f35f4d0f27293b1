// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package report

import "github.com/tomtom215/tutorhub/internal/textgen"

// Placeholders written for fields the model left out.
const (
	NoSummary       = "No summary available"
	NoProgress      = "No progress assessment available"
	NoNotes         = "No notes available"
	NoChatRecorded  = "No chat messages recorded"
	NoNotesRecorded = "No notes recorded"
)

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// Schema is the JSON shape requested from the provider. No field is
// required: omissions are filled with placeholders, while wrong types fail
// validation and make the attempt retryable.
var Schema = &textgen.Schema{
	Name:        "session-report",
	Description: "Structured summary of a tutoring session",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary":             map[string]any{"type": "string"},
			"topicsDiscussed":     stringList(),
			"studentProgress":     map[string]any{"type": "string"},
			"strengths":           stringList(),
			"areasForImprovement": stringList(),
			"nextSteps":           stringList(),
			"tutorNotes":          map[string]any{"type": "string"},
		},
	},
}
