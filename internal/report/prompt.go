// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/tomtom215/tutorhub/internal/models"
)

// SystemPrompt frames the model as a report writer.
const SystemPrompt = "You are an educational assistant that analyzes tutoring sessions and gives constructive feedback."

// Input is everything a report is written from.
type Input struct {
	Session     *models.Session
	StudentName string
	TutorName   string
	Messages    []models.ChatMessage
	Notes       string
	Rating      *models.Rating
}

// DurationMinutes is the scheduled length, rounded to whole minutes.
func (in *Input) DurationMinutes() int {
	return int(math.Round(in.Session.EndTime.Sub(in.Session.StartTime).Minutes()))
}

// Transcript renders the chat as "name: message" lines, oldest first.
func (in *Input) Transcript() string {
	lines := make([]string, len(in.Messages))
	for i, m := range in.Messages {
		lines[i] = m.SenderName + ": " + m.Message
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt renders the user prompt. The output depends only on in.
func BuildPrompt(in *Input) string {
	var b strings.Builder

	b.WriteString("Analyze this tutoring session and write a report.\n\n")
	b.WriteString("Session details:\n")
	fmt.Fprintf(&b, "- Student: %s\n", in.StudentName)
	fmt.Fprintf(&b, "- Tutor: %s\n", in.TutorName)
	fmt.Fprintf(&b, "- Duration: %d minutes\n", in.DurationMinutes())
	if r := in.Rating; r != nil {
		fmt.Fprintf(&b, "- Rating: %.2f/5 (Punctuality: %d/5, Friendliness: %d/5, Helpfulness: %d/5)\n",
			r.OverallRating, r.Punctuality, r.Friendliness, r.Helpfulness)
		if r.Comment != nil && *r.Comment != "" {
			fmt.Fprintf(&b, "- Student feedback: %s\n", *r.Comment)
		}
	} else {
		b.WriteString("- Rating: Not rated yet\n")
	}

	b.WriteString("\nChat conversation:\n")
	if t := in.Transcript(); t != "" {
		b.WriteString(t)
	} else {
		b.WriteString(NoChatRecorded)
	}

	b.WriteString("\n\nTutor notes:\n")
	if in.Notes != "" {
		b.WriteString(in.Notes)
	} else {
		b.WriteString(NoNotesRecorded)
	}

	b.WriteString(`

Respond with a JSON object of this shape:
{
  "summary": "2-3 sentence overview of the session",
  "topicsDiscussed": ["topic"],
  "studentProgress": "assessment of the student's understanding and progress",
  "strengths": ["strength"],
  "areasForImprovement": ["area"],
  "nextSteps": ["recommended next step"],
  "tutorNotes": "key observations from the tutor's perspective"
}`)
	return b.String()
}
