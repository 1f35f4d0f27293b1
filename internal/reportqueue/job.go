// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package reportqueue

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tutorhub/internal/models"
)

// JobKind tags the payload so the stream can carry other job types later.
const JobKind = "session_report"

// JobID returns the deterministic job id for a session.
func JobID(sessionID string) string {
	return "report-" + sessionID
}

// jobMessage is the JetStream payload.
type jobMessage struct {
	Kind      string    `json:"kind"`
	JobID     string    `json:"jobId"`
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

func encodeJob(m jobMessage) ([]byte, error) {
	return json.Marshal(m)
}

func decodeJob(data []byte) (jobMessage, error) {
	var m jobMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode job: %w", err)
	}
	if m.Kind != JobKind {
		return m, fmt.Errorf("unknown job kind %q", m.Kind)
	}
	if m.SessionID == "" {
		return m, fmt.Errorf("job has no session id")
	}
	return m, nil
}

// jobRecord is the KV-held state of a job, keyed by session id.
type jobRecord struct {
	JobID     string                `json:"jobId"`
	SessionID string                `json:"sessionId"`
	State     models.ReportJobState `json:"state"`
	Progress  int                   `json:"progress"`
	// Attempts counts finished attempts that failed with a retryable error.
	Attempts int `json:"attempts"`
	// Stalls counts deliveries that found the job still active.
	Stalls     int       `json:"stalls"`
	Error      string    `json:"error,omitempty"`
	ReportID   string    `json:"reportId,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (r *jobRecord) marshal() ([]byte, error) {
	return json.Marshal(r)
}

func unmarshalRecord(data []byte) (*jobRecord, error) {
	var r jobRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode job record: %w", err)
	}
	return &r, nil
}

// pending reports whether the job still owns the session's queue slot.
func (r *jobRecord) pending() bool {
	return r.State == models.ReportQueued || r.State == models.ReportActive
}

func (r *jobRecord) status() *models.ReportStatus {
	updated := r.UpdatedAt
	return &models.ReportStatus{
		SessionID: r.SessionID,
		State:     r.State,
		Progress:  r.Progress,
		Attempts:  r.Attempts,
		Error:     r.Error,
		ReportID:  r.ReportID,
		UpdatedAt: &updated,
	}
}

// retryDelay is the exponential backoff before retry n (1-based).
func retryDelay(base time.Duration, n int) time.Duration {
	if n < 1 {
		n = 1
	}
	if n > 16 {
		n = 16
	}
	return base * time.Duration(1<<(n-1))
}
