// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package models

import (
	"slices"
	"time"
)

// Role is the marketplace role of a user.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTutor   Role = "TUTOR"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

// User is a registered marketplace account mapped from an external identity.
type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Summary returns the public subset of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserSummary is embedded in session views.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID     string
	ExternalID string
	Role       Role
}

// SessionStatus is the lifecycle state of a tutoring session.
type SessionStatus string

const (
	StatusScheduled SessionStatus = "SCHEDULED"
	StatusLive      SessionStatus = "LIVE"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusCancelled SessionStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Occupying reports whether a session in state s holds its tutor's time slot.
func (s SessionStatus) Occupying() bool {
	return s == StatusScheduled || s == StatusLive
}

// CancelledBy records which participant cancelled a session.
type CancelledBy string

const (
	CancelledByStudent CancelledBy = "STUDENT"
	CancelledByTutor   CancelledBy = "TUTOR"
)

// AllowedDurations are the bookable session lengths in minutes.
var AllowedDurations = []int{15, 30, 45, 60}

// ValidDuration reports whether minutes is a bookable session length.
func ValidDuration(minutes int) bool {
	return slices.Contains(AllowedDurations, minutes)
}

// Session is one booked tutoring engagement. EndTime is always
// StartTime plus Duration minutes, and the cancellation fields are set
// exactly when Status is CANCELLED.
type Session struct {
	ID                 string        `json:"id"`
	StudentID          string        `json:"studentId"`
	TutorID            string        `json:"tutorId"`
	StartTime          time.Time     `json:"startTime"`
	EndTime            time.Time     `json:"endTime"`
	Duration           int           `json:"duration"`
	Status             SessionStatus `json:"status"`
	IsFirstSession     bool          `json:"isFirstSession"`
	RoomRef            *string       `json:"externalRoomRef,omitempty"`
	RoomURL            *string       `json:"roomUrl,omitempty"`
	CancelledBy        *CancelledBy  `json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time    `json:"cancelledAt,omitempty"`
	CancellationReason *string       `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// IsParticipant reports whether userID is the session's student or tutor.
func (s *Session) IsParticipant(userID string) bool {
	return userID != "" && (userID == s.StudentID || userID == s.TutorID)
}

// SessionEnd computes the exclusive end of a session starting at start.
func SessionEnd(start time.Time, durationMinutes int) time.Time {
	return start.Add(time.Duration(durationMinutes) * time.Minute)
}

// SessionDetail is the read view returned by getSession.
type SessionDetail struct {
	Session
	Student   UserSummary `json:"student"`
	Tutor     UserSummary `json:"tutor"`
	Rating    *Rating     `json:"rating,omitempty"`
	HasReport bool        `json:"hasReport"`
}

// SessionFilter narrows listSessions. Zero Limit means the default page size.
type SessionFilter struct {
	Status   SessionStatus
	Upcoming bool
	Limit    int
	Offset   int
}

// Rating is the single post-session rating a student leaves.
type Rating struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"sessionId"`
	StudentID     string    `json:"studentId"`
	TutorID       string    `json:"tutorId"`
	Punctuality   int       `json:"punctuality"`
	Friendliness  int       `json:"friendliness"`
	Helpfulness   int       `json:"helpfulness"`
	OverallRating float64   `json:"overallRating"`
	Comment       *string   `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// OverallOf returns the mean of the three rating dimensions.
func OverallOf(punctuality, friendliness, helpfulness int) float64 {
	return float64(punctuality+friendliness+helpfulness) / 3
}

// TutorMetrics is the derived per-tutor aggregate. It is always written as a
// full recomputation.
type TutorMetrics struct {
	TutorID                    string    `json:"tutorId"`
	TotalSessions              int       `json:"totalSessions"`
	CompletedSessions          int       `json:"completedSessions"`
	CancelledSessions          int       `json:"cancelledSessions"`
	CancellationsThisWeek      int       `json:"cancellationsThisWeek"`
	AverageRating              float64   `json:"averageRating"`
	FirstSessionCount          int       `json:"firstSessionCount"`
	FirstSessionLowRatingCount int       `json:"firstSessionLowRatingCount"`
	FirstSessionAvgRating      float64   `json:"firstSessionAvgRating"`
	ChurnRiskScore             float64   `json:"churnRiskScore"`
	IsHighChurnRisk            bool      `json:"isHighChurnRisk"`
	IsHighCancellation         bool      `json:"isHighCancellation"`
	LastCalculatedAt           time.Time `json:"lastCalculatedAt"`
}

// ChatMessage is one persisted transcript line.
type ChatMessage struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// SessionNote is the tutor's free-text note for a session.
type SessionNote struct {
	SessionID string    `json:"sessionId"`
	TutorID   string    `json:"tutorId"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReportData is the structured body of a generated report.
type ReportData struct {
	Summary             string   `json:"summary"`
	TopicsDiscussed     []string `json:"topicsDiscussed"`
	StudentProgress     string   `json:"studentProgress"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	NextSteps           []string `json:"nextSteps"`
	TutorNotes          string   `json:"tutorNotes"`
}

// SessionReport is the durable, one-per-session generated report.
type SessionReport struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"sessionId"`
	TutorID     string     `json:"tutorId"`
	ReportData  ReportData `json:"reportData"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// ReportJobState is the externally visible state of a report job.
type ReportJobState string

const (
	ReportNotStarted ReportJobState = "not_started"
	ReportQueued     ReportJobState = "queued"
	ReportActive     ReportJobState = "active"
	ReportCompleted  ReportJobState = "completed"
	ReportFailed     ReportJobState = "failed"
)

// ReportStatus answers getReportStatus.
type ReportStatus struct {
	SessionID string         `json:"sessionId"`
	State     ReportJobState `json:"status"`
	Progress  int            `json:"progress"`
	Attempts  int            `json:"attempts,omitempty"`
	Error     string         `json:"error,omitempty"`
	ReportID  string         `json:"reportId,omitempty"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`
}

// ReportJobHandle is returned by enqueueReport.
type ReportJobHandle struct {
	JobID     string         `json:"jobId"`
	SessionID string         `json:"sessionId"`
	State     ReportJobState `json:"status"`
	// Existing is true when the call joined a job or report that was already there.
	Existing bool `json:"existing"`
}

// TutorSessionFact is the per-session input to a tutor metrics recomputation.
type TutorSessionFact struct {
	SessionID      string
	Status         SessionStatus
	IsFirstSession bool
	CancelledBy    *CancelledBy
	CancelledAt    *time.Time
	// OverallRating is nil when the session has no rating.
	OverallRating *float64
}
