// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/websocket"
)

// cast holds one registered student and tutor.
type cast struct {
	studentTok string
	student    models.User
	tutorTok   string
	tutor      models.User
}

func (s *testServer) cast(t *testing.T) cast {
	t.Helper()
	var c cast
	c.studentTok, c.student = s.register(t, "student-1", models.RoleStudent)
	c.tutorTok, c.tutor = s.register(t, "tutor-1", models.RoleTutor)
	return c
}

func futureSlot(hours int) time.Time {
	return time.Now().UTC().Add(time.Duration(hours) * time.Hour).Truncate(time.Hour)
}

// book creates a session and returns it.
func (s *testServer) book(t *testing.T, tok, tutorID string, start time.Time, duration int) models.Session {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/sessions", tok, map[string]interface{}{
		"tutorId":   tutorID,
		"startTime": start.Format(time.RFC3339),
		"duration":  duration,
	})
	checkStatus(t, rec, http.StatusCreated)
	var sess models.Session
	decodeData(t, rec, &sess)
	return sess
}

// complete drives a session to COMPLETED as the tutor.
func (s *testServer) complete(t *testing.T, tok, id string) {
	t.Helper()
	rec := s.do(t, http.MethodPatch, "/api/sessions/"+id+"/status", tok, map[string]string{"status": "COMPLETED"})
	checkStatus(t, rec, http.StatusOK)
}

func TestSessions_Create(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	c := s.cast(t)
	start := futureSlot(48)

	sess := s.book(t, c.studentTok, c.tutor.ID, start, 60)
	if sess.Status != models.StatusScheduled {
		t.Errorf("status = %s, want SCHEDULED", sess.Status)
	}
	if !sess.IsFirstSession {
		t.Error("first booking with this tutor should be flagged")
	}
	if !sess.EndTime.Equal(start.Add(time.Hour)) {
		t.Errorf("endTime = %s, want %s", sess.EndTime, start.Add(time.Hour))
	}

	tests := []struct {
		name   string
		tok    string
		body   map[string]interface{}
		status int
		code   string
	}{
		{
			name:   "overlapping slot",
			tok:    c.studentTok,
			body:   map[string]interface{}{"tutorId": c.tutor.ID, "startTime": start.Add(30 * time.Minute).Format(time.RFC3339), "duration": 30},
			status: http.StatusConflict,
			code:   ErrCodeConflict,
		},
		{
			name:   "tutor cannot book",
			tok:    c.tutorTok,
			body:   map[string]interface{}{"tutorId": c.tutor.ID, "startTime": futureSlot(72).Format(time.RFC3339), "duration": 30},
			status: http.StatusForbidden,
			code:   ErrCodeForbidden,
		},
		{
			name:   "unsupported duration",
			tok:    c.studentTok,
			body:   map[string]interface{}{"tutorId": c.tutor.ID, "startTime": futureSlot(96).Format(time.RFC3339), "duration": 20},
			status: http.StatusBadRequest,
			code:   ErrCodeValidationFailed,
		},
		{
			name:   "unknown tutor",
			tok:    c.studentTok,
			body:   map[string]interface{}{"tutorId": "missing", "startTime": futureSlot(96).Format(time.RFC3339), "duration": 30},
			status: http.StatusNotFound,
			code:   ErrCodeNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkError(t, s.do(t, http.MethodPost, "/api/sessions", tt.tok, tt.body), tt.status, tt.code)
		})
	}

	// Back-to-back booking is fine.
	next := s.book(t, c.studentTok, c.tutor.ID, start.Add(time.Hour), 30)
	if next.IsFirstSession {
		t.Error("second booking flagged as first session")
	}
}

func TestSessions_ListAndGet(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	c := s.cast(t)
	outsiderTok, _ := s.register(t, "student-2", models.RoleStudent)

	a := s.book(t, c.studentTok, c.tutor.ID, futureSlot(24), 30)
	s.book(t, c.studentTok, c.tutor.ID, futureSlot(48), 45)

	for _, tok := range []string{c.studentTok, c.tutorTok} {
		var list []models.Session
		env := decodeData(t, s.do(t, http.MethodGet, "/api/sessions?limit=1", tok, nil), &list)
		if len(list) != 1 {
			t.Fatalf("len = %d, want 1", len(list))
		}
		if env.Meta.Pagination == nil || !env.Meta.Pagination.HasMore {
			t.Errorf("pagination = %+v, want has_more", env.Meta.Pagination)
		}
	}

	var outsiderList []models.Session
	decodeData(t, s.do(t, http.MethodGet, "/api/sessions", outsiderTok, nil), &outsiderList)
	if len(outsiderList) != 0 {
		t.Errorf("outsider sees %d sessions", len(outsiderList))
	}
	checkError(t, s.do(t, http.MethodGet, "/api/sessions?status=DONE", c.studentTok, nil), http.StatusBadRequest, ErrCodeValidationFailed)
	checkError(t, s.do(t, http.MethodGet, "/api/sessions?limit=abc", c.studentTok, nil), http.StatusBadRequest, ErrCodeValidationFailed)

	var detail models.SessionDetail
	decodeData(t, s.do(t, http.MethodGet, "/api/sessions/"+a.ID, c.tutorTok, nil), &detail)
	if detail.Student.ID != c.student.ID || detail.Tutor.ID != c.tutor.ID {
		t.Errorf("participants = %+v / %+v", detail.Student, detail.Tutor)
	}
	if detail.HasReport || detail.Rating != nil {
		t.Error("fresh session should have neither report nor rating")
	}

	checkError(t, s.do(t, http.MethodGet, "/api/sessions/"+a.ID, outsiderTok, nil), http.StatusForbidden, ErrCodeForbidden)
	checkError(t, s.do(t, http.MethodGet, "/api/sessions/missing", c.studentTok, nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestSessions_StatusAndCancel(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	c := s.cast(t)

	live := s.book(t, c.studentTok, c.tutor.ID, futureSlot(24), 30)
	var got models.Session
	decodeData(t, s.do(t, http.MethodPatch, "/api/sessions/"+live.ID+"/status", c.tutorTok, map[string]string{"status": "LIVE"}), &got)
	if got.Status != models.StatusLive {
		t.Errorf("status = %s, want LIVE", got.Status)
	}
	s.complete(t, c.tutorTok, live.ID)

	// COMPLETED is terminal.
	checkError(t, s.do(t, http.MethodPatch, "/api/sessions/"+live.ID+"/status", c.tutorTok, map[string]string{"status": "LIVE"}),
		http.StatusBadRequest, ErrCodeValidationFailed)
	env := checkError(t, s.do(t, http.MethodDelete, "/api/sessions/"+live.ID, c.studentTok, nil), http.StatusBadRequest, ErrCodeValidationFailed)
	if env.Error.Message != models.MsgCannotCancel {
		t.Errorf("message = %q, want %q", env.Error.Message, models.MsgCannotCancel)
	}
	checkError(t, s.do(t, http.MethodPatch, "/api/sessions/"+live.ID+"/status", c.tutorTok, map[string]string{"status": "PAUSED"}),
		http.StatusBadRequest, ErrCodeValidationFailed)

	sched := s.book(t, c.studentTok, c.tutor.ID, futureSlot(48), 30)
	var cancelled models.Session
	decodeData(t, s.do(t, http.MethodDelete, "/api/sessions/"+sched.ID, c.tutorTok, map[string]string{"reason": "Sick"}), &cancelled)
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancelledBy == nil || *cancelled.CancelledBy != models.CancelledByTutor {
		t.Errorf("cancelledBy = %v, want TUTOR", cancelled.CancelledBy)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != "Sick" {
		t.Errorf("reason = %v", cancelled.CancellationReason)
	}

	// The freed slot can be booked again.
	s.book(t, c.studentTok, c.tutor.ID, sched.StartTime, 30)
}

func TestSessions_RoomToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	c := s.cast(t)
	sess := s.book(t, c.studentTok, c.tutor.ID, futureSlot(24), 30)

	// Rooms are disabled, so the session has no room.
	checkError(t, s.do(t, http.MethodGet, "/api/sessions/"+sess.ID+"/room", c.studentTok, nil), http.StatusConflict, ErrCodeConflict)
}

func TestSessions_MessagesAndNotes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	c := s.cast(t)
	sess := s.book(t, c.studentTok, c.tutor.ID, futureSlot(24), 30)
	base := "/api/sessions/" + sess.ID

	checkStatus(t, s.do(t, http.MethodPost, base+"/messages", c.studentTok, map[string]string{"content": "Hello"}), http.StatusCreated)
	checkStatus(t, s.do(t, http.MethodPost, base+"/messages", c.tutorTok, map[string]string{"content": "Hi there"}), http.StatusCreated)
	checkError(t, s.do(t, http.MethodPost, base+"/messages", c.tutorTok, map[string]string{"content": "   "}),
		http.StatusBadRequest, ErrCodeValidationFailed)

	var msgs []models.ChatMessage
	decodeData(t, s.do(t, http.MethodGet, base+"/messages", c.studentTok, nil), &msgs)
	if len(msgs) != 2 || msgs[0].Message != "Hello" || msgs[1].SenderID != c.tutor.ID {
		t.Errorf("messages = %+v", msgs)
	}

	checkError(t, s.do(t, http.MethodGet, base+"/notes", c.studentTok, nil), http.StatusNotFound, ErrCodeNotFound)
	// Students may read notes but never write them.
	checkError(t, s.do(t, http.MethodPut, base+"/notes", c.studentTok, map[string]string{"content": "mine"}),
		http.StatusForbidden, ErrCodeForbidden)

	checkStatus(t, s.do(t, http.MethodPut, base+"/notes", c.tutorTok, map[string]string{"content": "Fractions"}), http.StatusOK)
	var note models.SessionNote
	decodeData(t, s.do(t, http.MethodGet, base+"/notes", c.studentTok, nil), &note)
	if note.Content != "Fractions" || note.TutorID != c.tutor.ID {
		t.Errorf("note = %+v", note)
	}
}

func TestRatings(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	c := s.cast(t)
	sess := s.book(t, c.studentTok, c.tutor.ID, futureSlot(24), 30)
	path := "/api/ratings/session/" + sess.ID
	body := map[string]interface{}{"punctuality": 5, "friendliness": 4, "helpfulness": 3}

	checkError(t, s.do(t, http.MethodPost, path, c.studentTok, body), http.StatusBadRequest, ErrCodeValidationFailed)
	s.complete(t, c.tutorTok, sess.ID)

	checkError(t, s.do(t, http.MethodPost, path, c.studentTok, map[string]interface{}{"punctuality": 6, "friendliness": 4, "helpfulness": 3}),
		http.StatusBadRequest, ErrCodeValidationFailed)
	checkError(t, s.do(t, http.MethodPost, path, c.tutorTok, body), http.StatusForbidden, ErrCodeForbidden)

	rec := s.do(t, http.MethodPost, path, c.studentTok, body)
	checkStatus(t, rec, http.StatusCreated)
	var rating models.Rating
	decodeData(t, rec, &rating)
	if rating.OverallRating != 4 {
		t.Errorf("overallRating = %v, want 4", rating.OverallRating)
	}

	env := checkError(t, s.do(t, http.MethodPost, path, c.studentTok, body), http.StatusConflict, ErrCodeConflict)
	if env.Error.Message != models.MsgAlreadyRated {
		t.Errorf("message = %q, want %q", env.Error.Message, models.MsgAlreadyRated)
	}

	var fetched models.Rating
	decodeData(t, s.do(t, http.MethodGet, path, c.tutorTok, nil), &fetched)
	if fetched.ID != rating.ID {
		t.Errorf("fetched rating %s, want %s", fetched.ID, rating.ID)
	}
}

func TestReports(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	c := s.cast(t)
	sess := s.book(t, c.studentTok, c.tutor.ID, futureSlot(24), 30)
	path := "/api/reports/session/" + sess.ID

	checkError(t, s.do(t, http.MethodPost, path, c.tutorTok, nil), http.StatusBadRequest, ErrCodeValidationFailed)
	s.complete(t, c.tutorTok, sess.ID)

	checkError(t, s.do(t, http.MethodPost, path, c.studentTok, nil), http.StatusForbidden, ErrCodeForbidden)

	rec := s.do(t, http.MethodPost, path, c.tutorTok, nil)
	checkStatus(t, rec, http.StatusAccepted)
	var handle models.ReportJobHandle
	decodeData(t, rec, &handle)
	if handle.SessionID != sess.ID || handle.Existing {
		t.Errorf("handle = %+v", handle)
	}

	decodeData(t, s.do(t, http.MethodPost, path, c.tutorTok, nil), &handle)
	if !handle.Existing {
		t.Error("second enqueue should join the existing job")
	}

	var st models.ReportStatus
	decodeData(t, s.do(t, http.MethodGet, path+"/status", c.studentTok, nil), &st)
	if st.State != models.ReportQueued {
		t.Errorf("state = %s, want queued", st.State)
	}

	checkError(t, s.do(t, http.MethodGet, path, c.tutorTok, nil), http.StatusNotFound, ErrCodeNotFound)

	var list []models.SessionReport
	decodeData(t, s.do(t, http.MethodGet, "/api/reports", c.tutorTok, nil), &list)
	if len(list) != 0 {
		t.Errorf("reports = %d, want 0", len(list))
	}
	checkError(t, s.do(t, http.MethodGet, "/api/reports", c.studentTok, nil), http.StatusForbidden, ErrCodeForbidden)
}

// recordingStream records which session was streamed.
type recordingStream struct {
	sessionID string
	status    *models.ReportStatus
}

func (p *recordingStream) ServeSession(w http.ResponseWriter, r *http.Request, sessionID string, status websocket.StatusFunc) {
	p.sessionID = sessionID
	p.status, _ = status(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func TestReports_Events(t *testing.T) {
	t.Parallel()

	t.Run("stream disabled", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t)
		c := s.cast(t)
		sess := s.book(t, c.studentTok, c.tutor.ID, futureSlot(24), 30)
		checkError(t, s.do(t, http.MethodGet, "/api/reports/session/"+sess.ID+"/events", c.tutorTok, nil),
			http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
	})

	t.Run("stream enabled", func(t *testing.T) {
		t.Parallel()
		stream := &recordingStream{}
		s := newTestServer(t, withProgress(stream))
		c := s.cast(t)
		outsiderTok, _ := s.register(t, "student-2", models.RoleStudent)
		sess := s.book(t, c.studentTok, c.tutor.ID, futureSlot(24), 30)
		path := "/api/reports/session/" + sess.ID + "/events"

		checkError(t, s.do(t, http.MethodGet, path, outsiderTok, nil), http.StatusForbidden, ErrCodeForbidden)
		if stream.sessionID != "" {
			t.Fatal("stream served to a non-participant")
		}

		checkStatus(t, s.do(t, http.MethodGet, path, c.studentTok, nil), http.StatusNoContent)
		if stream.sessionID != sess.ID {
			t.Errorf("streamed session = %q, want %q", stream.sessionID, sess.ID)
		}
		if stream.status == nil || stream.status.State != models.ReportNotStarted {
			t.Errorf("status = %+v, want not_started", stream.status)
		}
	})
}

func TestAdmin(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	c := s.cast(t)
	adminTok, _ := s.register(t, testAdminSubject, models.RoleTutor)

	sess := s.book(t, c.studentTok, c.tutor.ID, futureSlot(24), 30)
	s.complete(t, c.tutorTok, sess.ID)
	metricsPath := "/api/admin/tutors/" + c.tutor.ID + "/metrics"

	var m models.TutorMetrics
	decodeData(t, s.do(t, http.MethodPost, metricsPath+"/recalculate", adminTok, nil), &m)
	if m.TotalSessions != 1 || m.CompletedSessions != 1 || m.FirstSessionCount != 1 {
		t.Errorf("metrics = %+v", m)
	}
	decodeData(t, s.do(t, http.MethodGet, metricsPath, adminTok, nil), &m)
	if m.TutorID != c.tutor.ID {
		t.Errorf("tutorId = %s", m.TutorID)
	}

	// Students are not tutors.
	checkError(t, s.do(t, http.MethodGet, "/api/admin/tutors/"+c.student.ID+"/metrics", adminTok, nil), http.StatusNotFound, ErrCodeNotFound)

	var ov map[string]interface{}
	decodeData(t, s.do(t, http.MethodGet, "/api/admin/queue", adminTok, nil), &ov)
	if len(ov) == 0 {
		t.Error("empty queue overview")
	}

	for _, tok := range []string{c.studentTok, c.tutorTok} {
		checkError(t, s.do(t, http.MethodGet, metricsPath, tok, nil), http.StatusForbidden, ErrCodeForbidden)
		checkError(t, s.do(t, http.MethodGet, "/api/admin/queue", tok, nil), http.StatusForbidden, ErrCodeForbidden)
	}
}

func TestAdmin_QueueUnavailable(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	adminTok, _ := s.register(t, testAdminSubject, models.RoleTutor)

	s.queue.err = context.DeadlineExceeded
	checkError(t, s.do(t, http.MethodGet, "/api/admin/queue", adminTok, nil), http.StatusBadGateway, ErrCodeExternalServiceFail)
}
