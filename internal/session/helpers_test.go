// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tutorhub/internal/config"
	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/models"
	"github.com/tomtom215/tutorhub/internal/room"
)

// testDBSemaphore serializes DuckDB usage across parallel tests.
var testDBSemaphore = make(chan struct{}, 1)

var (
	baseTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	fixedNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := database.New(&config.DatabaseConfig{
		Path:           ":memory:",
		MaxMemory:      "512MB",
		RetryAttempts:  5,
		RetryBaseDelay: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("close: %v", err)
		}
	})
	return db
}

// stubRooms records room calls. createErr makes Create fail; disabled mimics
// an unconfigured provider. A non-nil hold blocks Destroy until closed.
type stubRooms struct {
	mu        sync.Mutex
	hold      chan struct{}
	createErr error
	disabled  bool
	created   []string
	destroyed []string
}

func (r *stubRooms) Create(_ context.Context, sessionID string, minutes int) room.Provisioning {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.disabled:
		return room.Provisioning{Err: &room.ProvisioningError{SessionID: sessionID, Err: room.ErrDisabled}}
	case r.createErr != nil:
		return room.Provisioning{Err: &room.ProvisioningError{SessionID: sessionID, Err: r.createErr}}
	}
	r.created = append(r.created, sessionID)
	return room.Provisioning{Room: &room.Room{
		Ref:       "session-" + sessionID,
		URL:       "https://rooms.example.com/session-" + sessionID,
		ExpiresAt: baseTime.Add(time.Duration(minutes+10) * time.Minute),
	}}
}

func (r *stubRooms) Destroy(_ context.Context, ref string) {
	if r.hold != nil {
		<-r.hold
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyed = append(r.destroyed, ref)
}

func (r *stubRooms) JoinToken(_ context.Context, ref, userName string, owner bool) (string, error) {
	if owner {
		return "owner:" + ref + ":" + userName, nil
	}
	return "guest:" + ref + ":" + userName, nil
}

func (r *stubRooms) destroyedRefs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.destroyed...)
}

type stubRecalc struct {
	mu    sync.Mutex
	err   error
	calls map[string]int
}

func (r *stubRecalc) Recalculate(_ context.Context, tutorID string) (*models.TutorMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[tutorID]++
	if r.err != nil {
		return nil, r.err
	}
	return &models.TutorMetrics{TutorID: tutorID}, nil
}

func (r *stubRecalc) count(tutorID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[tutorID]
}

type fixture struct {
	db      *database.DB
	mgr     *Manager
	rooms   *stubRooms
	recalc  *stubRecalc
	student *models.User
	tutor   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:     setupTestDB(t),
		rooms:  &stubRooms{},
		recalc: &stubRecalc{},
	}
	f.mgr = NewManager(f.db, f.rooms, f.recalc, WithClock(func() time.Time { return fixedNow }))
	f.student = f.addUser(t, "alice", models.RoleStudent)
	f.tutor = f.addUser(t, "bob", models.RoleTutor)
	return f
}

// destroyed waits for background teardowns and returns the deleted room refs.
func (f *fixture) destroyed() []string {
	f.mgr.Wait()
	return f.rooms.destroyedRefs()
}

func (f *fixture) addUser(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		ID:         uuid.NewString(),
		ExternalID: "ext-" + uuid.NewString(),
		Name:       name,
		Email:      name + "@example.com",
		Role:       role,
		CreatedAt:  fixedNow,
	}
	checkNoError(t, f.db.CreateUser(context.Background(), u))
	return u
}

func actorOf(u *models.User) models.Actor {
	return models.Actor{UserID: u.ID, ExternalID: u.ExternalID, Role: u.Role}
}

// book creates a session for the fixture's student and tutor.
func (f *fixture) book(t *testing.T, start time.Time, minutes int) *models.Session {
	t.Helper()
	res, err := f.mgr.CreateSession(context.Background(), actorOf(f.student), CreateRequest{
		TutorID:   f.tutor.ID,
		StartTime: start,
		Duration:  minutes,
	})
	checkNoError(t, err)
	return res.Session
}

func (f *fixture) complete(t *testing.T, s *models.Session) {
	t.Helper()
	_, err := f.mgr.SetStatus(context.Background(), actorOf(f.tutor), s.ID, models.StatusCompleted)
	checkNoError(t, err)
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func checkErrorKind(t *testing.T, err error, kind string, is func(error) bool) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !is(err) {
		t.Fatalf("expected %s error, got %T: %v", kind, err, err)
	}
}

func checkErrorMessage(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil || err.Error() != want {
		t.Errorf("error = %v, want %q", err, want)
	}
}

func checkStatus(t *testing.T, got, want models.SessionStatus) {
	t.Helper()
	if got != want {
		t.Errorf("status = %s, want %s", got, want)
	}
}

var errRoomDown = errors.New("room provider unavailable")
