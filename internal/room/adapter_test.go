// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package room

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubProvider struct {
	mu        sync.Mutex
	createErr error
	deleteErr error
	block     bool
	deleted   []string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) CreateRoom(ctx context.Context, sessionID string, _ int) (*Room, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &Room{Ref: RoomName(sessionID), URL: "https://rooms.test/" + sessionID}, nil
}

func (s *stubProvider) DeleteRoom(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, ref)
	return s.deleteErr
}

func (s *stubProvider) MeetingToken(context.Context, string, string, bool) (string, error) {
	return "token", nil
}

func TestAdapter_CreateSuccess(t *testing.T) {
	t.Parallel()
	a := NewAdapter(&stubProvider{}, time.Second)

	p := a.Create(context.Background(), "s1", 30)
	if !p.OK() || p.Err != nil {
		t.Fatalf("expected room, got %+v", p)
	}
	if p.Room.Ref != "session-s1" {
		t.Errorf("ref: got %q", p.Room.Ref)
	}
}

func TestAdapter_CreateFailureIsValue(t *testing.T) {
	t.Parallel()
	boom := errors.New("quota exceeded")
	a := NewAdapter(&stubProvider{createErr: boom}, time.Second)

	p := a.Create(context.Background(), "s1", 30)
	if p.OK() {
		t.Fatal("expected no room")
	}
	if p.Err == nil || !errors.Is(p.Err, boom) {
		t.Fatalf("expected provisioning error wrapping cause, got %v", p.Err)
	}
	if p.Err.SessionID != "s1" {
		t.Errorf("session id: got %q", p.Err.SessionID)
	}
}

func TestAdapter_CreateIsTimeBounded(t *testing.T) {
	t.Parallel()
	a := NewAdapter(&stubProvider{block: true}, 20*time.Millisecond)

	start := time.Now()
	p := a.Create(context.Background(), "s1", 30)
	if p.OK() {
		t.Fatal("expected timeout failure")
	}
	if !errors.Is(p.Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", p.Err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("create took %v", elapsed)
	}
}

func TestAdapter_DestroySwallowsErrors(t *testing.T) {
	t.Parallel()
	stub := &stubProvider{deleteErr: errors.New("500")}
	a := NewAdapter(stub, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.Destroy(ctx, "session-s1")
	a.Destroy(ctx, "")

	if len(stub.deleted) != 1 || stub.deleted[0] != "session-s1" {
		t.Errorf("expected one delete call, got %v", stub.deleted)
	}
}

func TestAdapter_Disabled(t *testing.T) {
	t.Parallel()
	a := NewAdapter(Disabled{}, 0)
	if a.Enabled() {
		t.Error("disabled adapter reports enabled")
	}
	p := a.Create(context.Background(), "s1", 15)
	if p.OK() || !errors.Is(p.Err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %+v", p)
	}
	if _, err := a.JoinToken(context.Background(), "r", "n", false); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}
