// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package room

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tutorhub/internal/config"
)

func newTestDailyClient(t *testing.T, handler http.HandlerFunc) *DailyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewDailyClient(&config.RoomConfig{
		Provider: "daily",
		BaseURL:  srv.URL + "/",
		APIKey:   "test-key",
		Timeout:  time.Second,
	})
	c.now = func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestDailyClient_CreateRoom(t *testing.T) {
	t.Parallel()

	var got dailyCreateRoomRequest
	c := newTestDailyClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rooms" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(dailyRoomResponse{Name: got.Name, URL: "https://x.daily.co/" + got.Name})
	})

	r, err := c.CreateRoom(context.Background(), "abc", 30)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if r.Ref != "session-abc" {
		t.Errorf("ref: got %q", r.Ref)
	}
	if r.URL != "https://x.daily.co/session-abc" {
		t.Errorf("url: got %q", r.URL)
	}

	wantExp := time.Date(2024, 1, 1, 10, 40, 0, 0, time.UTC)
	if !r.ExpiresAt.Equal(wantExp) {
		t.Errorf("expiresAt: got %v, want %v", r.ExpiresAt, wantExp)
	}
	if got.Properties.Exp != wantExp.Unix() {
		t.Errorf("exp: got %d, want %d", got.Properties.Exp, wantExp.Unix())
	}
	if got.Privacy != "private" || got.Properties.MaxParticipants != 2 || !got.Properties.EjectAtRoomExp {
		t.Errorf("unexpected room properties %+v", got)
	}
}

func TestDailyClient_CreateRoomServerError(t *testing.T) {
	t.Parallel()
	c := newTestDailyClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid-request-error"}`, http.StatusBadRequest)
	})

	if _, err := c.CreateRoom(context.Background(), "abc", 30); err == nil {
		t.Fatal("expected error")
	}
}

func TestDailyClient_DeleteRoomNotFoundIsSuccess(t *testing.T) {
	t.Parallel()
	c := newTestDailyClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/rooms/session-gone" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	})

	if err := c.DeleteRoom(context.Background(), "session-gone"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestDailyClient_MeetingToken(t *testing.T) {
	t.Parallel()
	var got dailyTokenRequest
	c := newTestDailyClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meeting-tokens" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(dailyTokenResponse{Token: "tok"})
	})

	token, err := c.MeetingToken(context.Background(), "session-abc", "Bob", true)
	if err != nil {
		t.Fatalf("MeetingToken: %v", err)
	}
	if token != "tok" {
		t.Errorf("token: got %q", token)
	}
	if got.Properties.RoomName != "session-abc" || got.Properties.UserName != "Bob" || !got.Properties.IsOwner {
		t.Errorf("unexpected token request %+v", got.Properties)
	}
}

func TestNewProvider(t *testing.T) {
	t.Parallel()
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{"", "none", false},
		{"none", "none", false},
		{"daily", "daily", false},
		{"zoom", "", true},
	}
	for _, tt := range tests {
		p, err := NewProvider(&config.RoomConfig{Provider: tt.provider})
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v", tt.provider, err)
			continue
		}
		if err == nil && p.Name() != tt.wantName {
			t.Errorf("%q: name = %q", tt.provider, p.Name())
		}
	}
}
