// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package room

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tutorhub/internal/breaker"
	"github.com/tomtom215/tutorhub/internal/config"
)

// DefaultExpiryBuffer is added to the session length when setting room expiry.
const DefaultExpiryBuffer = 10 * time.Minute

// maxErrorBodySize limits how much of an error response is read for diagnostics.
const maxErrorBodySize = 64 * 1024

// errRoomNotFound marks a 404 from the rooms API. Deleting an already expired
// room is not a failure.
var errRoomNotFound = errors.New("room not found")

// DailyClient is a Provider backed by the Daily REST API.
type DailyClient struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	breaker      *breaker.Breaker
	expiryBuffer time.Duration
	now          func() time.Time
}

// NewDailyClient creates a Daily client from configuration.
func NewDailyClient(cfg *config.RoomConfig) *DailyClient {
	buffer := cfg.ExpiryBuffer
	if buffer <= 0 {
		buffer = DefaultExpiryBuffer
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	bcfg := breaker.DefaultConfig("daily-api")
	bcfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errRoomNotFound)
	}

	return &DailyClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		client:       &http.Client{Timeout: timeout},
		breaker:      breaker.New(bcfg),
		expiryBuffer: buffer,
		now:          time.Now,
	}
}

// Name implements Provider.
func (c *DailyClient) Name() string { return "daily" }

type dailyRoomProperties struct {
	MaxParticipants   int    `json:"max_participants"`
	EnableChat        bool   `json:"enable_chat"`
	EnableScreenshare bool   `json:"enable_screenshare"`
	EnableKnocking    bool   `json:"enable_knocking"`
	EnablePrejoinUI   bool   `json:"enable_prejoin_ui"`
	StartVideoOff     bool   `json:"start_video_off"`
	StartAudioOff     bool   `json:"start_audio_off"`
	Exp               int64  `json:"exp"`
	EjectAtRoomExp    bool   `json:"eject_at_room_exp"`
	EnableRecording   string `json:"enable_recording,omitempty"`
}

type dailyCreateRoomRequest struct {
	Name       string              `json:"name"`
	Privacy    string              `json:"privacy"`
	Properties dailyRoomProperties `json:"properties"`
}

type dailyRoomResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type dailyTokenProperties struct {
	RoomName string `json:"room_name"`
	UserName string `json:"user_name"`
	IsOwner  bool   `json:"is_owner"`
	Exp      int64  `json:"exp,omitempty"`
}

type dailyTokenRequest struct {
	Properties dailyTokenProperties `json:"properties"`
}

type dailyTokenResponse struct {
	Token string `json:"token"`
}

// RoomName is the deterministic room name for a session.
func RoomName(sessionID string) string {
	return "session-" + sessionID
}

// CreateRoom creates a private two-person room that ejects participants and
// expires durationMinutes plus the expiry buffer from now.
func (c *DailyClient) CreateRoom(ctx context.Context, sessionID string, durationMinutes int) (*Room, error) {
	expiresAt := c.now().Add(time.Duration(durationMinutes)*time.Minute + c.expiryBuffer).Truncate(time.Second)
	body := dailyCreateRoomRequest{
		Name:    RoomName(sessionID),
		Privacy: "private",
		Properties: dailyRoomProperties{
			MaxParticipants:   2,
			EnableChat:        false,
			EnableScreenshare: true,
			EnableKnocking:    false,
			EnablePrejoinUI:   false,
			Exp:               expiresAt.Unix(),
			EjectAtRoomExp:    true,
		},
	}

	return breaker.Execute(c.breaker, func() (*Room, error) {
		var resp dailyRoomResponse
		if err := c.do(ctx, http.MethodPost, "/rooms", body, &resp); err != nil {
			return nil, fmt.Errorf("failed to create video room: %w", err)
		}
		if resp.Name == "" || resp.URL == "" {
			return nil, errors.New("failed to create video room: empty room in response")
		}
		return &Room{Ref: resp.Name, URL: resp.URL, ExpiresAt: expiresAt}, nil
	})
}

// DeleteRoom deletes a room. A room that no longer exists is not an error.
func (c *DailyClient) DeleteRoom(ctx context.Context, ref string) error {
	_, err := breaker.Execute(c.breaker, func() (struct{}, error) {
		return struct{}{}, c.do(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(ref), nil, nil)
	})
	if errors.Is(err, errRoomNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete video room %s: %w", ref, err)
	}
	return nil
}

// MeetingToken mints a token for userName in the room. Owner tokens grant
// moderator rights.
func (c *DailyClient) MeetingToken(ctx context.Context, ref, userName string, owner bool) (string, error) {
	body := dailyTokenRequest{Properties: dailyTokenProperties{
		RoomName: ref,
		UserName: userName,
		IsOwner:  owner,
	}}
	return breaker.Execute(c.breaker, func() (string, error) {
		var resp dailyTokenResponse
		if err := c.do(ctx, http.MethodPost, "/meeting-tokens", body, &resp); err != nil {
			return "", fmt.Errorf("failed to generate meeting token: %w", err)
		}
		if resp.Token == "" {
			return "", errors.New("failed to generate meeting token: empty token")
		}
		return resp.Token, nil
	})
}

func (c *DailyClient) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return errRoomNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
