// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// setupTestEnv sets envVars for the duration of the test. Tests using it must
// not call t.Parallel.
func setupTestEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	for k, v := range envVars {
		t.Setenv(k, v)
	}
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErrorContains(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q does not contain %q", err.Error(), want)
	}
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestDefaultConfig_QueuePolicy(t *testing.T) {
	t.Parallel()

	q := defaultConfig().Queue
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"concurrency", q.Concurrency, 5},
		{"attempts", q.Attempts, 3},
		{"backoff", q.BackoffBase, 2 * time.Second},
		{"timeout", q.JobTimeout, 5 * time.Minute},
		{"lock", q.LockDuration, 5 * time.Minute},
		{"heartbeat", q.HeartbeatInterval, 30 * time.Second},
		{"stalls", q.MaxStalls, 2},
		{"limiter max", q.LimiterMax, 10},
		{"limiter window", q.LimiterWindow, time.Minute},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()
	assertNoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "short" }, "JWT_SECRET"},
		{"auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, "AUTH_MODE"},
		{"oidc incomplete", func(c *Config) { c.Security.AuthMode = "oidc" }, "OIDC_ISSUER_URL"},
		{"wildcard cors in production", func(c *Config) { c.Server.Environment = "production" }, "CORS_ORIGINS"},
		{"heartbeat longer than lock", func(c *Config) { c.Queue.HeartbeatInterval = 10 * time.Minute }, "REPORT_HEARTBEAT"},
		{"zero concurrency", func(c *Config) { c.Queue.Concurrency = 0 }, "REPORT_CONCURRENCY"},
		{"dedup beyond retention", func(c *Config) { c.Queue.DedupWindow = 48 * time.Hour }, "REPORT_DEDUP_WINDOW"},
		{"nats scheme", func(c *Config) { c.NATS.URL = "http://localhost:4222" }, "NATS_URL"},
		{"daily without key", func(c *Config) { c.Room.Provider = "daily" }, "DAILY_API_KEY"},
		{"unknown room provider", func(c *Config) { c.Room.Provider = "zoom" }, "ROOM_PROVIDER"},
		{"unknown textgen provider", func(c *Config) { c.TextGen.Provider = "llama" }, "TEXTGEN_PROVIDER"},
		{"temperature", func(c *Config) { c.TextGen.Temperature = 3 }, "TEXTGEN_TEMPERATURE"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"user cache without size", func(c *Config) { c.Security.UserCacheSize = 0 }, "USER_CACHE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			assertErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidate_QueueDisabledSkipsBrokerChecks(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Queue.Enabled = false
	cfg.Queue.Concurrency = 0
	cfg.NATS.URL = "not a url"
	assertNoError(t, cfg.Validate())
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"HTTP_PORT":          "server.port",
		"REPORT_CONCURRENCY": "queue.concurrency",
		"DAILY_API_KEY":      "room.api_key",
		"TEXTGEN_MODEL":      "textgen.model",
		"OIDC_SCOPES":        "security.oidc.scopes",
		"PATH":               "",
		"HOME":               "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setupTestEnv(t, map[string]string{
		"JWT_SECRET":         testSecret,
		"HTTP_PORT":          "9090",
		"REPORT_CONCURRENCY": "2",
		"REPORT_JOB_TIMEOUT": "90s",
		"CORS_ORIGINS":       "https://app.example.com, https://admin.example.com",
		"ADMIN_SUBJECTS":     "ops-1,ops-2",
	})

	cfg, err := Load()
	assertNoError(t, err)

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Queue.Concurrency != 2 {
		t.Errorf("concurrency = %d", cfg.Queue.Concurrency)
	}
	if cfg.Queue.JobTimeout != 90*time.Second {
		t.Errorf("job timeout = %v", cfg.Queue.JobTimeout)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://admin.example.com" {
		t.Errorf("cors origins = %v", cfg.Security.CORSOrigins)
	}
	if len(cfg.Security.AdminSubjects) != 2 {
		t.Errorf("admin subjects = %v", cfg.Security.AdminSubjects)
	}
	if cfg.Queue.Attempts != 3 {
		t.Errorf("unset values should keep defaults, attempts = %d", cfg.Queue.Attempts)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 7000
textgen:
  provider: anthropic
  model: claude-sonnet-4-5
security:
  jwt_secret: ` + testSecret + `
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := Load()
	assertNoError(t, err)

	if cfg.Server.Port != 7001 {
		t.Errorf("env should override file, port = %d", cfg.Server.Port)
	}
	if cfg.TextGen.Provider != "anthropic" || cfg.TextGen.Model != "claude-sonnet-4-5" {
		t.Errorf("file values not applied: %+v", cfg.TextGen)
	}
}

func TestLoad_InvalidFails(t *testing.T) {
	setupTestEnv(t, map[string]string{"JWT_SECRET": "too-short"})

	_, err := Load()
	assertErrorContains(t, err, "JWT_SECRET")
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if s.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", s.Addr())
	}
}

func TestNATSHostPort(t *testing.T) {
	t.Parallel()
	tests := []struct {
		url      string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"nats://127.0.0.1:4222", "127.0.0.1", 4222, false},
		{"nats://localhost", "localhost", 4222, false},
		{"nats://0.0.0.0:-1", "", 0, true},
		{"http://localhost:4222", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			host, port, err := NATSHostPort(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.url)
				}
				return
			}
			assertNoError(t, err)
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("NATSHostPort(%s) = %s, %d, want %s, %d", tt.url, host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}
