// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
//
// Loading order (Koanf v2):
//  1. Defaults from defaultConfig
//  2. Optional YAML file (CONFIG_PATH, config.yaml, /etc/tutorhub/config.yaml)
//  3. Environment variables, mapped through envMappings
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	NATS     NATSConfig     `koanf:"nats"`
	Queue    QueueConfig    `koanf:"queue"`
	Room     RoomConfig     `koanf:"room"`
	TextGen  TextGenConfig  `koanf:"textgen"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development or production
	SwaggerEnabled  bool          `koanf:"swagger_enabled"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"` // ":memory:" for an ephemeral store
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()

	// Write transactions that lose a DuckDB optimistic-concurrency conflict are
	// retried with exponential backoff.
	RetryAttempts  int           `koanf:"retry_attempts"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
}

// NATSConfig holds broker connection settings.
//
// Environment Variables:
//   - NATS_URL: broker URL (default nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: start an in-process server (default true)
//   - NATS_STORE_DIR: JetStream storage directory for the embedded server
type NATSConfig struct {
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	EventsTopic    string        `koanf:"events_topic"`
}

// QueueConfig holds the report job queue policy.
type QueueConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Stream      string `koanf:"stream"`
	Subject     string `koanf:"subject"`
	Consumer    string `koanf:"consumer"`
	StateBucket string `koanf:"state_bucket"`

	Concurrency int           `koanf:"concurrency"`
	Attempts    int           `koanf:"attempts"`
	BackoffBase time.Duration `koanf:"backoff_base"`
	JobTimeout  time.Duration `koanf:"job_timeout"`

	// LockDuration is the JetStream AckWait; a worker that stops heartbeating
	// for this long loses the job.
	LockDuration      time.Duration `koanf:"lock_duration"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	MaxStalls         int           `koanf:"max_stalls"`

	LimiterMax    int           `koanf:"limiter_max"`
	LimiterWindow time.Duration `koanf:"limiter_window"`

	Retention    time.Duration `koanf:"retention"`
	DedupWindow  time.Duration `koanf:"dedup_window"`
	FetchMaxWait time.Duration `koanf:"fetch_max_wait"`
}

// RoomConfig selects and configures the video-room provider.
type RoomConfig struct {
	Provider     string        `koanf:"provider"` // daily or none
	BaseURL      string        `koanf:"base_url"`
	APIKey       string        `koanf:"api_key"`
	Timeout      time.Duration `koanf:"timeout"`
	ExpiryBuffer time.Duration `koanf:"expiry_buffer"`
}

// TextGenConfig selects and configures the text-generation provider.
type TextGenConfig struct {
	Provider    string        `koanf:"provider"` // openai, anthropic, gemini, mock or none
	Model       string        `koanf:"model"`
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
}

// SecurityConfig holds identity, authorization and HTTP hardening settings.
type SecurityConfig struct {
	AuthMode  string `koanf:"auth_mode"` // jwt, oidc or multi
	JWTSecret string `koanf:"jwt_secret"`
	JWTIssuer string `koanf:"jwt_issuer"`

	// AdminSubjects are external ids that are registered with the ADMIN role.
	AdminSubjects []string `koanf:"admin_subjects"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// UserCacheTTL bounds how long a resolved caller is reused before the
	// user table is consulted again. Zero disables the cache.
	UserCacheTTL  time.Duration `koanf:"user_cache_ttl"`
	UserCacheSize int           `koanf:"user_cache_size"`

	OIDC   OIDCConfig   `koanf:"oidc"`
	Casbin CasbinConfig `koanf:"casbin"`
}

// OIDCConfig configures ID-token verification against an OpenID provider.
type OIDCConfig struct {
	IssuerURL string   `koanf:"issuer_url"`
	ClientID  string   `koanf:"client_id"`
	Scopes    []string `koanf:"scopes"`
}

// CasbinConfig points at an alternative model and policy. Empty paths use the
// embedded defaults.
type CasbinConfig struct {
	ModelPath  string `koanf:"model_path"`
	PolicyPath string `koanf:"policy_path"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether production-only checks apply.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}
