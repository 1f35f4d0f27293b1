// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tutorhub/config.yaml",
	"/etc/tutorhub/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
			SwaggerEnabled:  true,
		},
		Database: DatabaseConfig{
			Path:           "/data/tutorhub.duckdb",
			MaxMemory:      "1GB",
			Threads:        0,
			RetryAttempts:  5,
			RetryBaseDelay: 20 * time.Millisecond,
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      256 << 20,
			MaxStore:       1 << 30,
			ConnectTimeout: 10 * time.Second,
			EventsTopic:    "reports.events",
		},
		Queue: QueueConfig{
			Enabled:           true,
			Stream:            "REPORTS",
			Subject:           "reports.jobs",
			Consumer:          "report-workers",
			StateBucket:       "report_jobs",
			Concurrency:       5,
			Attempts:          3,
			BackoffBase:       2 * time.Second,
			JobTimeout:        5 * time.Minute,
			LockDuration:      5 * time.Minute,
			HeartbeatInterval: 30 * time.Second,
			MaxStalls:         2,
			LimiterMax:        10,
			LimiterWindow:     time.Minute,
			Retention:         24 * time.Hour,
			DedupWindow:       2 * time.Minute,
			FetchMaxWait:      5 * time.Second,
		},
		Room: RoomConfig{
			Provider:     "none",
			BaseURL:      "https://api.daily.co/v1",
			Timeout:      10 * time.Second,
			ExpiryBuffer: 10 * time.Minute,
		},
		TextGen: TextGenConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   1500,
			Timeout:     2 * time.Minute,
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			JWTIssuer:       "tutorhub",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
			UserCacheTTL:    time.Minute,
			UserCacheSize:   10000,
			OIDC: OIDCConfig{
				Scopes: []string{"openid", "profile", "email"},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from defaults, the optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.admin_subjects",
	"security.oidc.scopes",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",
	"swagger_enabled":  "server.swagger_enabled",

	"duckdb_path":           "database.path",
	"duckdb_max_memory":     "database.max_memory",
	"duckdb_threads":        "database.threads",
	"db_retry_attempts":     "database.retry_attempts",
	"db_retry_base_delay":   "database.retry_base_delay",
	"nats_url":              "nats.url",
	"nats_embedded":         "nats.embedded_server",
	"nats_store_dir":        "nats.store_dir",
	"nats_max_memory":       "nats.max_memory",
	"nats_max_store":        "nats.max_store",
	"nats_connect_timeout":  "nats.connect_timeout",
	"nats_events_topic":     "nats.events_topic",
	"report_queue_enabled":  "queue.enabled",
	"report_concurrency":    "queue.concurrency",
	"report_attempts":       "queue.attempts",
	"report_backoff_base":   "queue.backoff_base",
	"report_job_timeout":    "queue.job_timeout",
	"report_lock_duration":  "queue.lock_duration",
	"report_heartbeat":      "queue.heartbeat_interval",
	"report_max_stalls":     "queue.max_stalls",
	"report_limiter_max":    "queue.limiter_max",
	"report_limiter_window": "queue.limiter_window",
	"report_retention":      "queue.retention",
	"report_dedup_window":   "queue.dedup_window",
	"report_fetch_max_wait": "queue.fetch_max_wait",
	"room_provider":         "room.provider",
	"daily_api_url":         "room.base_url",
	"daily_api_key":         "room.api_key",
	"room_timeout":          "room.timeout",
	"room_expiry_buffer":    "room.expiry_buffer",
	"textgen_provider":      "textgen.provider",
	"textgen_model":         "textgen.model",
	"textgen_api_key":       "textgen.api_key",
	"textgen_base_url":      "textgen.base_url",
	"textgen_temperature":   "textgen.temperature",
	"textgen_max_tokens":    "textgen.max_tokens",
	"textgen_timeout":       "textgen.timeout",
	"auth_mode":             "security.auth_mode",
	"jwt_secret":            "security.jwt_secret",
	"jwt_issuer":            "security.jwt_issuer",
	"admin_subjects":        "security.admin_subjects",
	"rate_limit_requests":   "security.rate_limit_reqs",
	"rate_limit_window":     "security.rate_limit_window",
	"disable_rate_limit":    "security.rate_limit_disabled",
	"cors_origins":          "security.cors_origins",
	"user_cache_ttl":        "security.user_cache_ttl",
	"user_cache_size":       "security.user_cache_size",
	"oidc_issuer_url":       "security.oidc.issuer_url",
	"oidc_client_id":        "security.oidc.client_id",
	"oidc_scopes":           "security.oidc.scopes",
	"casbin_model_path":     "security.casbin.model_path",
	"casbin_policy_path":    "security.casbin.policy_path",
	"log_level":             "logging.level",
	"log_format":            "logging.format",
	"log_caller":            "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path, or
// "" to skip it.
//
//   - HTTP_PORT -> server.port
//   - REPORT_CONCURRENCY -> queue.concurrency
//   - TEXTGEN_API_KEY -> textgen.api_key
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
