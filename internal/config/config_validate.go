// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/tutorhub/internal/logging"
)

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateNATS,
		c.validateQueue,
		c.validateRoom,
		c.validateTextGen,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.RetryAttempts < 1 {
		return fmt.Errorf("DB_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.Queue.Enabled {
		return nil
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	return nil
}

// validateQueue enforces the relationships the worker pool depends on.
func (c *Config) validateQueue() error {
	if !c.Queue.Enabled {
		return nil
	}
	q := c.Queue
	switch {
	case q.Concurrency < 1 || q.Concurrency > 64:
		return fmt.Errorf("REPORT_CONCURRENCY must be between 1 and 64")
	case q.Attempts < 1:
		return fmt.Errorf("REPORT_ATTEMPTS must be at least 1")
	case q.BackoffBase <= 0:
		return fmt.Errorf("REPORT_BACKOFF_BASE must be positive")
	case q.JobTimeout <= 0:
		return fmt.Errorf("REPORT_JOB_TIMEOUT must be positive")
	case q.HeartbeatInterval <= 0 || q.HeartbeatInterval >= q.LockDuration:
		return fmt.Errorf("REPORT_HEARTBEAT must be positive and shorter than REPORT_LOCK_DURATION")
	case q.MaxStalls < 0:
		return fmt.Errorf("REPORT_MAX_STALLS must not be negative")
	case q.LimiterMax < 1 || q.LimiterWindow <= 0:
		return fmt.Errorf("REPORT_LIMITER_MAX and REPORT_LIMITER_WINDOW must be positive")
	case q.Retention < time.Minute:
		return fmt.Errorf("REPORT_RETENTION must be at least 1m")
	case q.DedupWindow <= 0 || q.DedupWindow > q.Retention:
		return fmt.Errorf("REPORT_DEDUP_WINDOW must be positive and not exceed REPORT_RETENTION")
	case q.Stream == "" || q.Subject == "" || q.Consumer == "" || q.StateBucket == "":
		return fmt.Errorf("queue stream, subject, consumer and state bucket names are required")
	}
	return nil
}

func (c *Config) validateRoom() error {
	switch c.Room.Provider {
	case "none", "":
		return nil
	case "daily":
		if c.Room.APIKey == "" {
			return fmt.Errorf("DAILY_API_KEY is required when ROOM_PROVIDER=daily")
		}
		if err := validateHTTPURL(c.Room.BaseURL, "DAILY_API_URL"); err != nil {
			return err
		}
		if c.Room.Timeout <= 0 {
			return fmt.Errorf("ROOM_TIMEOUT must be positive")
		}
		return nil
	default:
		return fmt.Errorf("ROOM_PROVIDER must be daily or none, got: %s", c.Room.Provider)
	}
}

// validateTextGen only checks shape. A missing API key is not a startup
// error; report jobs fail permanently instead, so the rest of the service
// stays usable.
func (c *Config) validateTextGen() error {
	valid := []string{"openai", "anthropic", "gemini", "mock", "none"}
	if !slices.Contains(valid, c.TextGen.Provider) {
		return fmt.Errorf("TEXTGEN_PROVIDER must be one of %v, got: %s", valid, c.TextGen.Provider)
	}
	if c.TextGen.Temperature < 0 || c.TextGen.Temperature > 2 {
		return fmt.Errorf("TEXTGEN_TEMPERATURE must be between 0 and 2")
	}
	if c.TextGen.MaxTokens < 1 {
		return fmt.Errorf("TEXTGEN_MAX_TOKENS must be positive")
	}
	if c.TextGen.BaseURL != "" {
		if err := validateHTTPURL(c.TextGen.BaseURL, "TEXTGEN_BASE_URL"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "jwt":
		if err := c.validateJWTAuth(); err != nil {
			return err
		}
	case "oidc":
		if err := c.validateOIDCAuth(); err != nil {
			return err
		}
	case "multi":
		if err := c.validateOIDCAuth(); err != nil {
			return err
		}
		if err := c.validateJWTAuth(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("AUTH_MODE must be jwt, oidc or multi, got: %s", c.Security.AuthMode)
	}

	if c.IsProduction() && slices.Contains(c.Security.CORSOrigins, "*") {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed when ENVIRONMENT=production")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if c.Security.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
		}
	}
	if c.Security.UserCacheTTL < 0 {
		return fmt.Errorf("USER_CACHE_TTL must not be negative")
	}
	if c.Security.UserCacheTTL > 0 && c.Security.UserCacheSize < 1 {
		return fmt.Errorf("USER_CACHE_SIZE must be positive when USER_CACHE_TTL is set")
	}
	return nil
}

func (c *Config) validateJWTAuth() error {
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters when AUTH_MODE=jwt")
	}
	return nil
}

func (c *Config) validateOIDCAuth() error {
	if c.Security.OIDC.IssuerURL == "" || c.Security.OIDC.ClientID == "" {
		return fmt.Errorf("OIDC_ISSUER_URL and OIDC_CLIENT_ID are required when AUTH_MODE=oidc")
	}
	if err := validateHTTPURL(c.Security.OIDC.IssuerURL, "OIDC_ISSUER_URL"); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL is invalid: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
	return nil
}
