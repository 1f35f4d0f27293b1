// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package textgen

import (
	"context"
	"fmt"

	"github.com/tomtom215/tutorhub/internal/config"
)

// NewProvider builds the configured provider wrapped in Guarded. "none" and
// "" yield Disabled, which fails every job permanently.
func NewProvider(ctx context.Context, cfg *config.TextGenConfig) (Provider, error) {
	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "", "none":
		return Disabled{}, nil
	case "mock":
		return NewMockProvider(), nil
	case "openai":
		base, err = NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown text generation provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return NewGuarded(base, cfg.Timeout), nil
}
