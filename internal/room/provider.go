// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package room

import (
	"fmt"

	"github.com/tomtom215/tutorhub/internal/config"
)

// NewProvider returns the provider selected by cfg.Provider.
func NewProvider(cfg *config.RoomConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "none":
		return Disabled{}, nil
	case "daily":
		return NewDailyClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown room provider %q", cfg.Provider)
	}
}
