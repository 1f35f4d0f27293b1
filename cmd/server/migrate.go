// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.New(&cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing database")
				}
			}()

			version, err := db.GetCurrentSchemaVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			logging.Info().Str("path", cfg.Database.Path).Int("schema_version", version).Msg("Database schema is current")
			return nil
		},
	}
}
