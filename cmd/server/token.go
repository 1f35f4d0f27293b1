// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/tutorhub/internal/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		name    string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token for a subject",
		Long: "Signs an HS256 token with JWT_SECRET. The subject still has to call\n" +
			"POST /api/users/register before using other endpoints.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			manager, err := auth.NewJWTManager(&cfg.Security)
			if err != nil {
				return err
			}
			if name == "" {
				name = subject
			}
			token, err := manager.GenerateToken(subject, name, email, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "external subject id (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name claim (defaults to the subject)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
