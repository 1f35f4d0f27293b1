// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/tutorhub/internal/models"
)

const userColumns = `id, external_id, name, email, role, created_at`

// CreateUser inserts a user. A second user for the same external id returns ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, external_id, name, email, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.ExternalID, u.Name, u.Email, string(u.Role), u.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser looks a user up by internal id.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByExternalID looks a user up by identity-provider subject.
func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Name, &u.Email, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}
