// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tutorhub/internal/database"
	"github.com/tomtom215/tutorhub/internal/logging"
	"github.com/tomtom215/tutorhub/internal/models"
)

// RegistrationStore persists users.
type RegistrationStore interface {
	UserStore
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// RegisterRequest is the profile supplied at registration.
type RegisterRequest struct {
	Name  string      `json:"name" validate:"required,min=1,max=100"`
	Email string      `json:"email" validate:"required,email,max=254"`
	Role  models.Role `json:"role" validate:"required,oneof=STUDENT TUTOR"`
}

// Registrar creates the user row for a verified subject.
type Registrar struct {
	store         RegistrationStore
	adminSubjects []string
	now           func() time.Time
}

// NewRegistrar returns a registrar. Subjects in adminSubjects are registered
// with the ADMIN role whatever role they request.
func NewRegistrar(store RegistrationStore, adminSubjects []string) *Registrar {
	return &Registrar{
		store:         store,
		adminSubjects: adminSubjects,
		now:           time.Now,
	}
}

// Register creates the user for subject. A subject that is already
// registered gets a conflict.
func (r *Registrar) Register(ctx context.Context, subject *AuthSubject, req RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.NewValidationError("name", "Name is required")
	}
	role := req.Role
	if role != models.RoleStudent && role != models.RoleTutor {
		return nil, models.NewValidationError("role", "Role must be STUDENT or TUTOR")
	}
	if slices.Contains(r.adminSubjects, subject.ID) {
		role = models.RoleAdmin
	}

	user := &models.User{
		ID:         uuid.NewString(),
		ExternalID: subject.ID,
		Name:       name,
		Email:      strings.TrimSpace(req.Email),
		Role:       role,
		CreatedAt:  r.now().UTC(),
	}
	err := r.store.CreateUser(ctx, user)
	if errors.Is(err, database.ErrDuplicate) {
		return nil, models.NewConflictError("User already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("User registered")
	return user, nil
}

// Me returns the caller's user row.
func (r *Registrar) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	user, err := r.store.GetUser(ctx, actor.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, models.NewNotFoundError("User", actor.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
