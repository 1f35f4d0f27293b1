// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package models

import (
	"errors"
	"fmt"
)

// ValidationError is bad input shape or range. Nothing was mutated.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NotFoundError means the referenced resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a not-found error for resource.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// AccessDeniedError means the caller is not a participant or has the wrong role.
type AccessDeniedError struct {
	Reason string
}

// NewAccessDeniedError creates an access-denied error.
func NewAccessDeniedError(reason string) *AccessDeniedError {
	return &AccessDeniedError{Reason: reason}
}

func (e *AccessDeniedError) Error() string {
	if e.Reason == "" {
		return "Access denied"
	}
	return e.Reason
}

// ConflictError covers overlapping bookings and duplicate ratings or reports.
type ConflictError struct {
	Message string
}

// NewConflictError creates a conflict error.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ExternalDependencyError wraps a failure of the room provider or the
// text-generation provider.
type ExternalDependencyError struct {
	Dependency string
	Err        error
	Retryable  bool
}

// NewExternalDependencyError wraps err from dependency.
func NewExternalDependencyError(dependency string, err error, retryable bool) *ExternalDependencyError {
	return &ExternalDependencyError{Dependency: dependency, Err: err, Retryable: retryable}
}

func (e *ExternalDependencyError) Error() string {
	if e.Err == nil {
		return e.Dependency + " failed"
	}
	return fmt.Sprintf("%s failed: %v", e.Dependency, e.Err)
}

func (e *ExternalDependencyError) Unwrap() error {
	return e.Err
}

// Messages shared by the service layer and the HTTP surface.
const (
	MsgSlotBooked          = "This time slot is already booked"
	MsgCannotCancel        = "Cannot cancel completed session"
	MsgAlreadyRated        = "Session already rated"
	MsgNotParticipant      = "Access denied"
	MsgSessionNotCompleted = "Session must be completed"
)

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAccessDenied reports whether err is an AccessDeniedError.
func IsAccessDenied(err error) bool {
	var target *AccessDeniedError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsRetryable reports whether err is an ExternalDependencyError marked retryable.
// Errors outside the taxonomy are treated as retryable; unknown failures in a
// background job are assumed transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ext *ExternalDependencyError
	if errors.As(err, &ext) {
		return ext.Retryable
	}
	return !IsValidation(err) && !IsNotFound(err) && !IsAccessDenied(err) && !IsConflict(err)
}
