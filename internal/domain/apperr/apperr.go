// internal/domain/apperr/apperr.go

// Package apperr defines the closed error taxonomy shared by the core
// services and mapped to HTTP statuses at the feature layer.
//
// Propagation policy: authorization and validation errors are always
// surfaced to the caller with no retry. Storage errors are surfaced on
// write paths and swallowed (logged) on best-effort cleanup paths. No error
// is ever converted into a changed business outcome.
package apperr

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when an operation requires a principal and
// none is present.
var ErrUnauthenticated = errors.New("authentication required")

// ForbiddenError indicates the principal lacks the role, ownership, or
// enrollment the operation requires.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return e.Reason
}

// Forbidden builds a ForbiddenError with a formatted reason.
func Forbidden(format string, args ...any) error {
	return &ForbiddenError{Reason: fmt.Sprintf(format, args...)}
}

// IsForbidden reports whether err is (or wraps) a ForbiddenError.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}

// FieldError ties a validation failure to a specific input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError indicates malformed or missing required input.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

// NewValidationError builds a ValidationError carrying per-field messages.
func NewValidationError(msg string, fields ...FieldError) error {
	return &ValidationError{Err: errors.New(msg), Fields: fields}
}

// Validation builds a ValidationError from a formatted message.
func Validation(format string, args ...any) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "invalid input"
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError indicates a referenced entity is absent.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
	}
	return e.Entity + " not found"
}

// NotFound builds a NotFoundError for the given entity and id.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// ConflictError indicates a uniqueness violation, e.g. a duplicate email.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// Conflict builds a ConflictError with a formatted reason.
func Conflict(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// StorageError wraps a collaborator I/O failure (blob store or repository).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError for the named operation.
func Storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
