// Package apperror defines the domain errors shared by the service, repository
// and handler layers.
//
// Every error carries a sentinel (ErrNotFound, ErrConflict, ...) so callers can
// classify it with errors.Is, plus a human-readable Message that is safe to show
// on a rendered page.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrPersistence  = errors.New("persistence failure")
)

type AppError struct {
	Err     error  // sentinel used for classification
	Message string // human-readable message
	Field   string // optional: form field causing the error
	Cause   error  // optional: underlying error (driver, network, ...)
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// MissingField reports a required form field that was left empty.
func MissingField(field string) *AppError {
	return ValidationFailed(field, fmt.Sprintf("%s is required", field))
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// DuplicateUsername is returned when registering a username that is taken.
func DuplicateUsername() *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: "Username already exists.",
		Field:   "username",
	}
}

// InvalidCredentials deliberately does not say whether the username or the
// password was wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "Invalid username or password.",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Persistence wraps a storage failure. The message stays generic; the cause is
// kept for logging.
func Persistence(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: fmt.Sprintf("storage failure while %s", op),
		Cause:   cause,
	}
}
