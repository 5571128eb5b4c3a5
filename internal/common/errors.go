// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors. The four sentinel errors below form the fatal
// taxonomy for a processing run: any of them marks the batch Failed.
var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a missing or invalid reference.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates a record exists but is not owned by the caller.
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownLayout indicates the statement matched neither known layout.
	ErrUnknownLayout = errors.New("unknown statement layout")

	// ErrDuplicateEntry indicates a uniqueness constraint fired.
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
