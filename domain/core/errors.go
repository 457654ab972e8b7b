package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound         = errors.New("resource not found")
	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)
	ErrInvalidRange     = errors.New("invalid date range")
	ErrInvalidTimeRange = errors.New("unsupported time range option")
	ErrInvalidInput     = errors.New("invalid input")
)

// NewNotFoundError builds a not-found error for a resource id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewValidationError builds an input validation error
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

// IsNotFoundError reports whether err wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports whether err is an input/range validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidTimeRange)
}
