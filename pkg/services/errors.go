// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/brewprint/brewprint/pkg/persistence"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrInvalidSortField   = errors.New("invalid sort field")
	ErrInvalidSortOrder   = errors.New("invalid sort order")
	ErrInvalidStatus      = errors.New("invalid recipe status")
	ErrEmptyOwnerID       = errors.New("owner ID cannot be empty")
	ErrRecipeNameRequired = errors.New("recipe name is required")
	ErrNotDefaultable     = errors.New("collection does not support defaults")
	ErrSnapshotNil        = errors.New("snapshot cannot be nil")

	// ErrRecipeNotFound is returned when a recipe is not found.
	ErrRecipeNotFound = errors.New("recipe not found")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidationError checks if an error is a validation error that should
// surface as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrEmptyOwnerID) ||
		errors.Is(err, ErrRecipeNameRequired) ||
		errors.Is(err, ErrNotDefaultable) ||
		errors.Is(err, ErrSnapshotNil)
}

// IsNotFound checks if an error indicates a missing recipe or record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecipeNotFound) || persistence.IsNotFound(err)
}

// PartialReadError reports the first collection read that failed while
// building a snapshot. A build never returns a partial snapshot: one of
// these means no snapshot at all.
type PartialReadError struct {
	Collection persistence.Collection
	Err        error
}

func (e *PartialReadError) Error() string {
	return fmt.Sprintf("export read failed for collection %s: %v", e.Collection, e.Err)
}

func (e *PartialReadError) Unwrap() error {
	return e.Err
}

// IsPartialRead checks if an error is a snapshot build read failure.
func IsPartialRead(err error) bool {
	var p *PartialReadError

	return errors.As(err, &p)
}
