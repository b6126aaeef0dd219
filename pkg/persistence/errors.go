// Package persistence provides standardized error types for store operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard store error types that all implementations should use.
var (
	// ErrNotFound indicates no record matched the given identifier.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates an insert violated a uniqueness constraint.
	ErrConflict = errors.New("record already exists")

	// ErrUnknownCollection indicates an operation named a collection the
	// store does not manage.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidFilter indicates a query filter referenced an unusable field.
	ErrInvalidFilter = errors.New("invalid filter")
)

// StoreError wraps store-level failures with operation context.
type StoreError struct {
	Op         string     // Operation being performed (e.g. "Insert", "Query")
	Collection Collection // Collection the operation targeted
	ID         string     // Record ID if applicable
	Err        error      // Underlying error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s failed for %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
	}

	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op string, col Collection, id string, err error) *StoreError {
	return &StoreError{
		Op:         op,
		Collection: col,
		ID:         id,
		Err:        err,
	}
}

// IsNotFound checks if an error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error indicates a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
