/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All error types in one place so the API layer can map them to status
  codes with errors.Is / errors.As.

ERROR CATEGORIES:
  1. NotFound   - referenced id or folder does not exist        (404)
  2. Validation - malformed or missing request fields          (400)
  3. Forbidden  - missing or wrong shared secret               (403)
  4. Store      - connection failures, constraint violations   (500)

PROPAGATION:
  The ledger never swallows an error. Validation runs before any store
  access, so a ValidationError guarantees nothing was read or written.
  Nothing is retried here; callers retry with the same arguments.

SEE ALSO:
  - api/errors.go: Status code mapping
  - store/sqlstore/dialect.go: Driver error classification
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced identity or folder does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when request fields are missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the shared secret is missing or wrong.
	ErrForbidden = errors.New("forbidden")

	// ErrConstraint is returned when the store rejects a write because of a
	// foreign-key or uniqueness constraint.
	ErrConstraint = errors.New("constraint violation")

	// ErrStore marks any failure raised by the persistence layer.
	ErrStore = errors.New("store failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the entity and key that could not be found.
type NotFoundError struct {
	Entity string // e.g. "Account", "Email checkpoint"
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func notFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(key)}
}

// ValidationError describes the first invalid field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StoreError wraps a failure from the persistence layer with the operation
// that raised it. It matches both ErrStore and the wrapped cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConstraint returns true if the store rejected a write on a constraint.
func IsConstraint(err error) bool {
	return errors.Is(err, ErrConstraint)
}
