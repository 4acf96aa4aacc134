// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external
// dependencies apart from the decimal type backing Money.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidID    = errors.New("invalid ID")
	ErrInvalidInput = errors.New("invalid input")

	// Conflict errors (state-dependent rejections)
	ErrConflict = errors.New("conflict")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Authorization errors
	ErrPermission = errors.New("permission denied")

	// Storage / transaction errors
	ErrInternal = errors.New("internal failure")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "ledger", "enrollment", "catalog"
	Op      string // Operation that failed, e.g., "Debit", "Review"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Ledger domain errors
var (
	ErrStudentNotFound   = NewDomainError("ledger", "Find", ErrNotFound, "student account not found")
	ErrInsufficientFunds = NewDomainError("ledger", "Debit", ErrConflict, "balance is insufficient")
	ErrInvalidAmount     = NewDomainError("ledger", "Validate", ErrInvalidInput, "amount must be positive with at most 2 fractional digits")
)

// Catalog domain errors
var (
	ErrCourseNotFound = NewDomainError("catalog", "Find", ErrNotFound, "course not found")
	ErrCourseClosed   = NewDomainError("catalog", "CheckStatus", ErrConflict, "course is completed and closed for enrollment")
)

// Enrollment domain errors
var (
	ErrEnrollmentNotFound  = NewDomainError("enrollment", "Find", ErrNotFound, "enrollment not found")
	ErrDuplicateEnrollment = NewDomainError("enrollment", "Create", ErrConflict, "an active enrollment for this course already exists")
	ErrInvalidStatus       = NewDomainError("enrollment", "Validate", ErrInvalidInput, "status must be approved, rejected or pending")
)

// Authorization errors
var (
	ErrNotPermitted = NewDomainError("authz", "Check", ErrPermission, "operation not permitted for this role")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a conflict error (duplicate enrollment,
// insufficient funds, closed course).
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput)
}

// IsPermission checks if the error is an authorization error.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

// IsInternal checks if the error is a storage or transaction failure. The
// whole operation rolled back, so the caller may safely retry it.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}
