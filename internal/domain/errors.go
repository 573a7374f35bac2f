package domain

import (
	"errors"
	"fmt"
	"strings"
)

// KeyPrefix is the default storage key namespace.
const KeyPrefix = "formdex:"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a resource id that is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConfigurationMissing signals that the tenant has no form schema.
	ErrConfigurationMissing = errors.New("form configuration missing")
	// ErrValidation signals a submitted value that violates its field definition.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidSchema signals an invalid schema definition.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrRequiredFieldMissing signals that a derived identity field could not be resolved.
	ErrRequiredFieldMissing = errors.New("required field missing")
	// ErrConflict signals a hard duplicate under a blocking policy.
	ErrConflict = errors.New("duplicate record")
	// ErrInternal signals a collaborator failure.
	ErrInternal = errors.New("internal error")
	// ErrRevisionConflict signals an optimistic locking conflict.
	ErrRevisionConflict = errors.New("revision conflict")
)

// ValidationError wraps ErrValidation with the offending field and reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a validation error.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RequiredFieldError wraps ErrRequiredFieldMissing with the unresolved field.
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRequiredFieldMissing.Error(), e.Field)
}

func (e *RequiredFieldError) Unwrap() error { return ErrRequiredFieldMissing }

// NewRequiredFieldMissing creates a required field error.
func NewRequiredFieldMissing(field string) error {
	return &RequiredFieldError{Field: field}
}

// ConflictError wraps ErrConflict with the ids of the records that blocked the write.
type ConflictError struct {
	MatchedIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: matches %s", ErrConflict.Error(), strings.Join(e.MatchedIDs, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflict creates a conflict error.
func NewConflict(matchedIDs []string) error {
	return &ConflictError{MatchedIDs: matchedIDs}
}

// RevisionConflictError wraps ErrRevisionConflict with the current resource revision.
type RevisionConflictError struct {
	CurrentRevision int
}

func (e *RevisionConflictError) Error() string {
	return fmt.Sprintf("%s: current revision is %d", ErrRevisionConflict.Error(), e.CurrentRevision)
}

func (e *RevisionConflictError) Unwrap() error { return ErrRevisionConflict }

// NewRevisionConflict creates a revision conflict error.
func NewRevisionConflict(currentRevision int) error {
	return &RevisionConflictError{CurrentRevision: currentRevision}
}
