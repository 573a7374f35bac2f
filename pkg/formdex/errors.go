package formdex

import "github.com/kailas-cloud/formdex/internal/domain"

// Sentinel errors re-exported from the domain layer. Use errors.Is to check.
// Typed details are available through errors.As on *ValidationError,
// *RequiredFieldError, *ConflictError and *RevisionConflictError.
var (
	ErrNotFound             = domain.ErrNotFound
	ErrConfigurationMissing = domain.ErrConfigurationMissing
	ErrValidation           = domain.ErrValidation
	ErrInvalidSchema        = domain.ErrInvalidSchema
	ErrRequiredFieldMissing = domain.ErrRequiredFieldMissing
	ErrConflict             = domain.ErrConflict
	ErrRevisionConflict     = domain.ErrRevisionConflict
	ErrInternal             = domain.ErrInternal
)

type (
	// ValidationError names the field a submitted value was rejected for.
	ValidationError = domain.ValidationError
	// RequiredFieldError names an identity field that could not be derived.
	RequiredFieldError = domain.RequiredFieldError
	// ConflictError lists the records that blocked a hard-duplicate write.
	ConflictError = domain.ConflictError
	// RevisionConflictError carries the current schema revision after a failed compare-and-set.
	RevisionConflictError = domain.RevisionConflictError
)
