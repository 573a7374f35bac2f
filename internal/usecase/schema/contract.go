package schema

import (
	"context"

	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
)

// Repository defines the storage contract for tenant form schemas.
// Get returns domain.ErrConfigurationMissing when the tenant has no schema.
type Repository interface {
	Get(ctx context.Context, tenantID string) (domschema.Schema, error)
	// Upsert replaces the schema. expectedRevision 0 writes unconditionally;
	// otherwise a mismatch fails with *domain.RevisionConflictError.
	Upsert(ctx context.Context, s domschema.Schema, expectedRevision int) (domschema.Schema, error)
	Delete(ctx context.Context, tenantID string) error
}
