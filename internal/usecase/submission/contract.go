package submission

import (
	"context"

	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
)

// SchemaReader loads a tenant's form schema.
// It returns domain.ErrConfigurationMissing when none is defined.
type SchemaReader interface {
	Get(ctx context.Context, tenantID string) (domschema.Schema, error)
}
