package dedup

import (
	"context"

	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
)

// Finder looks up records of one kind sharing an identifier within a tenant.
// Ids are returned oldest first; excludeID is never returned.
type Finder interface {
	FindByIdentifier(
		ctx context.Context, tenantID string, kind domsub.Kind, ident domsub.Identifier, excludeID string,
	) ([]string, error)
}
