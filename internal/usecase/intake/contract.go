package intake

import (
	"context"

	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/usecase/dedup"
	"github.com/kailas-cloud/formdex/internal/usecase/submission"
)

// Normalizer turns a raw submission into a canonical record.
type Normalizer interface {
	Normalize(ctx context.Context, in submission.Input) (domsub.Record, error)
}

// Deduplicator decides how a record relates to stored records of its kind.
type Deduplicator interface {
	Check(ctx context.Context, rec domsub.Record, op dedup.Operation) (dedup.Decision, error)
	Claims(rec domsub.Record) []domsub.Identifier
}

// Repository persists records.
type Repository interface {
	Create(ctx context.Context, rec domsub.Record, claims []domsub.Identifier) error
	Update(ctx context.Context, rec domsub.Record, claims []domsub.Identifier) error
	Get(ctx context.Context, tenantID, id string) (domsub.Record, error)
	Scan(
		ctx context.Context, tenantID string, kind domsub.Kind,
		cursor int64, limit int, match func(domsub.Record) bool,
	) (domsub.Page, error)
}
