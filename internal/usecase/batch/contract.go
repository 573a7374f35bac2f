package batch

import (
	"context"

	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/usecase/intake"
	"github.com/kailas-cloud/formdex/internal/usecase/submission"
)

// Pipeline is the single-submission intake pipeline, split at the point where
// items must be serialized: Prepare is safe to run concurrently, Store is not.
type Pipeline interface {
	Prepare(ctx context.Context, in submission.Input) (domsub.Record, error)
	Store(ctx context.Context, rec domsub.Record) (intake.Result, error)
}
