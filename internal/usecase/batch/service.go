package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/formdex/internal/domain"
	dombatch "github.com/kailas-cloud/formdex/internal/domain/batch"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/logger"
	"github.com/kailas-cloud/formdex/internal/metrics"
	"github.com/kailas-cloud/formdex/internal/usecase/submission"
)

// MaxBatchSize is the maximum number of items per import request.
const MaxBatchSize = 100

// DefaultConcurrency is the number of items normalized in parallel.
const DefaultConcurrency = 8

// Service imports submissions in bulk with per-item results.
type Service struct {
	pipeline     Pipeline
	maxBatchSize int
	concurrency  int
}

// New creates a batch import service.
func New(p Pipeline) *Service {
	return &Service{pipeline: p, maxBatchSize: MaxBatchSize, concurrency: DefaultConcurrency}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// WithConcurrency configures how many items are normalized in parallel.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// Import runs every item through the intake pipeline. Normalization runs
// concurrently; duplicate detection and persistence run in input order, so an
// item sharing an identifier with an earlier item of the batch matches it.
func (s *Service) Import(ctx context.Context, kind domsub.Kind, items []submission.Input) []dombatch.Result {
	results := make([]dombatch.Result, len(items))

	if len(items) > s.maxBatchSize {
		err := domain.NewValidation("items", fmt.Sprintf("batch size exceeds %d", s.maxBatchSize))
		for i := range items {
			results[i] = dombatch.NewError(i, err)
		}
		s.observe(kind, results)
		return results
	}

	prepared := make([]domsub.Record, len(items))
	errs := make([]error, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range items {
		g.Go(func() error {
			prepared[i], errs[i] = s.pipeline.Prepare(gctx, items[i])
			return nil
		})
	}
	_ = g.Wait() // per-item errors are collected in errs

	for i := range items {
		if errs[i] != nil {
			results[i] = dombatch.NewError(i, errs[i])
			continue
		}
		if err := ctx.Err(); err != nil {
			results[i] = dombatch.NewError(i, err)
			continue
		}

		res, err := s.pipeline.Store(ctx, prepared[i])
		switch {
		case err != nil:
			results[i] = dombatch.NewError(i, err)
		case res.Existing || res.Record.Duplicate().IsDuplicate:
			results[i] = dombatch.NewDuplicate(i, res.Record.ID())
		default:
			results[i] = dombatch.NewOK(i, res.Record.ID())
		}
	}

	s.observe(kind, results)
	logger.FromContext(ctx).Info("Import finished",
		zap.String("kind", string(kind)),
		zap.Int("items", len(items)),
	)
	return results
}

func (s *Service) observe(kind domsub.Kind, results []dombatch.Result) {
	for _, r := range results {
		metrics.ImportItemsTotal.WithLabelValues(string(kind), string(r.Status())).Inc()
	}
}
