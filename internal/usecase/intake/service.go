package intake

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/formdex/internal/domain"
	"github.com/kailas-cloud/formdex/internal/domain/searchindex"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/logger"
	"github.com/kailas-cloud/formdex/internal/metrics"
	"github.com/kailas-cloud/formdex/internal/usecase/dedup"
	"github.com/kailas-cloud/formdex/internal/usecase/submission"
)

// maxIDAttempts bounds id regeneration on collision.
const maxIDAttempts = 3

// Outcome labels for the submissions metric.
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeExisting = "existing"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Result is the outcome of a create.
type Result struct {
	Record domsub.Record
	// Existing is set when an idempotent policy returned a stored record instead of creating one.
	Existing bool
}

// Service runs the intake pipeline: normalize, index, dedup, persist.
type Service struct {
	norm            Normalizer
	dedup           Deduplicator
	repo            Repository
	newID           func(tenantID string, kind domsub.Kind) string
	now             func() time.Time
	defaultPageSize int
	maxPageSize     int
}

// New creates an intake service.
func New(norm Normalizer, dd Deduplicator, repo Repository) *Service {
	return &Service{
		norm:            norm,
		dedup:           dd,
		repo:            repo,
		newID:           NewID,
		now:             time.Now,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Create normalizes, indexes and stores a new submission.
func (s *Service) Create(ctx context.Context, in submission.Input) (Result, error) {
	rec, err := s.Prepare(ctx, in)
	if err != nil {
		observe(in.Kind, "create", OutcomeFailed)
		return Result{}, err
	}
	return s.Store(ctx, rec)
}

// Prepare runs the pure part of the pipeline: normalization and index build.
func (s *Service) Prepare(ctx context.Context, in submission.Input) (domsub.Record, error) {
	if !in.Kind.IsValid() {
		return domsub.Record{}, domain.NewValidation("kind", "unknown entity kind")
	}
	rec, err := s.norm.Normalize(ctx, in)
	if err != nil {
		return domsub.Record{}, fmt.Errorf("normalize: %w", err)
	}
	return rec.WithSearchIndex(searchindex.Build(rec.Sections())), nil
}

// Store runs duplicate detection on a prepared record and persists it.
func (s *Service) Store(ctx context.Context, rec domsub.Record) (Result, error) {
	d, err := s.dedup.Check(ctx, rec, dedup.OpCreate)
	if err != nil {
		observe(rec.Kind(), "create", outcomeOf(err))
		return Result{}, fmt.Errorf("check duplicates: %w", err)
	}

	if d.Action == dedup.ActionExisting {
		existing, err := s.repo.Get(ctx, rec.TenantID(), d.ExistingID)
		if err != nil {
			observe(rec.Kind(), "create", OutcomeFailed)
			return Result{}, fmt.Errorf("get existing record: %w: %w", domain.ErrInternal, err)
		}
		observe(rec.Kind(), "create", OutcomeExisting)
		return Result{Record: existing, Existing: true}, nil
	}

	now := s.now().UnixMilli()
	rec = rec.WithDuplicate(d.Flag).WithTimestamps(now, now)
	claims := s.dedup.Claims(rec)

	for attempt := 1; ; attempt++ {
		rec = rec.WithID(s.newID(rec.TenantID(), rec.Kind()))
		err = s.repo.Create(ctx, rec, claims)
		if !errors.Is(err, domain.ErrAlreadyExists) || attempt == maxIDAttempts {
			break
		}
	}
	if err != nil {
		observe(rec.Kind(), "create", outcomeOf(err))
		return Result{}, fmt.Errorf("create record: %w", err)
	}

	logger.FromContext(ctx).Debug("Record created",
		zap.String("record_id", rec.ID()),
		zap.Bool("duplicate", rec.Duplicate().IsDuplicate),
	)
	observe(rec.Kind(), "create", OutcomeCreated)
	return Result{Record: rec}, nil
}

// Edit replaces the sections of a stored record. The index is rebuilt; duplicate
// detection re-runs only when the identifiers changed, otherwise the flag is kept.
func (s *Service) Edit(ctx context.Context, id string, in submission.Input) (domsub.Record, error) {
	prev, err := s.Get(ctx, in.TenantID, in.Kind, id)
	if err != nil {
		observe(in.Kind, "edit", outcomeOf(err))
		return domsub.Record{}, err
	}

	rec, err := s.Prepare(ctx, in)
	if err != nil {
		observe(in.Kind, "edit", OutcomeFailed)
		return domsub.Record{}, err
	}
	rec = rec.WithID(prev.ID()).
		WithTimestamps(prev.CreatedAt(), s.now().UnixMilli()).
		WithDuplicate(prev.Duplicate())

	if !slices.Equal(prev.Identity().Identifiers(), rec.Identity().Identifiers()) {
		d, err := s.dedup.Check(ctx, rec, dedup.OpEdit)
		if err != nil {
			observe(in.Kind, "edit", outcomeOf(err))
			return domsub.Record{}, fmt.Errorf("check duplicates: %w", err)
		}
		rec = rec.WithDuplicate(d.Flag)
	}

	if err := s.repo.Update(ctx, rec, s.dedup.Claims(rec)); err != nil {
		observe(in.Kind, "edit", outcomeOf(err))
		return domsub.Record{}, fmt.Errorf("update record: %w", err)
	}
	observe(in.Kind, "edit", OutcomeUpdated)
	return rec, nil
}

// Get returns a stored record of the given kind.
func (s *Service) Get(ctx context.Context, tenantID string, kind domsub.Kind, id string) (domsub.Record, error) {
	rec, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return domsub.Record{}, fmt.Errorf("get record: %w", err)
	}
	if rec.Kind() != kind {
		return domsub.Record{}, fmt.Errorf("get record: %w", domain.ErrNotFound)
	}
	return rec, nil
}

// Search returns records whose search index matches q, oldest first.
// An empty q lists every record of the kind.
func (s *Service) Search(
	ctx context.Context, tenantID string, kind domsub.Kind, q string, cursor int64, limit int,
) (domsub.Page, error) {
	query, err := searchindex.ParseQuery(q)
	if err != nil {
		return domsub.Page{}, domain.NewValidation("q", err.Error())
	}

	limit = s.clampLimit(limit)

	var match func(domsub.Record) bool
	if !query.IsEmpty() {
		match = func(r domsub.Record) bool { return query.Matches(r.SearchIndex()) }
	}

	page, err := s.repo.Scan(ctx, tenantID, kind, cursor, limit, match)
	if err != nil {
		return domsub.Page{}, fmt.Errorf("scan records: %w", err)
	}
	return page, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultPageSize
	}
	if limit > s.maxPageSize {
		return s.maxPageSize
	}
	return limit
}

func outcomeOf(err error) string {
	if errors.Is(err, domain.ErrConflict) {
		return OutcomeRejected
	}
	return OutcomeFailed
}

func observe(kind domsub.Kind, op, outcome string) {
	metrics.SubmissionsTotal.WithLabelValues(string(kind), op, outcome).Inc()
}
