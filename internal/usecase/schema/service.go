package schema

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/formdex/internal/domain"
	"github.com/kailas-cloud/formdex/internal/domain/facet"
	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
)

// Service is the schema registry: one mutable form definition per tenant.
type Service struct {
	repo Repository
}

// New creates a schema registry service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upsert validates and replaces the tenant's schema (last write wins).
func (s *Service) Upsert(ctx context.Context, tenantID string, sections []domschema.Section) (domschema.Schema, error) {
	return s.UpsertIfRevision(ctx, tenantID, sections, 0)
}

// UpsertIfRevision replaces the schema only if the stored revision equals expectedRevision.
// An expectedRevision of 0 disables the check.
func (s *Service) UpsertIfRevision(
	ctx context.Context, tenantID string, sections []domschema.Section, expectedRevision int,
) (domschema.Schema, error) {
	sch, err := domschema.New(tenantID, sections)
	if err != nil {
		return domschema.Schema{}, fmt.Errorf("validate schema: %w: %w", domain.ErrInvalidSchema, err)
	}

	saved, err := s.repo.Upsert(ctx, sch, expectedRevision)
	if err != nil {
		return domschema.Schema{}, fmt.Errorf("upsert schema: %w", err)
	}
	return saved, nil
}

// Get returns the tenant's schema or domain.ErrConfigurationMissing.
func (s *Service) Get(ctx context.Context, tenantID string) (domschema.Schema, error) {
	sch, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return domschema.Schema{}, fmt.Errorf("get schema: %w", err)
	}
	return sch, nil
}

// Facets returns the filterable fields of the tenant's schema.
func (s *Service) Facets(ctx context.Context, tenantID string) ([]facet.Facet, error) {
	sch, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return facet.Extract(sch), nil
}

// Delete removes the tenant's schema.
func (s *Service) Delete(ctx context.Context, tenantID string) error {
	if err := s.repo.Delete(ctx, tenantID); err != nil {
		return fmt.Errorf("delete schema: %w", err)
	}
	return nil
}
