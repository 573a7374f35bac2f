package formdex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/formdex/internal/domain"
	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
	"github.com/kailas-cloud/formdex/internal/domain/schema/field"
)

// SchemaService manages tenant form schemas.
type SchemaService struct {
	svc schemaUseCase
	obs *observer
}

// Put replaces the tenant's schema unconditionally.
func (s *SchemaService) Put(ctx context.Context, tenant string, sections []Section) (Schema, error) {
	return s.PutIfRevision(ctx, tenant, sections, 0)
}

// PutIfRevision replaces the schema only while its stored revision equals expected.
// A mismatch fails with *RevisionConflictError.
func (s *SchemaService) PutIfRevision(
	ctx context.Context, tenant string, sections []Section, expected int,
) (_ Schema, err error) {
	start := time.Now()
	defer func() { s.obs.observe("schema_put", start, err) }()

	secs, err := toInternalSections(sections)
	if err != nil {
		return Schema{}, fmt.Errorf("put schema: %w", err)
	}
	saved, err := s.svc.UpsertIfRevision(s.obs.context(ctx), tenant, secs, expected)
	if err != nil {
		return Schema{}, fmt.Errorf("put schema: %w", err)
	}
	return fromInternalSchema(saved), nil
}

// Get returns the tenant's schema or ErrConfigurationMissing.
func (s *SchemaService) Get(ctx context.Context, tenant string) (_ Schema, err error) {
	start := time.Now()
	defer func() { s.obs.observe("schema_get", start, err) }()

	sch, err := s.svc.Get(s.obs.context(ctx), tenant)
	if err != nil {
		return Schema{}, fmt.Errorf("get schema: %w", err)
	}
	return fromInternalSchema(sch), nil
}

// Delete removes the tenant's schema. Stored records are kept.
func (s *SchemaService) Delete(ctx context.Context, tenant string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("schema_delete", start, err) }()

	if err = s.svc.Delete(s.obs.context(ctx), tenant); err != nil {
		return fmt.Errorf("delete schema: %w", err)
	}
	return nil
}

// Facets returns the filterable fields of the tenant's schema.
func (s *SchemaService) Facets(ctx context.Context, tenant string) (_ []Facet, err error) {
	start := time.Now()
	defer func() { s.obs.observe("facets", start, err) }()

	facets, err := s.svc.Facets(s.obs.context(ctx), tenant)
	if err != nil {
		return nil, fmt.Errorf("facets: %w", err)
	}
	out := make([]Facet, len(facets))
	for i, f := range facets {
		out[i] = Facet{
			Key:      f.Key,
			Label:    f.Label,
			Type:     FieldType(f.Type),
			Options:  f.Options,
			Multiple: f.Multiple,
		}
	}
	return out, nil
}

func toInternalSections(sections []Section) ([]domschema.Section, error) {
	out := make([]domschema.Section, 0, len(sections))
	for _, sec := range sections {
		fields := make([]field.Field, 0, len(sec.Fields))
		for _, f := range sec.Fields {
			ff, err := field.New(f.Name, field.Type(f.Type), fieldOptions(f)...)
			if err != nil {
				return nil, fmt.Errorf("section %q: %w: %w", sec.Name, domain.ErrInvalidSchema, err)
			}
			fields = append(fields, ff)
		}
		s, err := domschema.NewSection(sec.Name, fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func fieldOptions(f Field) []field.Option {
	var opts []field.Option
	if f.Label != "" {
		opts = append(opts, field.WithLabel(f.Label))
	}
	if f.Required {
		opts = append(opts, field.Required())
	}
	if f.MaxLength != 0 {
		opts = append(opts, field.WithMaxLength(f.MaxLength))
	}
	if len(f.Options) > 0 {
		opts = append(opts, field.WithOptions(f.Options...))
	}
	if f.Multiple {
		opts = append(opts, field.Multiple())
	}
	return opts
}

func fromInternalSchema(sch domschema.Schema) Schema {
	sections := make([]Section, len(sch.Sections()))
	for i, sec := range sch.Sections() {
		fields := make([]Field, len(sec.Fields()))
		for j, f := range sec.Fields() {
			fields[j] = Field{
				Name:      f.Name(),
				Label:     f.Label(),
				Type:      FieldType(f.FieldType()),
				Required:  f.IsRequired(),
				MaxLength: f.MaxLength(),
				Options:   f.Options(),
				Multiple:  f.IsMultiple(),
			}
		}
		sections[i] = Section{Name: sec.Name(), Fields: fields}
	}
	return Schema{
		Tenant:    sch.TenantID(),
		Sections:  sections,
		Revision:  sch.Revision(),
		UpdatedAt: sch.UpdatedAt(),
	}
}
