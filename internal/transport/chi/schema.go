package chi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/formdex/internal/domain"
	"github.com/kailas-cloud/formdex/internal/domain/facet"
	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
	"github.com/kailas-cloud/formdex/internal/domain/schema/field"
	"github.com/kailas-cloud/formdex/internal/logger"
)

// FieldDTO is the wire form of a field definition.
type FieldDTO struct {
	Name      string   `json:"name"`
	Label     string   `json:"label,omitempty"`
	Type      string   `json:"type"`
	Required  bool     `json:"required,omitempty"`
	MaxLength int      `json:"max_length,omitempty"`
	Options   []string `json:"options,omitempty"`
	Multiple  bool     `json:"multiple,omitempty"`
}

// SectionDTO is the wire form of a schema section.
type SectionDTO struct {
	Name   string     `json:"name"`
	Fields []FieldDTO `json:"fields"`
}

// SchemaRequest is the body of PUT /tenants/{tenant}/schema.
type SchemaRequest struct {
	Sections []SectionDTO `json:"sections"`
}

// SchemaResponse describes a stored schema.
type SchemaResponse struct {
	Tenant    string       `json:"tenant"`
	Sections  []SectionDTO `json:"sections"`
	Revision  int          `json:"revision"`
	UpdatedAt int64        `json:"updated_at"`
}

// FacetResponse describes one filterable field.
type FacetResponse struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Multiple bool     `json:"multiple,omitempty"`
}

// UpsertSchema handles PUT /tenants/{tenant}/schema.
// An If-Match header turns the write into a compare-and-set on the revision.
func (s *Server) UpsertSchema(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	ctx := logger.With(r.Context(), zap.String("tenant", tenant))
	r = r.WithContext(ctx)

	expected, err := ifMatchRevision(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var body SchemaRequest
	if !s.decode(w, r, &body) {
		return
	}

	sections, err := sectionsFromDTO(body.Sections)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	saved, err := s.schemas.UpsertIfRevision(ctx, tenant, sections, expected)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logger.FromContext(ctx).Info("Schema saved", zap.Int("revision", saved.Revision()))
	setETag(w, saved.Revision())
	writeJSON(w, http.StatusOK, schemaToResponse(saved))
}

// GetSchema handles GET /tenants/{tenant}/schema.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	sch, err := s.schemas.Get(r.Context(), tenant)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setETag(w, sch.Revision())
	writeJSON(w, http.StatusOK, schemaToResponse(sch))
}

// DeleteSchema handles DELETE /tenants/{tenant}/schema.
func (s *Server) DeleteSchema(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if err := s.schemas.Delete(r.Context(), tenant); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFacets handles GET /tenants/{tenant}/facets.
func (s *Server) GetFacets(w http.ResponseWriter, r *http.Request) {
	tenant, err := tenantParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	facets, err := s.schemas.Facets(r.Context(), tenant)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := make([]FacetResponse, 0, len(facets))
	for _, f := range facets {
		resp = append(resp, facetToResponse(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"facets": resp})
}

// ifMatchRevision parses an If-Match header. A missing header or "*" means no check.
func ifMatchRevision(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return 0, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = unq
	}
	rev, err := strconv.Atoi(raw)
	if err != nil || rev <= 0 {
		return 0, domain.NewValidation("If-Match", "must be a positive schema revision")
	}
	return rev, nil
}

func setETag(w http.ResponseWriter, revision int) {
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(revision)))
}

func sectionsFromDTO(in []SectionDTO) ([]domschema.Section, error) {
	sections := make([]domschema.Section, 0, len(in))
	for _, sd := range in {
		fields := make([]field.Field, 0, len(sd.Fields))
		for _, fd := range sd.Fields {
			f, err := fieldFromDTO(fd)
			if err != nil {
				return nil, fmt.Errorf("section %q: %w: %w", sd.Name, domain.ErrInvalidSchema, err)
			}
			fields = append(fields, f)
		}
		sec, err := domschema.NewSection(sd.Name, fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

func fieldFromDTO(fd FieldDTO) (field.Field, error) {
	var opts []field.Option
	if fd.Label != "" {
		opts = append(opts, field.WithLabel(fd.Label))
	}
	if fd.Required {
		opts = append(opts, field.Required())
	}
	if fd.MaxLength != 0 {
		opts = append(opts, field.WithMaxLength(fd.MaxLength))
	}
	if len(fd.Options) > 0 {
		opts = append(opts, field.WithOptions(fd.Options...))
	}
	if fd.Multiple {
		opts = append(opts, field.Multiple())
	}
	return field.New(fd.Name, field.Type(fd.Type), opts...)
}

func schemaToResponse(sch domschema.Schema) SchemaResponse {
	sections := make([]SectionDTO, 0, len(sch.Sections()))
	for _, sec := range sch.Sections() {
		fields := make([]FieldDTO, 0, len(sec.Fields()))
		for _, f := range sec.Fields() {
			fields = append(fields, FieldDTO{
				Name:      f.Name(),
				Label:     f.Label(),
				Type:      string(f.FieldType()),
				Required:  f.IsRequired(),
				MaxLength: f.MaxLength(),
				Options:   f.Options(),
				Multiple:  f.IsMultiple(),
			})
		}
		sections = append(sections, SectionDTO{Name: sec.Name(), Fields: fields})
	}
	return SchemaResponse{
		Tenant:    sch.TenantID(),
		Sections:  sections,
		Revision:  sch.Revision(),
		UpdatedAt: sch.UpdatedAt(),
	}
}

func facetToResponse(f facet.Facet) FacetResponse {
	return FacetResponse{
		Key:      f.Key,
		Label:    f.Label,
		Type:     string(f.Type),
		Options:  f.Options,
		Multiple: f.Multiple,
	}
}
