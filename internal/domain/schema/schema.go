package schema

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/formdex/internal/domain"
	"github.com/kailas-cloud/formdex/internal/domain/schema/field"
)

// Conventional section names used by tenant forms.
const (
	SectionPersonal  = "personalDetails"
	SectionEducation = "educationDetails"
)

// Limits on schema shape.
const (
	MaxSections         = 32
	MaxFieldsPerSection = 256
)

// Section is an ordered group of fields.
type Section struct {
	name   string
	fields []field.Field
}

// NewSection validates and creates a Section. Field names must be unique within it.
func NewSection(name string, fields []field.Field) (Section, error) {
	if name == "" {
		return Section{}, domain.NewValidation("section", "section name is required")
	}
	if len(fields) > MaxFieldsPerSection {
		return Section{}, domain.NewValidation(name, fmt.Sprintf("too many fields (max %d)", MaxFieldsPerSection))
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name()] {
			return Section{}, domain.NewValidation(name+"."+f.Name(), "duplicate field name")
		}
		seen[f.Name()] = true
	}
	return Section{name: name, fields: fields}, nil
}

// ReconstructSection creates a Section without validation (storage hydration).
func ReconstructSection(name string, fields []field.Field) Section {
	return Section{name: name, fields: fields}
}

// Name returns the section name.
func (s Section) Name() string { return s.name }

// Fields returns the fields in declaration order.
func (s Section) Fields() []field.Field { return s.fields }

// Field looks up a field by name.
func (s Section) Field(name string) (field.Field, bool) {
	for _, f := range s.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Field{}, false
}

// Schema is the per-tenant form definition aggregate (immutable value object).
type Schema struct {
	tenantID  string
	sections  []Section
	revision  int
	updatedAt int64
}

// New validates and creates a Schema at revision 1.
func New(tenantID string, sections []Section) (Schema, error) {
	if tenantID == "" {
		return Schema{}, domain.NewValidation("tenant", "tenant id is required")
	}
	if len(sections) > MaxSections {
		return Schema{}, domain.NewValidation("sections", fmt.Sprintf("too many sections (max %d)", MaxSections))
	}
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		if seen[s.Name()] {
			return Schema{}, domain.NewValidation(s.Name(), "duplicate section name")
		}
		seen[s.Name()] = true
	}
	return Schema{
		tenantID:  tenantID,
		sections:  sections,
		revision:  1,
		updatedAt: time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Schema without validation (storage hydration).
func Reconstruct(tenantID string, sections []Section, revision int, updatedAt int64) Schema {
	return Schema{tenantID: tenantID, sections: sections, revision: revision, updatedAt: updatedAt}
}

// TenantID returns the owning tenant.
func (s Schema) TenantID() string { return s.tenantID }

// Sections returns the sections in declaration order.
func (s Schema) Sections() []Section { return s.sections }

// Revision returns the write counter used for optional compare-and-swap.
func (s Schema) Revision() int { return s.revision }

// UpdatedAt returns the last write timestamp (unix millis).
func (s Schema) UpdatedAt() int64 { return s.updatedAt }

// WithRevision returns a copy carrying the given revision and timestamp.
func (s Schema) WithRevision(revision int, updatedAt int64) Schema {
	return Schema{tenantID: s.tenantID, sections: s.sections, revision: revision, updatedAt: updatedAt}
}

// Section looks up a section by exact, case-sensitive name.
func (s Schema) Section(name string) (Section, bool) {
	for _, sec := range s.sections {
		if sec.name == name {
			return sec, true
		}
	}
	return Section{}, false
}
