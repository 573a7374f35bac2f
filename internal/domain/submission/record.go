package submission

// Identity holds the fields derived from a submission for naming and matching.
type Identity struct {
	ApplicantName string
	Email         string
	Phone         string
	Address       Address
}

// Record is a normalized, indexed submission (immutable value object).
// The search index is a function of sections only; any change to sections must rebuild it.
type Record struct {
	id          string
	tenantID    string
	kind        Kind
	sections    []Section
	identity    Identity
	searchIndex string
	duplicate   DuplicateFlag
	createdAt   int64
	updatedAt   int64
}

// New creates an unsaved Record from normalized sections.
func New(tenantID string, kind Kind, sections []Section, identity Identity) Record {
	return Record{tenantID: tenantID, kind: kind, sections: sections, identity: identity}
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	id, tenantID string, kind Kind, sections []Section, identity Identity,
	searchIndex string, duplicate DuplicateFlag, createdAt, updatedAt int64,
) Record {
	return Record{
		id:          id,
		tenantID:    tenantID,
		kind:        kind,
		sections:    sections,
		identity:    identity,
		searchIndex: searchIndex,
		duplicate:   duplicate,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the record identifier, empty before the record is stored.
func (r Record) ID() string { return r.id }

// TenantID returns the owning tenant.
func (r Record) TenantID() string { return r.tenantID }

// Kind returns the entity kind.
func (r Record) Kind() Kind { return r.kind }

// Sections returns the canonical sections.
func (r Record) Sections() []Section { return r.sections }

// Identity returns the derived identity fields.
func (r Record) Identity() Identity { return r.identity }

// ApplicantName returns the derived applicant name.
func (r Record) ApplicantName() string { return r.identity.ApplicantName }

// Email returns the derived email.
func (r Record) Email() string { return r.identity.Email }

// Phone returns the derived phone.
func (r Record) Phone() string { return r.identity.Phone }

// Address returns the derived address.
func (r Record) Address() Address { return r.identity.Address }

// SearchIndex returns the tokenized search text.
func (r Record) SearchIndex() string { return r.searchIndex }

// Duplicate returns the duplicate flag.
func (r Record) Duplicate() DuplicateFlag { return r.duplicate }

// CreatedAt returns the creation timestamp (unix millis).
func (r Record) CreatedAt() int64 { return r.createdAt }

// UpdatedAt returns the last write timestamp (unix millis).
func (r Record) UpdatedAt() int64 { return r.updatedAt }

// Section looks up a canonical section by name.
func (r Record) Section(name string) (Section, bool) {
	for _, s := range r.sections {
		if s.name == name {
			return s, true
		}
	}
	return Section{}, false
}

// WithID returns a copy carrying the given id.
func (r Record) WithID(id string) Record {
	r.id = id
	return r
}

// WithSearchIndex returns a copy carrying the given index string.
func (r Record) WithSearchIndex(idx string) Record {
	r.searchIndex = idx
	return r
}

// WithDuplicate returns a copy carrying the given duplicate flag.
func (r Record) WithDuplicate(flag DuplicateFlag) Record {
	r.duplicate = flag
	return r
}

// WithTimestamps returns a copy carrying the given timestamps.
func (r Record) WithTimestamps(createdAt, updatedAt int64) Record {
	r.createdAt = createdAt
	r.updatedAt = updatedAt
	return r
}
