package submission

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/formdex/internal/domain/value"
)

// Kind is the entity kind a submission is filed as. It selects the duplicate policy.
type Kind string

// Entity kinds.
const (
	KindLead        Kind = "lead"
	KindApplication Kind = "application"
	KindEnquiry     Kind = "enquiry"
)

// IsValid checks if the kind is supported.
func (k Kind) IsValid() bool {
	return k == KindLead || k == KindApplication || k == KindEnquiry
}

// IDCode returns the short code embedded in generated record ids.
func (k Kind) IDCode() string {
	switch k {
	case KindLead:
		return "LE"
	case KindApplication:
		return "APP"
	case KindEnquiry:
		return "ENQ"
	}
	return "REC"
}

// ParseKind resolves a kind from its singular or plural route name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "lead", "leads":
		return KindLead, nil
	case "application", "applications":
		return KindApplication, nil
	case "enquiry", "enquiries":
		return KindEnquiry, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// RawSection is one section of an incoming submission, as decoded by the transport.
type RawSection struct {
	Name   string
	Fields map[string]any
}

// FileRef points a stored upload at a section-qualified field slot.
type FileRef struct {
	Section string
	Field   string
	Name    string
	Path    string
}

// Entry is one field of a canonical section.
type Entry struct {
	Name  string
	Value value.Value
}

// Section is a canonical section: an ordered list of field entries.
type Section struct {
	name    string
	entries []Entry
}

// NewSection creates a Section. Entries keep the given order.
func NewSection(name string, entries []Entry) Section {
	return Section{name: name, entries: entries}
}

// Name returns the section name.
func (s Section) Name() string { return s.name }

// Entries returns the entries in order.
func (s Section) Entries() []Entry { return s.entries }

// Get looks up an entry value by field name.
func (s Section) Get(name string) (value.Value, bool) {
	for _, e := range s.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return value.Value{}, false
}

// With returns a copy where the named entry is replaced, or appended if absent.
func (s Section) With(name string, v value.Value) Section {
	entries := slices.Clone(s.entries)
	for i := range entries {
		if entries[i].Name == name {
			entries[i].Value = v
			return Section{name: s.name, entries: entries}
		}
	}
	return Section{name: s.name, entries: append(entries, Entry{Name: name, Value: v})}
}

// Address is the location derived from free-form submission fields.
type Address struct {
	Country string
	State   string
	City    string
}

// IsZero reports whether no component was found.
func (a Address) IsZero() bool {
	return a.Country == "" && a.State == "" && a.City == ""
}

// DuplicateFlag records the outcome of duplicate detection on a record.
type DuplicateFlag struct {
	IsDuplicate bool
	Reason      string
	MatchedIDs  []string
}

// Clear is the flag of a record with no known duplicates.
var Clear = DuplicateFlag{}
