// Package address derives a structured location from free-form submission fields.
package address

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/formdex/internal/domain/submission"
)

// Extractor derives an Address from canonical sections.
type Extractor interface {
	Extract(sections []submission.Section) submission.Address
}

// Category tokens searched for in field names.
const (
	TokenCountry = "country"
	TokenState   = "state"
	TokenCity    = "city"
)

// NameMatcher finds address components by field-name substring.
// Sections and entries are scanned in order; for each component the first
// non-blank field whose name contains its token wins. A blank field never
// claims a component, so an empty "Home State" yields to a later "State".
type NameMatcher struct{}

var _ Extractor = NameMatcher{}

// Extract implements Extractor.
func (NameMatcher) Extract(sections []submission.Section) submission.Address {
	var a submission.Address
	for _, sec := range sections {
		for _, e := range sec.Entries() {
			if e.Value.IsBlank() {
				continue
			}
			v := strings.TrimSpace(e.Value.Text())
			if a.Country == "" && NameContains(e.Name, TokenCountry) {
				a.Country = v
			}
			if a.State == "" && NameContains(e.Name, TokenState) {
				a.State = v
			}
			if a.City == "" && NameContains(e.Name, TokenCity) {
				a.City = v
			}
		}
	}
	return a
}

// NameContains reports whether a field name contains token, ignoring case.
func NameContains(name, token string) bool {
	lower := cases.Lower(language.Und)
	return strings.Contains(lower.String(name), lower.String(token))
}
