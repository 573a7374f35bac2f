// Package searchindex renders canonical submission sections into a flat,
// schemaless text index of "key:value" tokens.
package searchindex

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/domain/value"
)

// Build produces the index string for the given sections.
// Tokens follow section order, then entry order, joined by single spaces.
// Empty values still emit "key:".
func Build(sections []submission.Section) string {
	lower := cases.Lower(language.Und)

	var b strings.Builder
	for _, sec := range sections {
		for _, e := range sec.Entries() {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(Key(e.Name))
			b.WriteByte(':')
			b.WriteString(render(lower, e.Value))
		}
	}
	return b.String()
}

// Key normalizes a field name into an index key: lowercased with all whitespace removed.
func Key(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	return cases.Lower(language.Und).String(stripped)
}

func render(lower cases.Caser, v value.Value) string {
	if v.Kind() == value.KindList {
		parts := make([]string, 0, len(v.Items()))
		for _, it := range v.Items() {
			parts = append(parts, lower.String(strings.TrimSpace(it)))
		}
		return strings.Join(parts, ",")
	}
	return lower.String(strings.TrimSpace(v.Text()))
}
