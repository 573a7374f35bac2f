// Package facet derives filterable field metadata from a form schema.
package facet

import (
	"github.com/kailas-cloud/formdex/internal/domain/schema"
	"github.com/kailas-cloud/formdex/internal/domain/schema/field"
)

// Facet describes one filterable field.
type Facet struct {
	Key      string
	Label    string
	Type     field.Type
	Options  []string
	Multiple bool
}

// Filterable reports whether fields of type t produce facets. Dates and files do not.
func Filterable(t field.Type) bool {
	switch t {
	case field.Select, field.Radio, field.Checkbox, field.Text, field.Number:
		return true
	}
	return false
}

// Extract returns one facet per distinct field name, in first-seen order.
// When a name repeats across sections the later definition wins.
func Extract(s schema.Schema) []Facet {
	var out []Facet
	pos := make(map[string]int)

	for _, sec := range s.Sections() {
		for _, f := range sec.Fields() {
			if !Filterable(f.FieldType()) {
				continue
			}
			fc := Facet{
				Key:      f.Name(),
				Label:    f.Label(),
				Type:     f.FieldType(),
				Options:  f.Options(),
				Multiple: f.IsMultiple(),
			}
			if i, ok := pos[fc.Key]; ok {
				out[i] = fc
				continue
			}
			pos[fc.Key] = len(out)
			out = append(out, fc)
		}
	}
	return out
}
