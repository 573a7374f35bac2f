package schema

import (
	"encoding/json"
	"fmt"
	"strconv"

	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
	"github.com/kailas-cloud/formdex/internal/domain/schema/field"
)

// fieldRow is the JSON-serializable representation of a field definition.
type fieldRow struct {
	Name      string   `json:"name"`
	Label     string   `json:"label,omitempty"`
	Type      string   `json:"type"`
	Required  bool     `json:"required,omitempty"`
	MaxLength int      `json:"max_length,omitempty"`
	Options   []string `json:"options,omitempty"`
	Multiple  bool     `json:"multiple,omitempty"`
}

type sectionRow struct {
	Name   string     `json:"name"`
	Fields []fieldRow `json:"fields"`
}

func marshalSections(sections []domschema.Section) (string, error) {
	rows := make([]sectionRow, len(sections))
	for i, sec := range sections {
		fields := make([]fieldRow, len(sec.Fields()))
		for j, f := range sec.Fields() {
			fields[j] = fieldRow{
				Name:      f.Name(),
				Label:     f.Label(),
				Type:      string(f.FieldType()),
				Required:  f.IsRequired(),
				MaxLength: f.MaxLength(),
				Options:   f.Options(),
				Multiple:  f.IsMultiple(),
			}
		}
		rows[i] = sectionRow{Name: sec.Name(), Fields: fields}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("marshal sections: %w", err)
	}
	return string(data), nil
}

// schemaFromHash hydrates a domain Schema from an HGETALL result map.
func schemaFromHash(m map[string]string) (domschema.Schema, error) {
	var rows []sectionRow
	if raw := m["sections"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &rows); err != nil {
			return domschema.Schema{}, fmt.Errorf("unmarshal sections: %w", err)
		}
	}

	sections := make([]domschema.Section, len(rows))
	for i, r := range rows {
		fields := make([]field.Field, len(r.Fields))
		for j, f := range r.Fields {
			label := f.Label
			if label == "" {
				label = f.Name
			}
			fields[j] = field.Reconstruct(
				f.Name, label, field.Type(f.Type), f.Required, f.MaxLength, f.Options, f.Multiple,
			)
		}
		sections[i] = domschema.ReconstructSection(r.Name, fields)
	}

	revision, err := strconv.Atoi(m["revision"])
	if err != nil {
		return domschema.Schema{}, fmt.Errorf("invalid revision: %w", err)
	}

	var updatedAt int64
	if s := m["updated_at"]; s != "" {
		if updatedAt, err = strconv.ParseInt(s, 10, 64); err != nil {
			return domschema.Schema{}, fmt.Errorf("invalid updated_at: %w", err)
		}
	}

	return domschema.Reconstruct(m["tenant"], sections, revision, updatedAt), nil
}
