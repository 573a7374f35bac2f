package field

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/formdex/internal/domain"
)

// Type is the input type of a form field.
type Type string

// Field type constants.
const (
	Text     Type = "text"
	Number   Type = "number"
	Email    Type = "email"
	Select   Type = "select"
	Radio    Type = "radio"
	Checkbox Type = "checkbox"
	Date     Type = "date"
	File     Type = "file"
)

// IsValid checks if the field type is supported.
func (t Type) IsValid() bool {
	switch t {
	case Text, Number, Email, Select, Radio, Checkbox, Date, File:
		return true
	}
	return false
}

// IsChoice reports whether values must come from a fixed option list.
func (t Type) IsChoice() bool {
	return t == Select || t == Radio || t == Checkbox
}

// MaxNameLength bounds field names.
const MaxNameLength = 128

// Field is an immutable value object describing one input of a form section.
type Field struct {
	name      string
	label     string
	fieldType Type
	required  bool
	maxLength int
	options   []string
	multiple  bool
}

// Option configures optional Field attributes.
type Option func(*Field)

// WithLabel sets the display label. Defaults to the field name.
func WithLabel(label string) Option {
	return func(f *Field) { f.label = label }
}

// Required marks the field as mandatory.
func Required() Option {
	return func(f *Field) { f.required = true }
}

// WithMaxLength caps the length of text and email values. Zero means unbounded.
func WithMaxLength(n int) Option {
	return func(f *Field) { f.maxLength = n }
}

// WithOptions sets the allowed values of a choice field.
func WithOptions(options ...string) Option {
	return func(f *Field) { f.options = slices.Clone(options) }
}

// Multiple allows a file field to hold several uploads.
func Multiple() Option {
	return func(f *Field) { f.multiple = true }
}

// New validates and creates a Field.
// Name must be non-empty; choice types (select, radio, checkbox) need at least one option.
func New(name string, ft Type, opts ...Option) (Field, error) {
	f := Field{name: name, fieldType: ft}
	for _, o := range opts {
		o(&f)
	}
	if f.label == "" {
		f.label = name
	}

	if name == "" {
		return Field{}, domain.NewValidation("name", "field name is required")
	}
	if len(name) > MaxNameLength {
		return Field{}, domain.NewValidation(name, fmt.Sprintf("field name too long (max %d)", MaxNameLength))
	}
	if !ft.IsValid() {
		return Field{}, domain.NewValidation(name, fmt.Sprintf("invalid field type %q", ft))
	}
	if f.maxLength < 0 {
		return Field{}, domain.NewValidation(name, "max length must not be negative")
	}
	if ft.IsChoice() && len(f.options) == 0 {
		return Field{}, domain.NewValidation(name, fmt.Sprintf("%s field requires at least one option", ft))
	}
	return f, nil
}

// Reconstruct creates a Field without validation (storage hydration).
func Reconstruct(
	name, label string, ft Type, required bool,
	maxLength int, options []string, multiple bool,
) Field {
	return Field{
		name:      name,
		label:     label,
		fieldType: ft,
		required:  required,
		maxLength: maxLength,
		options:   options,
		multiple:  multiple,
	}
}

// Name returns the field name, which is also its submission key.
func (f Field) Name() string { return f.name }

// Label returns the display label.
func (f Field) Label() string { return f.label }

// FieldType returns the input type.
func (f Field) FieldType() Type { return f.fieldType }

// IsRequired reports whether a value must be submitted.
func (f Field) IsRequired() bool { return f.required }

// MaxLength returns the length cap, zero when unbounded.
func (f Field) MaxLength() int { return f.maxLength }

// Options returns the allowed values of a choice field.
func (f Field) Options() []string { return f.options }

// IsMultiple reports whether the field accepts several values.
func (f Field) IsMultiple() bool { return f.multiple }

// HasOption checks membership in the option list (exact match).
func (f Field) HasOption(v string) bool {
	return slices.Contains(f.options, v)
}
