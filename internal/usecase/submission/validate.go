package submission

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/formdex/internal/domain"
	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
	"github.com/kailas-cloud/formdex/internal/domain/schema/field"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/domain/value"
)

// Validation failure reasons.
const (
	ReasonRequired         = "required"
	ReasonInvalidOption    = "invalid option"
	ReasonNotNumber        = "must be a number"
	ReasonInvalidDate      = "invalid date"
	ReasonInvalidEmail     = "invalid email"
	ReasonTooLong          = "exceeds max length"
	ReasonNotScalar        = "must be a single value"
	ReasonUnsupportedValue = "unsupported value"
	ReasonUnknownFile      = "unknown file target"
	ReasonTooManyFiles     = "too many files"
)

// DateLayout is the canonical form dates are stored in.
const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, "02-01-2006", "02/01/2006", time.RFC3339}

// checker validates a single field value against its definition.
type checker struct {
	validate *validator.Validate
}

func newChecker() *checker {
	return &checker{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// section converts a raw section against its declared definition.
// Declared fields come first in declaration order; undeclared keys follow in lexical order.
func (c *checker) section(def domschema.Section, raw map[string]any, files map[string]bool) (domsub.Section, error) {
	entries := make([]domsub.Entry, 0, len(raw))
	declared := make(map[string]bool, len(def.Fields()))

	for _, f := range def.Fields() {
		declared[f.Name()] = true
		rv, present := raw[f.Name()]
		v, err := c.field(f, rv, present, files[f.Name()])
		if err != nil {
			return domsub.Section{}, err
		}
		if present {
			entries = append(entries, domsub.Entry{Name: f.Name(), Value: v})
		}
	}

	rest, err := passthrough(raw, declared)
	if err != nil {
		return domsub.Section{}, err
	}
	return domsub.NewSection(def.Name(), append(entries, rest...)), nil
}

// missingSection checks a declared section that was not submitted at all.
func (c *checker) missingSection(def domschema.Section, files map[string]bool) error {
	for _, f := range def.Fields() {
		if _, err := c.field(f, nil, false, files[f.Name()]); err != nil {
			return err
		}
	}
	return nil
}

// unknownSection passes an undeclared section through unvalidated.
func unknownSection(name string, raw map[string]any) (domsub.Section, error) {
	entries, err := passthrough(raw, nil)
	if err != nil {
		return domsub.Section{}, err
	}
	return domsub.NewSection(name, entries), nil
}

func passthrough(raw map[string]any, skip map[string]bool) ([]domsub.Entry, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	entries := make([]domsub.Entry, 0, len(keys))
	for _, k := range keys {
		v, err := value.FromRaw(raw[k])
		if err != nil {
			return nil, domain.NewValidation(k, ReasonUnsupportedValue)
		}
		entries = append(entries, domsub.Entry{Name: k, Value: v})
	}
	return entries, nil
}

func (c *checker) field(f field.Field, raw any, present, hasFile bool) (value.Value, error) {
	v, err := value.FromRaw(raw)
	if err != nil {
		return value.Value{}, domain.NewValidation(f.Name(), ReasonUnsupportedValue)
	}

	if !present || v.IsBlank() {
		if f.IsRequired() && !(f.FieldType() == field.File && hasFile) {
			return value.Value{}, domain.NewValidation(f.Name(), ReasonRequired)
		}
		if f.FieldType() == field.Checkbox && v.Kind() != value.KindList {
			return value.List(), nil
		}
		return v, nil
	}

	switch f.FieldType() {
	case field.Text:
		return c.text(f, v)
	case field.Email:
		return c.email(f, v)
	case field.Number:
		return number(f, v)
	case field.Select, field.Radio:
		return choice(f, v)
	case field.Checkbox:
		return checkbox(f, v)
	case field.Date:
		return date(f, v)
	default:
		return v, nil
	}
}

func (c *checker) text(f field.Field, v value.Value) (value.Value, error) {
	if v.Kind() == value.KindList {
		return value.Value{}, domain.NewValidation(f.Name(), ReasonNotScalar)
	}
	s := v.Text()
	if f.MaxLength() > 0 && utf8.RuneCountInString(s) > f.MaxLength() {
		return value.Value{}, domain.NewValidation(f.Name(), ReasonTooLong)
	}
	return value.String(s), nil
}

func (c *checker) email(f field.Field, v value.Value) (value.Value, error) {
	out, err := c.text(f, v)
	if err != nil {
		return value.Value{}, err
	}
	s := strings.TrimSpace(out.Str())
	if err := c.validate.Var(s, "email"); err != nil {
		return value.Value{}, domain.NewValidation(f.Name(), ReasonInvalidEmail)
	}
	return value.String(s), nil
}

func number(f field.Field, v value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.KindNumber:
		return v, nil
	case value.KindString:
		d, err := decimal.NewFromString(strings.TrimSpace(v.Str()))
		if err != nil {
			return value.Value{}, domain.NewValidation(f.Name(), ReasonNotNumber)
		}
		return value.Number(d), nil
	}
	return value.Value{}, domain.NewValidation(f.Name(), ReasonNotNumber)
}

func choice(f field.Field, v value.Value) (value.Value, error) {
	if v.Kind() == value.KindList {
		return value.Value{}, domain.NewValidation(f.Name(), ReasonNotScalar)
	}
	s := strings.TrimSpace(v.Text())
	if !f.HasOption(s) {
		return value.Value{}, domain.NewValidation(f.Name(), ReasonInvalidOption)
	}
	return value.String(s), nil
}

func checkbox(f field.Field, v value.Value) (value.Value, error) {
	items := make([]string, 0, len(v.Strings()))
	for _, it := range v.Strings() {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if !f.HasOption(it) {
			return value.Value{}, domain.NewValidation(f.Name(), ReasonInvalidOption)
		}
		items = append(items, it)
	}
	return value.List(items...), nil
}

func date(f field.Field, v value.Value) (value.Value, error) {
	if v.Kind() != value.KindString {
		return value.Value{}, domain.NewValidation(f.Name(), ReasonInvalidDate)
	}
	t, ok := parseDate(v.Str())
	if !ok {
		return value.Value{}, domain.NewValidation(f.Name(), ReasonInvalidDate)
	}
	return value.String(t.Format(DateLayout)), nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
