package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind tags the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindString Kind = iota
	KindNumber
	KindList
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Value is a submitted field value: string, number, list of strings, or boolean.
type Value struct {
	kind  Kind
	str   string
	num   decimal.Decimal
	items []string
	truth bool
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value.
func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

// List creates a list value. The slice is copied.
func List(items ...string) Value { return Value{kind: KindList, items: slices.Clone(items)} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, truth: b} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload.
func (v Value) Str() string { return v.str }

// Num returns the numeric payload.
func (v Value) Num() decimal.Decimal { return v.num }

// Items returns the list payload.
func (v Value) Items() []string { return v.items }

// Truth returns the boolean payload.
func (v Value) Truth() bool { return v.truth }

// Text renders the value as display text. Lists are joined with ", ".
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindList:
		return strings.Join(v.items, ", ")
	case KindBool:
		return strconv.FormatBool(v.truth)
	default:
		return v.str
	}
}

// Strings returns the value as a list of strings: list items, or the text of a scalar.
func (v Value) Strings() []string {
	if v.kind == KindList {
		return v.items
	}
	return []string{v.Text()}
}

// IsBlank reports whether the value carries no content.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindList:
		for _, it := range v.items {
			if strings.TrimSpace(it) != "" {
				return false
			}
		}
		return true
	}
	return false
}

// Equal compares two values by kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num.Equal(o.num)
	case KindList:
		return slices.Equal(v.items, o.items)
	case KindBool:
		return v.truth == o.truth
	default:
		return v.str == o.str
	}
}

// FromRaw converts a transport-decoded value into a Value.
// Accepts string, bool, float64, int, int64, json.Number, decimal.Decimal, []string and []any of scalars.
func FromRaw(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return String(""), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(decimal.NewFromFloat(x)), nil
	case int:
		return Number(decimal.NewFromInt(int64(x))), nil
	case int64:
		return Number(decimal.NewFromInt(x)), nil
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return Value{}, fmt.Errorf("parse number %q: %w", x, err)
		}
		return Number(d), nil
	case decimal.Decimal:
		return Number(x), nil
	case []string:
		return List(x...), nil
	case []any:
		items := make([]string, 0, len(x))
		for _, it := range x {
			el, err := FromRaw(it)
			if err != nil {
				return Value{}, err
			}
			if el.kind == KindList {
				return Value{}, fmt.Errorf("nested lists are not supported")
			}
			items = append(items, el.Text())
		}
		return Value{kind: KindList, items: items}, nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}

// MarshalJSON encodes the value as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindList:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	case KindBool:
		return json.Marshal(v.truth)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON decodes any JSON scalar or array of scalars.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	parsed, err := FromRaw(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
