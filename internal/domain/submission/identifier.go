package submission

// IdentifierKind names an identity field used for matching.
type IdentifierKind string

// Identifier kinds. IdentPhoneEmail is the joint key of a phone and email pair.
const (
	IdentPhone      IdentifierKind = "phone"
	IdentEmail      IdentifierKind = "email"
	IdentPhoneEmail IdentifierKind = "phone+email"
)

// Identifier is one (kind, value) pair a record is matched or claimed on.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// Identifiers returns the single-field identifiers of an identity, skipping empty ones.
func (id Identity) Identifiers() []Identifier {
	var out []Identifier
	if id.Phone != "" {
		out = append(out, Identifier{Kind: IdentPhone, Value: id.Phone})
	}
	if id.Email != "" {
		out = append(out, Identifier{Kind: IdentEmail, Value: id.Email})
	}
	return out
}

// Joint returns the combined phone and email identifier, or false if either is empty.
func (id Identity) Joint() (Identifier, bool) {
	if id.Phone == "" || id.Email == "" {
		return Identifier{}, false
	}
	return Identifier{Kind: IdentPhoneEmail, Value: id.Phone + "|" + id.Email}, true
}
