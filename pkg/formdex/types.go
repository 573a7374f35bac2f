package formdex

// Kind is the entity kind a submission is filed as.
type Kind string

// Entity kinds. Each carries its own duplicate policy.
const (
	Lead        Kind = "lead"
	Application Kind = "application"
	Enquiry     Kind = "enquiry"
)

// FieldType is the input type of a form field.
type FieldType string

// Field type constants.
const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
	FieldFile     FieldType = "file"
)

// Field is one input of a form section. Label defaults to Name.
type Field struct {
	Name      string
	Label     string
	Type      FieldType
	Required  bool
	MaxLength int
	Options   []string
	Multiple  bool
}

// Section is a named group of fields.
type Section struct {
	Name   string
	Fields []Field
}

// Schema is a tenant's stored form definition.
type Schema struct {
	Tenant    string
	Sections  []Section
	Revision  int
	UpdatedAt int64
}

// Facet describes one filterable field of a schema.
type Facet struct {
	Key      string
	Label    string
	Type     FieldType
	Options  []string
	Multiple bool
}

// SubmissionSection holds the raw values of one submitted section.
// Values may be strings, numbers, booleans, decimal.Decimal, or slices of scalars.
type SubmissionSection struct {
	Name   string
	Fields map[string]any
}

// FileRef points an already stored upload at a field slot.
type FileRef struct {
	Section string
	Field   string
	Name    string
	Path    string
}

// Submission is a raw form submission.
type Submission struct {
	Sections []SubmissionSection
	Files    []FileRef
}

// FieldValue is one canonical field of a record. Value is a string,
// decimal.Decimal, []string, or bool.
type FieldValue struct {
	Name  string
	Value any
}

// RecordSection is one canonical section of a record, fields in schema order.
type RecordSection struct {
	Name   string
	Fields []FieldValue
}

// DuplicateFlag is the outcome of duplicate detection on a record.
type DuplicateFlag struct {
	IsDuplicate bool
	Reason      string
	MatchedIDs  []string
}

// Record is a stored, normalized submission.
type Record struct {
	ID            string
	Tenant        string
	Kind          Kind
	Sections      []RecordSection
	ApplicantName string
	Email         string
	Phone         string
	Country       string
	State         string
	City          string
	SearchIndex   string
	Duplicate     DuplicateFlag
	CreatedAt     int64
	UpdatedAt     int64
}

// Page is one page of a record listing.
type Page struct {
	Records    []Record
	Total      int64
	NextCursor int64
	HasMore    bool
}

// ImportStatus is the outcome of one imported submission.
type ImportStatus string

// Import statuses.
const (
	ImportOK        ImportStatus = "ok"
	ImportDuplicate ImportStatus = "duplicate"
	ImportError     ImportStatus = "error"
)

// ImportResult is the outcome of one item of an import, in input order.
type ImportResult struct {
	Index  int
	ID     string
	Status ImportStatus
	Err    error
}
