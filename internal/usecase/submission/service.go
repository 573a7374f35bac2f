package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/formdex/internal/domain"
	"github.com/kailas-cloud/formdex/internal/domain/address"
	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
	"github.com/kailas-cloud/formdex/internal/domain/schema/field"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/domain/value"
	"github.com/kailas-cloud/formdex/internal/metrics"
)

// Field names the applicant name is derived from.
const (
	FieldFullName  = "Full Name"
	FieldFirstName = "First Name"
	FieldLastName  = "Last Name"
)

var (
	emailTokens = []string{"email"}
	phoneTokens = []string{"phone", "mobile", "contact number"}
)

// Input is a raw submission with its uploaded file references.
type Input struct {
	TenantID string
	Kind     domsub.Kind
	Sections []domsub.RawSection
	Files    []domsub.FileRef
}

// Service is the submission normalizer: it turns raw submissions into canonical records.
type Service struct {
	schemas SchemaReader
	addr    address.Extractor
	check   *checker
}

// New creates a normalizer backed by the given schema source.
func New(schemas SchemaReader) *Service {
	return &Service{
		schemas: schemas,
		addr:    address.NameMatcher{},
		check:   newChecker(),
	}
}

// WithAddressExtractor replaces the address derivation strategy.
func (s *Service) WithAddressExtractor(e address.Extractor) *Service {
	if e != nil {
		s.addr = e
	}
	return s
}

// Normalize validates a submission against the tenant schema and derives identity fields.
// The returned record has no id, search index, or duplicate flag yet.
// It fails fast: no partial record is produced on error.
func (s *Service) Normalize(ctx context.Context, in Input) (domsub.Record, error) {
	start := time.Now()
	defer func() {
		metrics.NormalizeDuration.WithLabelValues(string(in.Kind)).Observe(time.Since(start).Seconds())
	}()

	sch, err := s.schemas.Get(ctx, in.TenantID)
	if err != nil {
		return domsub.Record{}, fmt.Errorf("load schema: %w", err)
	}

	sections, err := s.validate(sch, in.Sections, in.Files)
	if err != nil {
		recordFailure(err)
		return domsub.Record{}, err
	}

	identity, err := s.derive(sections)
	if err != nil {
		recordFailure(err)
		return domsub.Record{}, err
	}

	sections, err = substituteFiles(sch, sections, in.Files)
	if err != nil {
		recordFailure(err)
		return domsub.Record{}, err
	}

	return domsub.New(in.TenantID, in.Kind, sections, identity), nil
}

// Revalidate re-checks canonical sections against a schema.
// Normalized output always passes.
func (s *Service) Revalidate(sch domschema.Schema, sections []domsub.Section) error {
	raw := make([]domsub.RawSection, 0, len(sections))
	for _, sec := range sections {
		fields := make(map[string]any, len(sec.Entries()))
		for _, e := range sec.Entries() {
			fields[e.Name] = e.Value
		}
		raw = append(raw, domsub.RawSection{Name: sec.Name(), Fields: fields})
	}
	_, err := s.validate(sch, raw, nil)
	return err
}

// Identity derives applicant name, email, phone, and address from canonical sections.
func (s *Service) Identity(sections []domsub.Section) (domsub.Identity, error) {
	return s.derive(sections)
}

func (s *Service) validate(
	sch domschema.Schema, raw []domsub.RawSection, files []domsub.FileRef,
) ([]domsub.Section, error) {
	fileSlots := make(map[string]map[string]bool)
	for _, f := range files {
		if err := checkFileTarget(sch, f); err != nil {
			return nil, err
		}
		if fileSlots[f.Section] == nil {
			fileSlots[f.Section] = make(map[string]bool)
		}
		fileSlots[f.Section][f.Field] = true
	}

	out := make([]domsub.Section, 0, len(raw))
	submitted := make(map[string]bool, len(raw))
	for _, rs := range raw {
		submitted[rs.Name] = true
		def, ok := sch.Section(rs.Name)
		if !ok {
			sec, err := unknownSection(rs.Name, rs.Fields)
			if err != nil {
				return nil, err
			}
			out = append(out, sec)
			continue
		}
		sec, err := s.check.section(def, rs.Fields, fileSlots[rs.Name])
		if err != nil {
			return nil, err
		}
		out = append(out, sec)
	}

	for _, def := range sch.Sections() {
		if submitted[def.Name()] {
			continue
		}
		if err := s.check.missingSection(def, fileSlots[def.Name()]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Service) derive(sections []domsub.Section) (domsub.Identity, error) {
	name := applicantName(sections)
	if name == "" {
		return domsub.Identity{}, domain.NewRequiredFieldMissing("applicantName")
	}
	email := firstByToken(sections, emailTokens)
	if email == "" {
		return domsub.Identity{}, domain.NewRequiredFieldMissing("email")
	}
	phone := firstByToken(sections, phoneTokens)
	if phone == "" {
		return domsub.Identity{}, domain.NewRequiredFieldMissing("phone")
	}
	return domsub.Identity{
		ApplicantName: name,
		Email:         NormalizeEmail(email),
		Phone:         NormalizePhone(phone),
		Address:       s.addr.Extract(sections),
	}, nil
}

func applicantName(sections []domsub.Section) string {
	if v, ok := lookup(sections, FieldFullName); ok && !v.IsBlank() {
		return strings.TrimSpace(v.Text())
	}
	var parts []string
	for _, name := range []string{FieldFirstName, FieldLastName} {
		if v, ok := lookup(sections, name); ok && !v.IsBlank() {
			parts = append(parts, strings.TrimSpace(v.Text()))
		}
	}
	return strings.Join(parts, " ")
}

func lookup(sections []domsub.Section, name string) (value.Value, bool) {
	for _, sec := range sections {
		if v, ok := sec.Get(name); ok {
			return v, true
		}
	}
	return value.Value{}, false
}

func firstByToken(sections []domsub.Section, tokens []string) string {
	for _, sec := range sections {
		for _, e := range sec.Entries() {
			if e.Value.IsBlank() || e.Value.Kind() == value.KindList {
				continue
			}
			for _, tok := range tokens {
				if address.NameContains(e.Name, tok) {
					return strings.TrimSpace(e.Value.Text())
				}
			}
		}
	}
	return ""
}

// NormalizeEmail canonicalizes an email for matching.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone strips formatting characters from a phone number, keeping a leading '+'.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// checkFileTarget rejects a file reference aimed at a declared section's
// non-file or undeclared field. Undeclared sections are checked by substituteFiles.
func checkFileTarget(sch domschema.Schema, ref domsub.FileRef) error {
	def, ok := sch.Section(ref.Section)
	if !ok {
		return nil
	}
	if f, ok := def.Field(ref.Field); !ok || f.FieldType() != field.File {
		return domain.NewValidation(ref.Section+"."+ref.Field, ReasonUnknownFile)
	}
	return nil
}

// substituteFiles writes file references into their section-qualified field slots.
func substituteFiles(
	sch domschema.Schema, sections []domsub.Section, files []domsub.FileRef,
) ([]domsub.Section, error) {
	if len(files) == 0 {
		return sections, nil
	}

	type slot struct{ section, field string }
	var order []slot
	paths := make(map[slot][]string)
	for _, f := range files {
		k := slot{f.Section, f.Field}
		if _, ok := paths[k]; !ok {
			order = append(order, k)
		}
		paths[k] = append(paths[k], f.Path)
	}

	out := append([]domsub.Section(nil), sections...)
	for _, k := range order {
		idx := -1
		for i, sec := range out {
			if sec.Name() == k.section {
				idx = i
				break
			}
		}
		def, declared := sch.Section(k.section)
		if idx < 0 {
			if !declared {
				return nil, domain.NewValidation(k.section+"."+k.field, ReasonUnknownFile)
			}
			out = append(out, domsub.NewSection(k.section, nil))
			idx = len(out) - 1
		}

		v := value.List(paths[k]...)
		if f, ok := def.Field(k.field); declared && ok && !f.IsMultiple() {
			if len(paths[k]) > 1 {
				return nil, domain.NewValidation(k.field, ReasonTooManyFiles)
			}
			v = value.String(paths[k][0])
		}
		out[idx] = out[idx].With(k.field, v)
	}
	return out, nil
}

func recordFailure(err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		metrics.ValidationFailuresTotal.WithLabelValues(ve.Reason).Inc()
		return
	}
	if errors.Is(err, domain.ErrRequiredFieldMissing) {
		metrics.ValidationFailuresTotal.WithLabelValues("required field missing").Inc()
	}
}
