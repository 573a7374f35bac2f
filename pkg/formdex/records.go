package formdex

import (
	"context"
	"fmt"
	"time"

	dombatch "github.com/kailas-cloud/formdex/internal/domain/batch"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/domain/value"
	"github.com/kailas-cloud/formdex/internal/usecase/submission"
)

// RecordService files and queries records of one tenant and entity kind.
type RecordService struct {
	tenant    string
	kind      domsub.Kind
	intakeSvc intakeUseCase
	batchSvc  batchUseCase
	obs       *observer
}

// Create validates, indexes and stores a submission.
// existing is true when a repeated enquiry resolved to a stored record instead.
// A hard duplicate fails with *ConflictError.
func (s *RecordService) Create(ctx context.Context, sub Submission) (_ Record, existing bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_create", start, err) }()

	res, err := s.intakeSvc.Create(s.obs.context(ctx), s.input(sub))
	if err != nil {
		return Record{}, false, fmt.Errorf("create record: %w", err)
	}
	return fromInternalRecord(res.Record), res.Existing, nil
}

// Edit replaces the record's submitted values, keeping its id and creation time.
func (s *RecordService) Edit(ctx context.Context, id string, sub Submission) (_ Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_edit", start, err) }()

	rec, err := s.intakeSvc.Edit(s.obs.context(ctx), id, s.input(sub))
	if err != nil {
		return Record{}, fmt.Errorf("edit record: %w", err)
	}
	return fromInternalRecord(rec), nil
}

// Get returns a record by id.
func (s *RecordService) Get(ctx context.Context, id string) (_ Record, err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_get", start, err) }()

	rec, err := s.intakeSvc.Get(s.obs.context(ctx), s.tenant, s.kind, id)
	if err != nil {
		return Record{}, fmt.Errorf("get record: %w", err)
	}
	return fromInternalRecord(rec), nil
}

// Search returns records whose search index matches q, oldest first.
// q is a whitespace-separated list of "key:value" terms; empty q lists everything.
// Pass the previous page's NextCursor to continue.
func (s *RecordService) Search(ctx context.Context, q string, cursor int64, limit int) (_ Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe("record_search", start, err) }()

	page, err := s.intakeSvc.Search(s.obs.context(ctx), s.tenant, s.kind, q, cursor, limit)
	if err != nil {
		return Page{}, fmt.Errorf("search records: %w", err)
	}
	out := Page{
		Records:    make([]Record, len(page.Records)),
		Total:      page.Total,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	for i, rec := range page.Records {
		out.Records[i] = fromInternalRecord(rec)
	}
	return out, nil
}

// Import files many submissions. Items succeed or fail independently;
// a later item sharing an identifier with an earlier one is treated as its duplicate.
func (s *RecordService) Import(ctx context.Context, subs []Submission) []ImportResult {
	start := time.Now()

	items := make([]submission.Input, len(subs))
	for i, sub := range subs {
		items[i] = s.input(sub)
	}
	results := s.batchSvc.Import(s.obs.context(ctx), s.kind, items)

	out := make([]ImportResult, len(results))
	failed := 0
	for i, r := range results {
		out[i] = ImportResult{
			Index:  r.Index(),
			ID:     r.ID(),
			Status: ImportStatus(r.Status()),
			Err:    r.Err(),
		}
		if r.Status() == dombatch.StatusError {
			failed++
		}
	}

	var err error
	if failed > 0 {
		err = fmt.Errorf("%d of %d items failed", failed, len(results))
	}
	s.obs.observe("record_import", start, err)
	return out
}

func (s *RecordService) input(sub Submission) submission.Input {
	in := submission.Input{TenantID: s.tenant, Kind: s.kind}
	for _, sec := range sub.Sections {
		in.Sections = append(in.Sections, domsub.RawSection{Name: sec.Name, Fields: sec.Fields})
	}
	for _, f := range sub.Files {
		in.Files = append(in.Files, domsub.FileRef{Section: f.Section, Field: f.Field, Name: f.Name, Path: f.Path})
	}
	return in
}

func fromInternalRecord(rec domsub.Record) Record {
	sections := make([]RecordSection, len(rec.Sections()))
	for i, sec := range rec.Sections() {
		fields := make([]FieldValue, len(sec.Entries()))
		for j, e := range sec.Entries() {
			fields[j] = FieldValue{Name: e.Name, Value: fromValue(e.Value)}
		}
		sections[i] = RecordSection{Name: sec.Name(), Fields: fields}
	}
	addr := rec.Address()
	dup := rec.Duplicate()
	return Record{
		ID:            rec.ID(),
		Tenant:        rec.TenantID(),
		Kind:          Kind(rec.Kind()),
		Sections:      sections,
		ApplicantName: rec.ApplicantName(),
		Email:         rec.Email(),
		Phone:         rec.Phone(),
		Country:       addr.Country,
		State:         addr.State,
		City:          addr.City,
		SearchIndex:   rec.SearchIndex(),
		Duplicate: DuplicateFlag{
			IsDuplicate: dup.IsDuplicate,
			Reason:      dup.Reason,
			MatchedIDs:  dup.MatchedIDs,
		},
		CreatedAt: rec.CreatedAt(),
		UpdatedAt: rec.UpdatedAt(),
	}
}

func fromValue(v value.Value) any {
	switch v.Kind() {
	case value.KindNumber:
		return v.Num()
	case value.KindList:
		return v.Items()
	case value.KindBool:
		return v.Truth()
	default:
		return v.Str()
	}
}
