package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/formdex/internal/domain"
	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	batchuc "github.com/kailas-cloud/formdex/internal/usecase/batch"
	"github.com/kailas-cloud/formdex/internal/usecase/dedup"
	healthuc "github.com/kailas-cloud/formdex/internal/usecase/health"
	intakeuc "github.com/kailas-cloud/formdex/internal/usecase/intake"
	schemauc "github.com/kailas-cloud/formdex/internal/usecase/schema"
	"github.com/kailas-cloud/formdex/internal/usecase/submission"
)

// --- Mocks ---

type memSchemas struct {
	mu      sync.Mutex
	schemas map[string]domschema.Schema
}

func (m *memSchemas) Get(_ context.Context, tenantID string) (domschema.Schema, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schemas[tenantID]
	if !ok {
		return domschema.Schema{}, domain.ErrConfigurationMissing
	}
	return s, nil
}

func (m *memSchemas) Upsert(_ context.Context, s domschema.Schema, expectedRevision int) (domschema.Schema, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.schemas[s.TenantID()].Revision()
	if expectedRevision > 0 && cur != expectedRevision {
		return domschema.Schema{}, domain.NewRevisionConflict(cur)
	}
	saved := s.WithRevision(cur+1, 1700000000000)
	m.schemas[s.TenantID()] = saved
	return saved, nil
}

func (m *memSchemas) Delete(_ context.Context, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schemas[tenantID]; !ok {
		return domain.ErrConfigurationMissing
	}
	delete(m.schemas, tenantID)
	return nil
}

// memRecords keeps records in insertion order and enforces claims like the store does.
type memRecords struct {
	mu      sync.Mutex
	records []domsub.Record
	claims  map[string]string
}

func claimKey(rec domsub.Record, c domsub.Identifier) string {
	return rec.TenantID() + "|" + string(rec.Kind()) + "|" + string(c.Kind) + "|" + c.Value
}

func (m *memRecords) claim(rec domsub.Record, claims []domsub.Identifier) error {
	for _, c := range claims {
		if holder, ok := m.claims[claimKey(rec, c)]; ok && holder != rec.ID() {
			return domain.NewConflict([]string{holder})
		}
	}
	for _, c := range claims {
		m.claims[claimKey(rec, c)] = rec.ID()
	}
	return nil
}

func (m *memRecords) Create(_ context.Context, rec domsub.Record, claims []domsub.Identifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID() == rec.ID() {
			return domain.ErrAlreadyExists
		}
	}
	if err := m.claim(rec, claims); err != nil {
		return err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memRecords) Update(_ context.Context, rec domsub.Record, claims []domsub.Identifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.records, func(r domsub.Record) bool { return r.ID() == rec.ID() })
	if i < 0 {
		return domain.ErrNotFound
	}
	if err := m.claim(rec, claims); err != nil {
		return err
	}
	m.records[i] = rec
	return nil
}

func (m *memRecords) Get(_ context.Context, tenantID, id string) (domsub.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.TenantID() == tenantID && r.ID() == id {
			return r, nil
		}
	}
	return domsub.Record{}, domain.ErrNotFound
}

func (m *memRecords) Scan(
	_ context.Context, tenantID string, kind domsub.Kind, cursor int64, limit int, match func(domsub.Record) bool,
) (domsub.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ofKind []domsub.Record
	for _, r := range m.records {
		if r.TenantID() == tenantID && r.Kind() == kind {
			ofKind = append(ofKind, r)
		}
	}
	page := domsub.Page{Total: int64(len(ofKind))}
	pos := cursor
	for ; pos < int64(len(ofKind)) && len(page.Records) < limit; pos++ {
		if match == nil || match(ofKind[pos]) {
			page.Records = append(page.Records, ofKind[pos])
		}
	}
	if pos < int64(len(ofKind)) {
		page.NextCursor, page.HasMore = pos, true
	}
	return page, nil
}

func (m *memRecords) FindByIdentifier(
	_ context.Context, tenantID string, kind domsub.Kind, ident domsub.Identifier, excludeID string,
) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.records {
		if r.TenantID() != tenantID || r.Kind() != kind || r.ID() == excludeID {
			continue
		}
		if slices.Contains(r.Identity().Identifiers(), ident) {
			out = append(out, r.ID())
		}
	}
	return out, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fakeScripts struct{ err error }

func (f *fakeScripts) EvalInts(context.Context, string, []string, []string) ([]int64, error) {
	return []int64{1}, f.err
}

// --- Fixture ---

type testEnv struct {
	router  http.Handler
	records *memRecords
	pinger  *fakePinger
	scripts *fakeScripts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	schemas := &memSchemas{schemas: map[string]domschema.Schema{}}
	records := &memRecords{claims: map[string]string{}}
	pinger := &fakePinger{}
	scripts := &fakeScripts{}

	intake := intakeuc.New(submission.New(schemas), dedup.New(records), records).WithPagination(2, 10)
	srv := NewServer(
		schemauc.New(schemas),
		intake,
		batchuc.New(intake).WithMaxBatchSize(5).WithConcurrency(2),
		healthuc.New(pinger, scripts),
	).WithMaxBodyBytes(64 << 10)

	r := chi.NewRouter()
	srv.Register(r)
	return &testEnv{router: r, records: records, pinger: pinger, scripts: scripts}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

var admissionSchema = SchemaRequest{Sections: []SectionDTO{
	{Name: "personalDetails", Fields: []FieldDTO{
		{Name: "Full Name", Type: "text", Required: true, MaxLength: 80},
		{Name: "Email", Type: "email", Required: true},
		{Name: "Phone", Type: "text", Required: true},
		{Name: "City", Type: "text"},
	}},
	{Name: "preferences", Fields: []FieldDTO{
		{Name: "Course", Label: "Preferred Course", Type: "select", Options: []string{"MBA", "BBA"}},
		{Name: "Start Date", Type: "date"},
	}},
}}

// withSchema installs admissionSchema for tenant acme.
func (e *testEnv) withSchema(t *testing.T) *testEnv {
	t.Helper()
	if rr := e.do(t, http.MethodPut, "/tenants/acme/schema", admissionSchema); rr.Code != http.StatusOK {
		t.Fatalf("install schema: %d %s", rr.Code, rr.Body.String())
	}
	return e
}

func applicant(name, email, phone, course string) SubmissionRequest {
	return SubmissionRequest{Sections: []RawSectionDTO{
		{Name: "personalDetails", Fields: map[string]any{
			"Full Name": name,
			"Email":     email,
			"Phone":     phone,
			"City":      "Pune",
		}},
		{Name: "preferences", Fields: map[string]any{"Course": course}},
	}}
}
