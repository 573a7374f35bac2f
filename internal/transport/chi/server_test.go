package chi

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"testing"
)

func TestSchema_Lifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/tenants/acme/schema", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get before upsert: got %d", rr.Code)
	}
	if resp := decodeBody[ErrorResponse](t, rr); resp.Code != CodeConfigurationMissing {
		t.Errorf("code = %s", resp.Code)
	}

	rr = env.do(t, http.MethodPut, "/tenants/acme/schema", admissionSchema)
	if rr.Code != http.StatusOK {
		t.Fatalf("upsert: got %d %s", rr.Code, rr.Body.String())
	}
	if etag := rr.Header().Get("ETag"); etag != `"1"` {
		t.Errorf("ETag = %s", etag)
	}

	rr = env.do(t, http.MethodGet, "/tenants/acme/schema", nil)
	got := decodeBody[SchemaResponse](t, rr)
	if got.Revision != 1 || got.Tenant != "acme" || len(got.Sections) != 2 {
		t.Fatalf("unexpected schema: %+v", got)
	}
	if f := got.Sections[0].Fields[0]; f.Label != "Full Name" || !f.Required || f.MaxLength != 80 {
		t.Errorf("label must default to name: %+v", f)
	}

	rr = env.do(t, http.MethodDelete, "/tenants/acme/schema", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rr.Code)
	}
	if rr = env.do(t, http.MethodDelete, "/tenants/acme/schema", nil); rr.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d", rr.Code)
	}
}

func TestSchema_IfMatch(t *testing.T) {
	env := newTestEnv(t).withSchema(t)

	rr := env.do(t, http.MethodPut, "/tenants/acme/schema", admissionSchema, "If-Match", `"7"`)
	if rr.Code != http.StatusPreconditionFailed {
		t.Fatalf("stale If-Match: got %d", rr.Code)
	}
	if etag := rr.Header().Get("ETag"); etag != `"1"` {
		t.Errorf("ETag = %s", etag)
	}
	body := decodeBody[map[string]any](t, rr)
	if body["code"] != string(CodeRevisionConflict) || body["current_revision"] != float64(1) {
		t.Errorf("body = %v", body)
	}

	rr = env.do(t, http.MethodPut, "/tenants/acme/schema", admissionSchema, "If-Match", `"1"`)
	if rr.Code != http.StatusOK || rr.Header().Get("ETag") != `"2"` {
		t.Fatalf("matching If-Match: got %d, ETag %s", rr.Code, rr.Header().Get("ETag"))
	}

	rr = env.do(t, http.MethodPut, "/tenants/acme/schema", admissionSchema, "If-Match", "latest")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed If-Match: got %d", rr.Code)
	}
	if resp := decodeBody[ErrorResponse](t, rr); resp.Field != "If-Match" {
		t.Errorf("field = %q", resp.Field)
	}
}

func TestSchema_Invalid(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		fields []FieldDTO
		field  string
	}{
		{"unknown type", []FieldDTO{{Name: "Age", Type: "slider"}}, "Age"},
		{"choice without options", []FieldDTO{{Name: "Course", Type: "select"}}, "Course"},
		{"empty name", []FieldDTO{{Name: "", Type: "text"}}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := SchemaRequest{Sections: []SectionDTO{{Name: "s", Fields: tt.fields}}}
			rr := env.do(t, http.MethodPut, "/tenants/acme/schema", req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("got %d", rr.Code)
			}
			resp := decodeBody[ErrorResponse](t, rr)
			if resp.Code != CodeInvalidSchema || resp.Field != tt.field {
				t.Errorf("got %+v", resp)
			}
		})
	}
}

func TestFacets(t *testing.T) {
	env := newTestEnv(t).withSchema(t)

	rr := env.do(t, http.MethodGet, "/tenants/acme/facets", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	body := decodeBody[struct {
		Facets []FacetResponse `json:"facets"`
	}](t, rr)

	var keys []string
	for _, f := range body.Facets {
		keys = append(keys, f.Key)
	}
	if want := []string{"Full Name", "Phone", "City", "Course"}; !slices.Equal(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	course := body.Facets[3]
	if course.Label != "Preferred Course" || !slices.Equal(course.Options, []string{"MBA", "BBA"}) {
		t.Errorf("course facet = %+v", course)
	}
}

func TestCreateRecord_Lead(t *testing.T) {
	env := newTestEnv(t).withSchema(t)

	rr := env.do(t, http.MethodPost, "/tenants/acme/leads", applicant("Asha Rao", "asha@x.com", "98765 43210", "MBA"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d %s", rr.Code, rr.Body.String())
	}
	first := decodeBody[RecordResponse](t, rr)
	if !strings.HasPrefix(first.ID, "acme-LE-") {
		t.Errorf("id = %s", first.ID)
	}
	if first.ApplicantName != "Asha Rao" || first.Phone != "9876543210" || first.Email != "asha@x.com" {
		t.Errorf("identity = %+v", first)
	}
	if first.Address.City != "Pune" {
		t.Errorf("address = %+v", first.Address)
	}
	if !strings.Contains(first.SearchIndex, "course:mba") || first.Duplicate.IsDuplicate {
		t.Errorf("record = %+v", first)
	}

	rr = env.do(t, http.MethodPost, "/tenants/acme/lead", applicant("Asha R", "other@x.com", "9876543210", "BBA"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("soft duplicate must be stored: got %d", rr.Code)
	}
	second := decodeBody[RecordResponse](t, rr)
	if !second.Duplicate.IsDuplicate || !slices.Equal(second.Duplicate.MatchedIDs, []string{first.ID}) {
		t.Errorf("duplicate = %+v", second.Duplicate)
	}
}

func TestCreateRecord_ApplicationConflict(t *testing.T) {
	env := newTestEnv(t).withSchema(t)

	rr := env.do(t, http.MethodPost, "/tenants/acme/applications", applicant("Asha Rao", "asha@x.com", "1111111111", "MBA"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d %s", rr.Code, rr.Body.String())
	}
	first := decodeBody[RecordResponse](t, rr)

	rr = env.do(t, http.MethodPost, "/tenants/acme/applications", applicant("Ravi", "asha@x.com", "2222222222", "MBA"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("got %d", rr.Code)
	}
	resp := decodeBody[ErrorResponse](t, rr)
	if resp.Code != CodeDuplicate || !slices.Equal(resp.MatchedIDs, []string{first.ID}) {
		t.Errorf("got %+v", resp)
	}
}

func TestCreateRecord_EnquiryReturnsExisting(t *testing.T) {
	env := newTestEnv(t).withSchema(t)
	body := applicant("Asha Rao", "asha@x.com", "1111111111", "MBA")

	rr := env.do(t, http.MethodPost, "/tenants/acme/enquiries", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d %s", rr.Code, rr.Body.String())
	}
	first := decodeBody[RecordResponse](t, rr)

	rr = env.do(t, http.MethodPost, "/tenants/acme/enquiries", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("repeat enquiry: got %d", rr.Code)
	}
	again := decodeBody[RecordResponse](t, rr)
	if again.ID != first.ID || !again.Existing {
		t.Errorf("got %+v", again)
	}
}

func TestCreateRecord_Errors(t *testing.T) {
	env := newTestEnv(t).withSchema(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   ErrorCode
		field  string
	}{
		{
			name: "required field", path: "/tenants/acme/leads",
			body:   applicant("", "asha@x.com", "1", "MBA"),
			status: http.StatusBadRequest, code: CodeValidationFailed, field: "Full Name",
		},
		{
			name: "invalid option", path: "/tenants/acme/leads",
			body:   applicant("Asha", "asha@x.com", "1", "PhD"),
			status: http.StatusBadRequest, code: CodeValidationFailed, field: "Course",
		},
		{
			name: "unknown kind", path: "/tenants/acme/widgets",
			body:   applicant("Asha", "asha@x.com", "1", "MBA"),
			status: http.StatusNotFound, code: CodeNotFound,
		},
		{
			name: "no schema", path: "/tenants/globex/leads",
			body:   applicant("Asha", "asha@x.com", "1", "MBA"),
			status: http.StatusNotFound, code: CodeConfigurationMissing,
		},
		{
			name: "malformed body", path: "/tenants/acme/leads",
			body:   `{"sections": [`,
			status: http.StatusBadRequest, code: CodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, tt.path, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("got %d, want %d (%s)", rr.Code, tt.status, rr.Body.String())
			}
			resp := decodeBody[ErrorResponse](t, rr)
			if resp.Code != tt.code || resp.Field != tt.field {
				t.Errorf("got %+v", resp)
			}
		})
	}

	if len(env.records.records) != 0 {
		t.Errorf("failed submissions must not be stored, got %d", len(env.records.records))
	}
}

func TestGetAndEditRecord(t *testing.T) {
	env := newTestEnv(t).withSchema(t)

	rr := env.do(t, http.MethodPost, "/tenants/acme/leads", applicant("Asha Rao", "asha@x.com", "1111111111", "MBA"))
	created := decodeBody[RecordResponse](t, rr)

	rr = env.do(t, http.MethodGet, "/tenants/acme/leads/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: got %d", rr.Code)
	}
	if got := decodeBody[RecordResponse](t, rr); got.ID != created.ID || got.SearchIndex != created.SearchIndex {
		t.Errorf("get = %+v", got)
	}

	if rr = env.do(t, http.MethodGet, "/tenants/acme/applications/"+created.ID, nil); rr.Code != http.StatusNotFound {
		t.Errorf("wrong kind: got %d", rr.Code)
	}
	if rr = env.do(t, http.MethodGet, "/tenants/acme/leads/acme-LE-MISSING", nil); rr.Code != http.StatusNotFound {
		t.Errorf("missing: got %d", rr.Code)
	}

	rr = env.do(t, http.MethodPut, "/tenants/acme/leads/"+created.ID, applicant("Asha R. Rao", "asha@x.com", "1111111111", "BBA"))
	if rr.Code != http.StatusOK {
		t.Fatalf("edit: got %d %s", rr.Code, rr.Body.String())
	}
	edited := decodeBody[RecordResponse](t, rr)
	if edited.ID != created.ID || edited.ApplicantName != "Asha R. Rao" || edited.CreatedAt != created.CreatedAt {
		t.Errorf("edited = %+v", edited)
	}
	if !strings.Contains(edited.SearchIndex, "course:bba") {
		t.Errorf("index not rebuilt: %s", edited.SearchIndex)
	}

	if rr = env.do(t, http.MethodPut, "/tenants/acme/leads/nope", applicant("A", "a@x.com", "1", "MBA")); rr.Code != http.StatusNotFound {
		t.Errorf("edit missing: got %d", rr.Code)
	}
}

func TestSearchRecords(t *testing.T) {
	env := newTestEnv(t).withSchema(t)
	for i, course := range []string{"MBA", "BBA", "MBA"} {
		phone := strings.Repeat(string(rune('1'+i)), 10)
		rr := env.do(t, http.MethodPost, "/tenants/acme/leads", applicant("Lead", "l@x.com", phone, course))
		if rr.Code != http.StatusCreated {
			t.Fatalf("seed: %d", rr.Code)
		}
	}

	rr := env.do(t, http.MethodGet, "/tenants/acme/leads", nil)
	page := decodeBody[RecordListResponse](t, rr)
	if len(page.Records) != 2 || !page.HasMore || page.NextCursor == nil || *page.NextCursor != 2 || page.Total != 3 {
		t.Fatalf("first page = %+v", page)
	}

	rr = env.do(t, http.MethodGet, "/tenants/acme/leads?cursor=2", nil)
	page = decodeBody[RecordListResponse](t, rr)
	if len(page.Records) != 1 || page.HasMore || page.NextCursor != nil {
		t.Fatalf("second page = %+v", page)
	}

	rr = env.do(t, http.MethodGet, "/tenants/acme/leads?q=course:bba&limit=10", nil)
	page = decodeBody[RecordListResponse](t, rr)
	if len(page.Records) != 1 || page.Records[0].Phone != "2222222222" {
		t.Fatalf("filtered = %+v", page)
	}

	rr = env.do(t, http.MethodGet, "/tenants/acme/leads?limit=many", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: got %d", rr.Code)
	}
	if resp := decodeBody[ErrorResponse](t, rr); resp.Field != "limit" {
		t.Errorf("field = %q", resp.Field)
	}

	if rr = env.do(t, http.MethodGet, "/tenants/acme/leads?cursor=-1", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("negative cursor: got %d", rr.Code)
	}
}

func TestImportRecords(t *testing.T) {
	env := newTestEnv(t).withSchema(t)

	req := ImportRequest{Items: []SubmissionRequest{
		applicant("Asha", "asha@x.com", "1111111111", "MBA"),
		applicant("", "nobody@x.com", "3333333333", "MBA"),
		applicant("Asha again", "asha2@x.com", "1111111111", "BBA"),
	}}
	rr := env.do(t, http.MethodPost, "/tenants/acme/leads/import", req)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[ImportResponse](t, rr)

	var statuses []string
	for _, it := range resp.Items {
		statuses = append(statuses, it.Status)
	}
	if want := []string{"ok", "error", "duplicate"}; !slices.Equal(statuses, want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	if resp.Succeeded != 1 || resp.Duplicates != 1 || resp.Failed != 1 {
		t.Errorf("summary = %+v", resp)
	}
	if e := resp.Items[1].Error; e == nil || e.Code != CodeValidationFailed || e.Field != "Full Name" {
		t.Errorf("item error = %+v", e)
	}
	if resp.Items[0].ID == "" || resp.Items[2].ID == "" || resp.Items[1].ID != "" {
		t.Errorf("ids = %+v", resp.Items)
	}
}

func TestImportRecords_TooLarge(t *testing.T) {
	env := newTestEnv(t).withSchema(t)

	items := make([]SubmissionRequest, 6)
	for i := range items {
		items[i] = applicant("Asha", "asha@x.com", "1111111111", "MBA")
	}
	rr := env.do(t, http.MethodPost, "/tenants/acme/leads/import", ImportRequest{Items: items})
	resp := decodeBody[ImportResponse](t, rr)
	if resp.Failed != 6 || len(env.records.records) != 0 {
		t.Errorf("oversized batch must fail every item: %+v", resp)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		pingErr  error
		evalErr  error
		wantCode int
		status   string
	}{
		{"healthy", nil, nil, http.StatusOK, "ok"},
		{"scripting down", nil, errors.New("NOSCRIPT"), http.StatusServiceUnavailable, "degraded"},
		{"database down", errors.New("dial tcp"), nil, http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.pinger.err, env.scripts.err = tt.pingErr, tt.evalErr
			rr := env.do(t, http.MethodGet, "/health", nil)
			if rr.Code != tt.wantCode {
				t.Fatalf("got %d", rr.Code)
			}
			if body := decodeBody[map[string]any](t, rr); body["status"] != tt.status {
				t.Errorf("status = %v", body["status"])
			}
		})
	}
}

func TestSafeDomainMessage(t *testing.T) {
	if got := safeDomainMessage(errors.New("redis: connection refused at 10.0.0.1")); got != "internal error" {
		t.Errorf("internal details leaked: %q", got)
	}
}
