package chi

import (
	"net/http"

	"go.uber.org/zap"

	dombatch "github.com/kailas-cloud/formdex/internal/domain/batch"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/domain/value"
	"github.com/kailas-cloud/formdex/internal/logger"
	"github.com/kailas-cloud/formdex/internal/usecase/submission"
)

// RawSectionDTO is one section of a submission body.
type RawSectionDTO struct {
	Name   string         `json:"name"`
	Fields map[string]any `json:"fields"`
}

// FileRefDTO points an uploaded file at a section field.
type FileRefDTO struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Name    string `json:"name"`
	Path    string `json:"path"`
}

// SubmissionRequest is the body of a create or edit request.
type SubmissionRequest struct {
	Sections []RawSectionDTO `json:"sections"`
	Files    []FileRefDTO    `json:"files,omitempty"`
}

// ImportRequest is the body of POST /tenants/{tenant}/{kind}/import.
type ImportRequest struct {
	Items []SubmissionRequest `json:"items"`
}

// EntryDTO is one field value of a stored record.
type EntryDTO struct {
	Name  string      `json:"name"`
	Value value.Value `json:"value"`
}

// RecordSectionDTO is one canonical section of a stored record.
type RecordSectionDTO struct {
	Name   string     `json:"name"`
	Fields []EntryDTO `json:"fields"`
}

// AddressDTO is the derived address of a record.
type AddressDTO struct {
	Country string `json:"country,omitempty"`
	State   string `json:"state,omitempty"`
	City    string `json:"city,omitempty"`
}

// DuplicateDTO is the duplicate flag of a record.
type DuplicateDTO struct {
	IsDuplicate bool     `json:"is_duplicate"`
	Reason      string   `json:"reason,omitempty"`
	MatchedIDs  []string `json:"matched_ids,omitempty"`
}

// RecordResponse describes a stored record.
type RecordResponse struct {
	ID            string             `json:"id"`
	Tenant        string             `json:"tenant"`
	Kind          string             `json:"kind"`
	Sections      []RecordSectionDTO `json:"sections"`
	ApplicantName string             `json:"applicant_name"`
	Email         string             `json:"email,omitempty"`
	Phone         string             `json:"phone,omitempty"`
	Address       AddressDTO         `json:"address"`
	SearchIndex   string             `json:"search_index"`
	Duplicate     DuplicateDTO       `json:"duplicate"`
	Existing      bool               `json:"existing,omitempty"`
	CreatedAt     int64              `json:"created_at"`
	UpdatedAt     int64              `json:"updated_at"`
}

// RecordListResponse is one page of a record listing.
type RecordListResponse struct {
	Records    []RecordResponse `json:"records"`
	Total      int64            `json:"total"`
	NextCursor *int64           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

// ImportItemResponse is the outcome of one imported item.
type ImportItemResponse struct {
	Index  int            `json:"index"`
	ID     string         `json:"id,omitempty"`
	Status string         `json:"status"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// ImportResponse summarizes an import.
type ImportResponse struct {
	Items      []ImportItemResponse `json:"items"`
	Succeeded  int                  `json:"succeeded"`
	Duplicates int                  `json:"duplicates"`
	Failed     int                  `json:"failed"`
}

// CreateRecord handles POST /tenants/{tenant}/{kind}.
// A repeated enquiry answers 200 with the existing record instead of 201.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	r, tenant, kind, ok := s.scope(w, r)
	if !ok {
		return
	}

	var body SubmissionRequest
	if !s.decode(w, r, &body) {
		return
	}

	res, err := s.intake.Create(r.Context(), inputFromDTO(tenant, kind, body))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Existing {
		status = http.StatusOK
	}
	resp := recordToResponse(res.Record)
	resp.Existing = res.Existing
	writeJSON(w, status, resp)
}

// EditRecord handles PUT /tenants/{tenant}/{kind}/{id}.
func (s *Server) EditRecord(w http.ResponseWriter, r *http.Request) {
	r, tenant, kind, ok := s.scope(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var body SubmissionRequest
	if !s.decode(w, r, &body) {
		return
	}

	rec, err := s.intake.Edit(r.Context(), id, inputFromDTO(tenant, kind, body))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// GetRecord handles GET /tenants/{tenant}/{kind}/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	r, tenant, kind, ok := s.scope(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	rec, err := s.intake.Get(r.Context(), tenant, kind, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// SearchRecords handles GET /tenants/{tenant}/{kind}?q=&limit=&cursor=.
func (s *Server) SearchRecords(w http.ResponseWriter, r *http.Request) {
	r, tenant, kind, ok := s.scope(w, r)
	if !ok {
		return
	}
	params, err := searchParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var (
		q      string
		limit  int
		cursor int64
	)
	if params.Q != nil {
		q = *params.Q
	}
	if params.Limit != nil {
		limit = *params.Limit
	}
	if params.Cursor != nil {
		cursor = *params.Cursor
	}

	page, err := s.intake.Search(r.Context(), tenant, kind, q, cursor, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := RecordListResponse{
		Records: make([]RecordResponse, 0, len(page.Records)),
		Total:   page.Total,
		HasMore: page.HasMore,
	}
	for _, rec := range page.Records {
		resp.Records = append(resp.Records, recordToResponse(rec))
	}
	if page.HasMore {
		next := page.NextCursor
		resp.NextCursor = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// ImportRecords handles POST /tenants/{tenant}/{kind}/import.
// Items succeed or fail independently; the response is 200 unless the request itself is malformed.
func (s *Server) ImportRecords(w http.ResponseWriter, r *http.Request) {
	r, tenant, kind, ok := s.scope(w, r)
	if !ok {
		return
	}

	var body ImportRequest
	if !s.decode(w, r, &body) {
		return
	}

	items := make([]submission.Input, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, inputFromDTO(tenant, kind, it))
	}

	results := s.batch.Import(r.Context(), kind, items)

	resp := ImportResponse{Items: make([]ImportItemResponse, 0, len(results))}
	for _, res := range results {
		item := ImportItemResponse{Index: res.Index(), ID: res.ID(), Status: string(res.Status())}
		switch res.Status() {
		case dombatch.StatusOK:
			resp.Succeeded++
		case dombatch.StatusDuplicate:
			resp.Duplicates++
		case dombatch.StatusError:
			resp.Failed++
			body := errorBody(res.Err())
			item.Error = &body
		}
		resp.Items = append(resp.Items, item)
	}

	logger.FromContext(r.Context()).Info("Import processed",
		zap.String("tenant", tenant),
		zap.String("kind", string(kind)),
		zap.Int("items", len(items)),
		zap.Int("failed", resp.Failed),
	)
	writeJSON(w, http.StatusOK, resp)
}

// scope binds tenant and kind, and returns the request with its logger tagged by them.
func (s *Server) scope(w http.ResponseWriter, r *http.Request) (*http.Request, string, domsub.Kind, bool) {
	tenant, err := tenantParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return r, "", "", false
	}
	kind, err := kindParam(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return r, "", "", false
	}
	ctx := logger.With(r.Context(), zap.String("tenant", tenant), zap.String("kind", string(kind)))
	return r.WithContext(ctx), tenant, kind, true
}

func inputFromDTO(tenant string, kind domsub.Kind, body SubmissionRequest) submission.Input {
	in := submission.Input{TenantID: tenant, Kind: kind}
	for _, sec := range body.Sections {
		in.Sections = append(in.Sections, domsub.RawSection{Name: sec.Name, Fields: sec.Fields})
	}
	for _, f := range body.Files {
		in.Files = append(in.Files, domsub.FileRef{Section: f.Section, Field: f.Field, Name: f.Name, Path: f.Path})
	}
	return in
}

func recordToResponse(rec domsub.Record) RecordResponse {
	sections := make([]RecordSectionDTO, 0, len(rec.Sections()))
	for _, sec := range rec.Sections() {
		entries := make([]EntryDTO, 0, len(sec.Entries()))
		for _, e := range sec.Entries() {
			entries = append(entries, EntryDTO{Name: e.Name, Value: e.Value})
		}
		sections = append(sections, RecordSectionDTO{Name: sec.Name(), Fields: entries})
	}
	addr := rec.Address()
	dup := rec.Duplicate()
	return RecordResponse{
		ID:            rec.ID(),
		Tenant:        rec.TenantID(),
		Kind:          string(rec.Kind()),
		Sections:      sections,
		ApplicantName: rec.ApplicantName(),
		Email:         rec.Email(),
		Phone:         rec.Phone(),
		Address:       AddressDTO{Country: addr.Country, State: addr.State, City: addr.City},
		SearchIndex:   rec.SearchIndex(),
		Duplicate: DuplicateDTO{
			IsDuplicate: dup.IsDuplicate,
			Reason:      dup.Reason,
			MatchedIDs:  dup.MatchedIDs,
		},
		CreatedAt: rec.CreatedAt(),
		UpdatedAt: rec.UpdatedAt(),
	}
}
