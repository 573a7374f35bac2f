package record

import (
	"encoding/json"
	"fmt"

	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/domain/value"
)

// recordRow is the JSON document stored per record.
type recordRow struct {
	ID          string       `json:"id"`
	Tenant      string       `json:"tenant"`
	Kind        string       `json:"kind"`
	Sections    []sectionRow `json:"sections"`
	Identity    identityRow  `json:"identity"`
	SearchIndex string       `json:"search_index"`
	Duplicate   duplicateRow `json:"duplicate"`
	// Claims are the uniqueness keys this record holds; released on update.
	Claims    []identRow `json:"claims,omitempty"`
	CreatedAt int64      `json:"created_at"`
	UpdatedAt int64      `json:"updated_at"`
}

type sectionRow struct {
	Name    string     `json:"name"`
	Entries []entryRow `json:"entries"`
}

type entryRow struct {
	Name  string      `json:"name"`
	Value value.Value `json:"value"`
}

type identityRow struct {
	ApplicantName string `json:"applicant_name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Country       string `json:"country,omitempty"`
	State         string `json:"state,omitempty"`
	City          string `json:"city,omitempty"`
}

type duplicateRow struct {
	IsDuplicate bool     `json:"is_duplicate"`
	Reason      string   `json:"reason,omitempty"`
	MatchedIDs  []string `json:"matched_ids,omitempty"`
}

type identRow struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func marshalRecord(rec domsub.Record, claims []domsub.Identifier) ([]byte, error) {
	row := recordRow{
		ID:          rec.ID(),
		Tenant:      rec.TenantID(),
		Kind:        string(rec.Kind()),
		Sections:    make([]sectionRow, len(rec.Sections())),
		SearchIndex: rec.SearchIndex(),
		Identity: identityRow{
			ApplicantName: rec.ApplicantName(),
			Email:         rec.Email(),
			Phone:         rec.Phone(),
			Country:       rec.Address().Country,
			State:         rec.Address().State,
			City:          rec.Address().City,
		},
		Duplicate: duplicateRow{
			IsDuplicate: rec.Duplicate().IsDuplicate,
			Reason:      rec.Duplicate().Reason,
			MatchedIDs:  rec.Duplicate().MatchedIDs,
		},
		Claims:    toIdentRows(claims),
		CreatedAt: rec.CreatedAt(),
		UpdatedAt: rec.UpdatedAt(),
	}
	for i, sec := range rec.Sections() {
		entries := make([]entryRow, len(sec.Entries()))
		for j, e := range sec.Entries() {
			entries[j] = entryRow{Name: e.Name, Value: e.Value}
		}
		row.Sections[i] = sectionRow{Name: sec.Name(), Entries: entries}
	}

	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

// unmarshalRecord hydrates a domain Record and the claims it holds.
func unmarshalRecord(data []byte) (domsub.Record, []domsub.Identifier, error) {
	var row recordRow
	if err := json.Unmarshal(data, &row); err != nil {
		return domsub.Record{}, nil, fmt.Errorf("unmarshal record: %w", err)
	}

	sections := make([]domsub.Section, len(row.Sections))
	for i, s := range row.Sections {
		entries := make([]domsub.Entry, len(s.Entries))
		for j, e := range s.Entries {
			entries[j] = domsub.Entry{Name: e.Name, Value: e.Value}
		}
		sections[i] = domsub.NewSection(s.Name, entries)
	}

	identity := domsub.Identity{
		ApplicantName: row.Identity.ApplicantName,
		Email:         row.Identity.Email,
		Phone:         row.Identity.Phone,
		Address: domsub.Address{
			Country: row.Identity.Country,
			State:   row.Identity.State,
			City:    row.Identity.City,
		},
	}
	dup := domsub.DuplicateFlag{
		IsDuplicate: row.Duplicate.IsDuplicate,
		Reason:      row.Duplicate.Reason,
		MatchedIDs:  row.Duplicate.MatchedIDs,
	}

	rec := domsub.Reconstruct(
		row.ID, row.Tenant, domsub.Kind(row.Kind), sections, identity,
		row.SearchIndex, dup, row.CreatedAt, row.UpdatedAt,
	)
	return rec, fromIdentRows(row.Claims), nil
}

func toIdentRows(idents []domsub.Identifier) []identRow {
	if len(idents) == 0 {
		return nil
	}
	rows := make([]identRow, len(idents))
	for i, id := range idents {
		rows[i] = identRow{Kind: string(id.Kind), Value: id.Value}
	}
	return rows
}

func fromIdentRows(rows []identRow) []domsub.Identifier {
	if len(rows) == 0 {
		return nil
	}
	idents := make([]domsub.Identifier, len(rows))
	for i, r := range rows {
		idents[i] = domsub.Identifier{Kind: domsub.IdentifierKind(r.Kind), Value: r.Value}
	}
	return idents
}
