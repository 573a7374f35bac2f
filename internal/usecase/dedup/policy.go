package dedup

import (
	"fmt"
	"strings"

	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
)

// Operation distinguishes a new submission from an edit of an existing record.
type Operation int

// Operations.
const (
	OpCreate Operation = iota
	OpEdit
)

// MatchMode combines per-identifier matches.
type MatchMode int

// Match modes.
const (
	// MatchAny matches records sharing at least one identifier.
	MatchAny MatchMode = iota
	// MatchAll matches records sharing every identifier.
	MatchAll
)

// Action is the effect of a duplicate decision.
type Action string

// Actions.
const (
	ActionNone     Action = "none"
	ActionFlag     Action = "flag"
	ActionReject   Action = "reject"
	ActionExisting Action = "existing"
)

// Decision is the outcome of duplicate detection for one record.
type Decision struct {
	Action     Action
	Flag       domsub.DuplicateFlag
	MatchedIDs []string
	// ExistingID is set for ActionExisting: the record to return instead of creating one.
	ExistingID string
}

// Policy is the per-kind duplicate strategy. Matching itself is kind-agnostic.
type Policy interface {
	Identifiers(id domsub.Identity) []domsub.Identifier
	Mode() MatchMode
	Decide(matched []string, op Operation) Decision
	// Claims returns the identifiers storage must hold unique for this kind.
	Claims(id domsub.Identity) []domsub.Identifier
}

func phoneOnly(id domsub.Identity) []domsub.Identifier {
	if id.Phone == "" {
		return nil
	}
	return []domsub.Identifier{{Kind: domsub.IdentPhone, Value: id.Phone}}
}

// LeadPolicy flags leads sharing a phone number but still stores them.
type LeadPolicy struct{}

// Identifiers implements Policy.
func (LeadPolicy) Identifiers(id domsub.Identity) []domsub.Identifier { return phoneOnly(id) }

// Mode implements Policy.
func (LeadPolicy) Mode() MatchMode { return MatchAny }

// Claims implements Policy. Leads accept concurrent duplicates.
func (LeadPolicy) Claims(domsub.Identity) []domsub.Identifier { return nil }

// Decide implements Policy. No match clears the flag.
func (LeadPolicy) Decide(matched []string, op Operation) Decision {
	if len(matched) == 0 {
		return Decision{Action: ActionNone, Flag: domsub.Clear}
	}
	return Decision{
		Action:     ActionFlag,
		MatchedIDs: matched,
		Flag: domsub.DuplicateFlag{
			IsDuplicate: true,
			Reason:      leadReason(matched, op),
			MatchedIDs:  matched,
		},
	}
}

func leadReason(matched []string, op Operation) string {
	ids := strings.Join(matched, ", ")
	if op == OpEdit {
		return "Phone number already exists in lead(s): " + ids
	}
	plural := ""
	if len(matched) > 1 {
		plural = "s"
	}
	return fmt.Sprintf(
		"A lead with this phone number already exists (%d duplicate%s). Existing Lead IDs: %s. Please review before follow-up.",
		len(matched), plural, ids,
	)
}

// ApplicationPolicy rejects applications sharing a phone or an email.
type ApplicationPolicy struct{}

// Identifiers implements Policy.
func (ApplicationPolicy) Identifiers(id domsub.Identity) []domsub.Identifier {
	return id.Identifiers()
}

// Mode implements Policy.
func (ApplicationPolicy) Mode() MatchMode { return MatchAny }

// Claims implements Policy.
func (ApplicationPolicy) Claims(id domsub.Identity) []domsub.Identifier { return id.Identifiers() }

// Decide implements Policy.
func (ApplicationPolicy) Decide(matched []string, _ Operation) Decision {
	if len(matched) == 0 {
		return Decision{Action: ActionNone, Flag: domsub.Clear}
	}
	return Decision{Action: ActionReject, MatchedIDs: matched}
}

// EnquiryPolicy resolves a repeated enquiry (same phone and email) to the existing record.
// An edit that collides with another enquiry is rejected.
type EnquiryPolicy struct{}

// Identifiers implements Policy.
func (EnquiryPolicy) Identifiers(id domsub.Identity) []domsub.Identifier {
	return id.Identifiers()
}

// Mode implements Policy.
func (EnquiryPolicy) Mode() MatchMode { return MatchAll }

// Claims implements Policy.
func (EnquiryPolicy) Claims(id domsub.Identity) []domsub.Identifier {
	if j, ok := id.Joint(); ok {
		return []domsub.Identifier{j}
	}
	return nil
}

// Decide implements Policy.
func (EnquiryPolicy) Decide(matched []string, op Operation) Decision {
	if len(matched) == 0 {
		return Decision{Action: ActionNone, Flag: domsub.Clear}
	}
	if op == OpEdit {
		return Decision{Action: ActionReject, MatchedIDs: matched}
	}
	return Decision{Action: ActionExisting, MatchedIDs: matched, ExistingID: matched[0]}
}

// DefaultPolicies returns the policy table keyed by entity kind.
func DefaultPolicies() map[domsub.Kind]Policy {
	return map[domsub.Kind]Policy{
		domsub.KindLead:        LeadPolicy{},
		domsub.KindApplication: ApplicationPolicy{},
		domsub.KindEnquiry:     EnquiryPolicy{},
	}
}
