package address

import (
	"testing"

	"github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/domain/value"
)

func TestNameMatcher_FirstMatchWins(t *testing.T) {
	sections := []submission.Section{
		submission.NewSection("personalDetails", []submission.Entry{
			{Name: "Full Name", Value: value.String("Alice")},
			{Name: "Permanent City", Value: value.String(" Chennai ")},
			{Name: "Home State", Value: value.String("")},
		}),
		submission.NewSection("educationDetails", []submission.Entry{
			{Name: "College City", Value: value.String("Madurai")},
			{Name: "STATE", Value: value.String("Tamil Nadu")},
			{Name: "Country", Value: value.String("India")},
		}),
	}

	got := NameMatcher{}.Extract(sections)
	want := submission.Address{Country: "India", State: "Tamil Nadu", City: "Chennai"}
	if got != want {
		t.Errorf("Extract() = %+v, want %+v", got, want)
	}
}

func TestNameMatcher_BlankDoesNotClaim(t *testing.T) {
	got := NameMatcher{}.Extract([]submission.Section{
		submission.NewSection("s", []submission.Entry{
			{Name: "Current City", Value: value.String("   ")},
			{Name: "Country", Value: value.List()},
			{Name: "Native City", Value: value.String("Kochi")},
		}),
	})
	if got.City != "Kochi" || got.Country != "" {
		t.Errorf("Extract() = %+v", got)
	}
}

func TestNameMatcher_NoMatches(t *testing.T) {
	got := NameMatcher{}.Extract([]submission.Section{
		submission.NewSection("s", []submission.Entry{{Name: "Email", Value: value.String("a@b.c")}}),
	})
	if !got.IsZero() {
		t.Errorf("expected zero address, got %+v", got)
	}
}

func TestNameContains(t *testing.T) {
	if !NameContains("Mobile Phone", "phone") {
		t.Error("expected case-insensitive match")
	}
	if NameContains("Email", "phone") {
		t.Error("unexpected match")
	}
}
