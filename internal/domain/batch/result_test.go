package batch

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK(3, "acme-LE-0A1B2C")
	if r.ID() != "acme-LE-0A1B2C" || r.Index() != 3 {
		t.Errorf("ID() = %q, Index() = %d", r.ID(), r.Index())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewDuplicate(t *testing.T) {
	r := NewDuplicate(0, "acme-ENQ-FFFFFF")
	if r.Status() != StatusDuplicate || r.ID() != "acme-ENQ-FFFFFF" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError(1, err)
	if r.ID() != "" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}
