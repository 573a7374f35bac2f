package schema

import (
	"context"
	"testing"
	"time"

	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
	"github.com/kailas-cloud/formdex/internal/domain/schema/field"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hgetAllCachedFn func(ctx context.Context, key string, ttl time.Duration) (map[string]string, bool, error)
	evalIntsFn      func(ctx context.Context, script string, keys, args []string) ([]int64, error)
	delFn           func(ctx context.Context, key string) error
	existsFn        func(ctx context.Context, key string) (bool, error)
}

func (m *mockStore) HGetAllCached(ctx context.Context, key string, ttl time.Duration) (map[string]string, bool, error) {
	if m.hgetAllCachedFn != nil {
		return m.hgetAllCachedFn(ctx, key, ttl)
	}
	return map[string]string{}, false, nil
}

func (m *mockStore) EvalInts(ctx context.Context, script string, keys, args []string) ([]int64, error) {
	if m.evalIntsFn != nil {
		return m.evalIntsFn(ctx, script, keys, args)
	}
	return []int64{1, 1}, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	repo.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return repo, ms
}

func testSchema(t *testing.T) domschema.Schema {
	t.Helper()
	name, err := field.New("fullName", field.Text, field.WithLabel("Full Name"), field.Required(), field.WithMaxLength(80))
	if err != nil {
		t.Fatal(err)
	}
	gender, err := field.New("gender", field.Radio, field.WithOptions("Male", "Female"))
	if err != nil {
		t.Fatal(err)
	}
	sec, err := domschema.NewSection(domschema.SectionPersonal, []field.Field{name, gender})
	if err != nil {
		t.Fatal(err)
	}
	sch, err := domschema.New("acme", []domschema.Section{sec})
	if err != nil {
		t.Fatal(err)
	}
	return sch
}
