package schema

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/formdex/internal/domain"
	"github.com/kailas-cloud/formdex/internal/domain/schema/field"
)

// --- Upsert ---

func TestUpsert_RoundTrip(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	var stored map[string]string
	ms.evalIntsFn = func(_ context.Context, _ string, keys, args []string) ([]int64, error) {
		if keys[0] != "formdex:schema:acme" {
			t.Errorf("unexpected key: %s", keys[0])
		}
		if args[0] != "0" || args[1] != "acme" || args[3] != "1700000000000" {
			t.Errorf("unexpected args: %v", args)
		}
		stored = map[string]string{
			"tenant":     args[1],
			"sections":   args[2],
			"revision":   "4",
			"updated_at": args[3],
		}
		return []int64{1, 4}, nil
	}

	saved, err := repo.Upsert(ctx, testSchema(t), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Revision() != 4 || saved.UpdatedAt() != 1700000000000 {
		t.Errorf("unexpected saved schema: rev=%d updated=%d", saved.Revision(), saved.UpdatedAt())
	}

	ms.hgetAllCachedFn = func(_ context.Context, _ string, ttl time.Duration) (map[string]string, bool, error) {
		if ttl != DefaultCacheTTL {
			t.Errorf("ttl = %v", ttl)
		}
		return stored, true, nil
	}

	got, err := repo.Get(ctx, "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TenantID() != "acme" || got.Revision() != 4 {
		t.Errorf("unexpected schema: %s rev %d", got.TenantID(), got.Revision())
	}
	sec, ok := got.Section("personalDetails")
	if !ok {
		t.Fatal("section lost")
	}
	f, ok := sec.Field("fullName")
	if !ok || f.Label() != "Full Name" || !f.IsRequired() || f.MaxLength() != 80 || f.FieldType() != field.Text {
		t.Errorf("fullName not preserved: %+v", f)
	}
	g, _ := sec.Field("gender")
	if !g.HasOption("Female") || g.IsRequired() {
		t.Errorf("gender not preserved: %+v", g)
	}
}

func TestUpsert_RevisionConflict(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.evalIntsFn = func(_ context.Context, _ string, _, args []string) ([]int64, error) {
		if args[0] != "2" {
			t.Errorf("expected revision arg 2, got %s", args[0])
		}
		return []int64{0, 3}, nil
	}

	_, err := repo.Upsert(context.Background(), testSchema(t), 2)
	var rc *domain.RevisionConflictError
	if !errors.As(err, &rc) {
		t.Fatalf("expected RevisionConflictError, got %v", err)
	}
	if rc.CurrentRevision != 3 {
		t.Errorf("CurrentRevision = %d", rc.CurrentRevision)
	}
}

func TestUpsert_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.evalIntsFn = func(context.Context, string, []string, []string) ([]int64, error) {
		return nil, errors.New("connection lost")
	}
	if _, err := repo.Upsert(context.Background(), testSchema(t), 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestUpsert_MalformedReply(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.evalIntsFn = func(context.Context, string, []string, []string) ([]int64, error) {
		return []int64{1}, nil
	}
	if _, err := repo.Upsert(context.Background(), testSchema(t), 0); err == nil {
		t.Fatal("expected error on short reply")
	}
}

// --- Get ---

func TestGet_Missing(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Get(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
}

func TestGet_CorruptSections(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllCachedFn = func(context.Context, string, time.Duration) (map[string]string, bool, error) {
		return map[string]string{"tenant": "acme", "sections": "{", "revision": "1"}, false, nil
	}
	if _, err := repo.Get(context.Background(), "acme"); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestWithCacheTTL(t *testing.T) {
	repo, ms := newTestRepo(t)
	repo.WithCacheTTL(time.Minute).WithCacheTTL(0)

	ms.hgetAllCachedFn = func(_ context.Context, _ string, ttl time.Duration) (map[string]string, bool, error) {
		if ttl != time.Minute {
			t.Errorf("ttl = %v, want 1m", ttl)
		}
		return nil, false, nil
	}
	_, _ = repo.Get(context.Background(), "acme")
}

// --- Delete ---

func TestDelete(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Delete(ctx, "acme"); !errors.Is(err, domain.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}

	var deleted string
	ms.existsFn = func(context.Context, string) (bool, error) { return true, nil }
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}
	if err := repo.Delete(ctx, "acme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "formdex:schema:acme" {
		t.Errorf("deleted %q", deleted)
	}
}
