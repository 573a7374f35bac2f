package schema

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/formdex/internal/domain"
	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
	"github.com/kailas-cloud/formdex/internal/metrics"
)

// upsertScript replaces the schema hash and bumps its revision atomically.
// ARGV: expected revision (0 = unconditional), tenant, sections JSON, updated_at.
// Returns {1, new revision} on success or {0, current revision} on mismatch.
const upsertScript = `
local cur = tonumber(redis.call('HGET', KEYS[1], 'revision') or '0')
local expected = tonumber(ARGV[1])
if expected > 0 and cur ~= expected then
  return {0, cur}
end
local rev = cur + 1
redis.call('HSET', KEYS[1], 'tenant', ARGV[2], 'sections', ARGV[3], 'revision', rev, 'updated_at', ARGV[4])
return {1, rev}
`

// DefaultCacheTTL bounds how long a schema may be served from the client-side cache.
const DefaultCacheTTL = 30 * time.Second

// store is the consumer interface for schemas (ISP).
type store interface {
	HGetAllCached(ctx context.Context, key string, ttl time.Duration) (map[string]string, bool, error)
	EvalInts(ctx context.Context, script string, keys, args []string) ([]int64, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo implements usecase/schema.Repository and usecase/submission.SchemaReader.
type Repo struct {
	store    store
	cacheTTL time.Duration
	now      func() time.Time
}

// New creates a schema repository.
func New(s store) *Repo {
	return &Repo{store: s, cacheTTL: DefaultCacheTTL, now: time.Now}
}

// WithCacheTTL overrides the client-side cache TTL for schema reads.
func (r *Repo) WithCacheTTL(ttl time.Duration) *Repo {
	if ttl > 0 {
		r.cacheTTL = ttl
	}
	return r
}

// Get returns the tenant's schema or domain.ErrConfigurationMissing.
func (r *Repo) Get(ctx context.Context, tenantID string) (domschema.Schema, error) {
	m, hit, err := r.store.HGetAllCached(ctx, schemaKey(tenantID), r.cacheTTL)
	if err != nil {
		return domschema.Schema{}, fmt.Errorf("hgetall schema %s: %w", tenantID, err)
	}
	if hit {
		metrics.SchemaCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.SchemaCacheTotal.WithLabelValues("miss").Inc()
	}
	if len(m) == 0 {
		return domschema.Schema{}, domain.ErrConfigurationMissing
	}
	return schemaFromHash(m)
}

// Upsert stores s, replacing any previous schema of the tenant.
// A positive expectedRevision turns the write into a compare-and-set.
func (r *Repo) Upsert(ctx context.Context, s domschema.Schema, expectedRevision int) (domschema.Schema, error) {
	sections, err := marshalSections(s.Sections())
	if err != nil {
		return domschema.Schema{}, err
	}
	updatedAt := r.now().UnixMilli()

	res, err := r.store.EvalInts(ctx, upsertScript,
		[]string{schemaKey(s.TenantID())},
		[]string{
			strconv.Itoa(expectedRevision),
			s.TenantID(),
			sections,
			strconv.FormatInt(updatedAt, 10),
		},
	)
	if err != nil {
		return domschema.Schema{}, fmt.Errorf("eval upsert schema %s: %w", s.TenantID(), err)
	}
	if len(res) != 2 {
		return domschema.Schema{}, fmt.Errorf("upsert schema %s: unexpected reply %v", s.TenantID(), res)
	}
	if res[0] == 0 {
		return domschema.Schema{}, domain.NewRevisionConflict(int(res[1]))
	}
	return s.WithRevision(int(res[1]), updatedAt), nil
}

// Delete removes the tenant's schema. Stored records are kept.
func (r *Repo) Delete(ctx context.Context, tenantID string) error {
	key := schemaKey(tenantID)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return domain.ErrConfigurationMissing
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del schema %s: %w", tenantID, err)
	}
	return nil
}

// Key pattern: formdex:schema:{tenant}

func schemaKey(tenantID string) string {
	return domain.KeyPrefix + "schema:" + tenantID
}
