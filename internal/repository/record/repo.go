package record

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/formdex/internal/db"
	"github.com/kailas-cloud/formdex/internal/domain"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/logger"
)

// scanChunk is the number of records fetched per round-trip while filtering.
const scanChunk = 100

// store is the consumer interface for records (ISP).
//
//nolint:interfacebloat // record repo needs kv + sorted set operations
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Del(ctx context.Context, key string) error
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRem(ctx context.Context, key string, members ...string) error
	ZCard(ctx context.Context, key string) (int64, error)
}

// Repo stores records as JSON documents with sorted-set indexes per kind and identifier.
// Implements dedup.Finder.
type Repo struct {
	store store
}

// New creates a record repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores a new record. claims are acquired first; if any is held by
// another record, nothing is written and a *domain.ConflictError names the holder.
// A taken id yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, rec domsub.Record, claims []domsub.Identifier) error {
	if err := r.acquire(ctx, rec, claims); err != nil {
		return err
	}

	data, err := marshalRecord(rec, claims)
	if err != nil {
		r.release(ctx, rec, claims)
		return err
	}
	ok, err := r.store.SetNX(ctx, recordKey(rec.TenantID(), rec.ID()), data)
	if err != nil || !ok {
		r.release(ctx, rec, claims)
		if err != nil {
			return fmt.Errorf("set record %s: %w", rec.ID(), err)
		}
		return fmt.Errorf("record %s: %w", rec.ID(), domain.ErrAlreadyExists)
	}

	score := float64(rec.CreatedAt())
	if err := r.store.ZAdd(ctx, kindKey(rec.TenantID(), rec.Kind()), score, rec.ID()); err != nil {
		r.unwind(ctx, rec, claims, nil)
		return fmt.Errorf("zadd record %s: %w", rec.ID(), err)
	}
	var indexed []domsub.Identifier
	for _, ident := range rec.Identity().Identifiers() {
		if err := r.store.ZAdd(ctx, identKey(rec.TenantID(), rec.Kind(), ident), score, rec.ID()); err != nil {
			r.unwind(ctx, rec, claims, indexed)
			return fmt.Errorf("zadd %s identifier: %w", ident.Kind, err)
		}
		indexed = append(indexed, ident)
	}
	return nil
}

// unwind removes a partially created record: its identifier entries, its
// kind entry, the document and its claims. Failures are logged, not returned.
func (r *Repo) unwind(ctx context.Context, rec domsub.Record, claims, indexed []domsub.Identifier) {
	log := logger.FromContext(ctx)
	for _, ident := range indexed {
		if err := r.store.ZRem(ctx, identKey(rec.TenantID(), rec.Kind(), ident), rec.ID()); err != nil {
			log.Warn("Failed to unindex identifier", zap.String("record_id", rec.ID()), zap.Error(err))
		}
	}
	if err := r.store.ZRem(ctx, kindKey(rec.TenantID(), rec.Kind()), rec.ID()); err != nil {
		log.Warn("Failed to unindex record", zap.String("record_id", rec.ID()), zap.Error(err))
	}
	if err := r.store.Del(ctx, recordKey(rec.TenantID(), rec.ID())); err != nil {
		log.Warn("Failed to remove partial record", zap.String("record_id", rec.ID()), zap.Error(err))
	}
	r.release(ctx, rec, claims)
}

// Update replaces a stored record, moving its identifier index entries and
// claims to the new identity. Claims no longer needed are released.
func (r *Repo) Update(ctx context.Context, rec domsub.Record, claims []domsub.Identifier) error {
	prev, prevClaims, err := r.load(ctx, rec.TenantID(), rec.ID())
	if err != nil {
		return err
	}

	if err := r.acquire(ctx, rec, claims); err != nil {
		return err
	}
	added := slices.DeleteFunc(slices.Clone(claims), func(c domsub.Identifier) bool {
		return slices.Contains(prevClaims, c)
	})

	data, err := marshalRecord(rec, claims)
	if err != nil {
		r.release(ctx, rec, added)
		return err
	}
	if err := r.store.Set(ctx, recordKey(rec.TenantID(), rec.ID()), data); err != nil {
		r.release(ctx, rec, added)
		return fmt.Errorf("set record %s: %w", rec.ID(), err)
	}

	oldIdents := prev.Identity().Identifiers()
	newIdents := rec.Identity().Identifiers()
	for _, ident := range oldIdents {
		if slices.Contains(newIdents, ident) {
			continue
		}
		if err := r.store.ZRem(ctx, identKey(rec.TenantID(), rec.Kind(), ident), rec.ID()); err != nil {
			return fmt.Errorf("zrem %s identifier: %w", ident.Kind, err)
		}
	}
	for _, ident := range newIdents {
		if slices.Contains(oldIdents, ident) {
			continue
		}
		key := identKey(rec.TenantID(), rec.Kind(), ident)
		if err := r.store.ZAdd(ctx, key, float64(prev.CreatedAt()), rec.ID()); err != nil {
			return fmt.Errorf("zadd %s identifier: %w", ident.Kind, err)
		}
	}

	stale := slices.DeleteFunc(slices.Clone(prevClaims), func(c domsub.Identifier) bool {
		return slices.Contains(claims, c)
	})
	r.release(ctx, rec, stale)
	return nil
}

// Get returns a record by id or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, tenantID, id string) (domsub.Record, error) {
	rec, _, err := r.load(ctx, tenantID, id)
	return rec, err
}

// FindByIdentifier returns ids of records of kind holding ident, oldest first.
func (r *Repo) FindByIdentifier(
	ctx context.Context, tenantID string, kind domsub.Kind, ident domsub.Identifier, excludeID string,
) ([]string, error) {
	ids, err := r.store.ZRange(ctx, identKey(tenantID, kind, ident), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("zrange %s identifier: %w", ident.Kind, err)
	}
	return slices.DeleteFunc(ids, func(id string) bool { return id == excludeID }), nil
}

// Scan walks the records of a kind oldest first from cursor, collecting up to
// limit records accepted by match. A nil match accepts every record.
func (r *Repo) Scan(
	ctx context.Context, tenantID string, kind domsub.Kind,
	cursor int64, limit int, match func(domsub.Record) bool,
) (domsub.Page, error) {
	key := kindKey(tenantID, kind)
	total, err := r.store.ZCard(ctx, key)
	if err != nil {
		return domsub.Page{}, fmt.Errorf("zcard %s: %w", kind, err)
	}

	page := domsub.Page{Total: total, Records: make([]domsub.Record, 0, limit)}
	pos := max(cursor, 0)
	for pos < total && len(page.Records) < limit {
		chunk := int64(scanChunk)
		if match == nil {
			chunk = int64(limit - len(page.Records))
		}
		ids, err := r.store.ZRange(ctx, key, pos, pos+chunk-1)
		if err != nil {
			return domsub.Page{}, fmt.Errorf("zrange %s: %w", kind, err)
		}
		if len(ids) == 0 {
			break
		}

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = recordKey(tenantID, id)
		}
		docs, err := r.store.MGet(ctx, keys)
		if err != nil {
			return domsub.Page{}, fmt.Errorf("mget %s: %w", kind, err)
		}

		for _, doc := range docs {
			pos++
			if doc == nil {
				continue
			}
			rec, _, err := unmarshalRecord(doc)
			if err != nil {
				return domsub.Page{}, err
			}
			if match != nil && !match(rec) {
				continue
			}
			page.Records = append(page.Records, rec)
			if len(page.Records) == limit {
				break
			}
		}
	}

	if pos < total {
		page.NextCursor = pos
		page.HasMore = true
	}
	return page, nil
}

func (r *Repo) load(ctx context.Context, tenantID, id string) (domsub.Record, []domsub.Identifier, error) {
	data, err := r.store.Get(ctx, recordKey(tenantID, id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsub.Record{}, nil, domain.ErrNotFound
		}
		return domsub.Record{}, nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return unmarshalRecord(data)
}

// acquire takes every claim for rec. Claims rec already holds are kept.
// On failure the claims taken by this call are released.
func (r *Repo) acquire(ctx context.Context, rec domsub.Record, claims []domsub.Identifier) error {
	var taken []domsub.Identifier
	for _, c := range claims {
		key := claimKey(rec.TenantID(), rec.Kind(), c)
		ok, err := r.store.SetNX(ctx, key, []byte(rec.ID()))
		if err != nil {
			r.release(ctx, rec, taken)
			return fmt.Errorf("claim %s: %w", c.Kind, err)
		}
		if ok {
			taken = append(taken, c)
			continue
		}

		holder, err := r.store.Get(ctx, key)
		if err == nil && string(holder) == rec.ID() {
			continue
		}
		r.release(ctx, rec, taken)
		switch {
		case errors.Is(err, db.ErrKeyNotFound):
			// released between SETNX and GET; the holder is gone but was real
			return domain.NewConflict(nil)
		case err != nil:
			return fmt.Errorf("get claim holder: %w", err)
		}
		return domain.NewConflict([]string{string(holder)})
	}
	return nil
}

// release drops claims best-effort; a leftover claim only blocks its own identifier.
func (r *Repo) release(ctx context.Context, rec domsub.Record, claims []domsub.Identifier) {
	for _, c := range claims {
		if err := r.store.Del(ctx, claimKey(rec.TenantID(), rec.Kind(), c)); err != nil {
			logger.FromContext(ctx).Warn("Failed to release claim",
				zap.String("record_id", rec.ID()),
				zap.String("identifier", string(c.Kind)),
				zap.Error(err),
			)
		}
	}
}

// Key patterns:
//   formdex:rec:{tenant}:{id}
//   formdex:recs:{tenant}:{kind}
//   formdex:ident:{tenant}:{kind}:{identKind}:{value}
//   formdex:claim:{tenant}:{kind}:{identKind}:{value}

func recordKey(tenantID, id string) string {
	return domain.KeyPrefix + "rec:" + tenantID + ":" + id
}

func kindKey(tenantID string, kind domsub.Kind) string {
	return domain.KeyPrefix + "recs:" + tenantID + ":" + string(kind)
}

func identKey(tenantID string, kind domsub.Kind, ident domsub.Identifier) string {
	return domain.KeyPrefix + "ident:" + tenantID + ":" + string(kind) + ":" + string(ident.Kind) + ":" + ident.Value
}

func claimKey(tenantID string, kind domsub.Kind, ident domsub.Identifier) string {
	return domain.KeyPrefix + "claim:" + tenantID + ":" + string(kind) + ":" + string(ident.Kind) + ":" + ident.Value
}
