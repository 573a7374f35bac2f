package formdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/formdex/internal/db"
	dbRedis "github.com/kailas-cloud/formdex/internal/db/redis"
	dombatch "github.com/kailas-cloud/formdex/internal/domain/batch"
	"github.com/kailas-cloud/formdex/internal/domain/facet"
	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	recordrepo "github.com/kailas-cloud/formdex/internal/repository/record"
	schemarepo "github.com/kailas-cloud/formdex/internal/repository/schema"
	batchuc "github.com/kailas-cloud/formdex/internal/usecase/batch"
	"github.com/kailas-cloud/formdex/internal/usecase/dedup"
	healthuc "github.com/kailas-cloud/formdex/internal/usecase/health"
	intakeuc "github.com/kailas-cloud/formdex/internal/usecase/intake"
	schemauc "github.com/kailas-cloud/formdex/internal/usecase/schema"
	"github.com/kailas-cloud/formdex/internal/usecase/submission"
)

// Internal interfaces, narrowed for substitution in tests.
type schemaUseCase interface {
	UpsertIfRevision(
		ctx context.Context, tenantID string, sections []domschema.Section, expectedRevision int,
	) (domschema.Schema, error)
	Get(ctx context.Context, tenantID string) (domschema.Schema, error)
	Facets(ctx context.Context, tenantID string) ([]facet.Facet, error)
	Delete(ctx context.Context, tenantID string) error
}

type intakeUseCase interface {
	Create(ctx context.Context, in submission.Input) (intakeuc.Result, error)
	Edit(ctx context.Context, id string, in submission.Input) (domsub.Record, error)
	Get(ctx context.Context, tenantID string, kind domsub.Kind, id string) (domsub.Record, error)
	Search(
		ctx context.Context, tenantID string, kind domsub.Kind, q string, cursor int64, limit int,
	) (domsub.Page, error)
}

type batchUseCase interface {
	Import(ctx context.Context, kind domsub.Kind, items []submission.Input) []dombatch.Result
}

// Client is the formdex embedding entry point.
type Client struct {
	store     db.Store
	schemaSvc schemaUseCase
	intakeSvc intakeUseCase
	batchSvc  batchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and waits for the database to become ready.
// The provided context bounds the readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("formdex: database address required (use WithAddr or WithCluster)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:       cfg.addrs,
		Username:    cfg.username,
		Password:    cfg.password,
		DB:          cfg.db,
		ClientCache: cfg.clientCache,
	})
	if err != nil {
		return nil, fmt.Errorf("formdex: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("formdex: database not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	schemaRepo := schemarepo.New(store).WithCacheTTL(cfg.schemaCacheTTL)
	recordRepo := recordrepo.New(store)

	intakeSvc := intakeuc.New(submission.New(schemaRepo), dedup.New(recordRepo), recordRepo).
		WithPagination(cfg.defaultPageSize, cfg.maxPageSize)

	return &Client{
		store:     store,
		schemaSvc: schemauc.New(schemaRepo),
		intakeSvc: intakeSvc,
		batchSvc: batchuc.New(intakeSvc).
			WithMaxBatchSize(cfg.maxBatchSize).
			WithConcurrency(cfg.concurrency),
		healthSvc: healthuc.New(store, store),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Schemas returns the schema registry.
func (c *Client) Schemas() *SchemaService {
	return &SchemaService{svc: c.schemaSvc, obs: c.obs}
}

// Records returns the record service for one tenant and entity kind.
func (c *Client) Records(tenant string, kind Kind) *RecordService {
	return &RecordService{
		tenant:    tenant,
		kind:      domsub.Kind(kind),
		intakeSvc: c.intakeSvc,
		batchSvc:  c.batchSvc,
		obs:       c.obs,
	}
}
