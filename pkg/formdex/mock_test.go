package formdex

import (
	"context"

	dombatch "github.com/kailas-cloud/formdex/internal/domain/batch"
	"github.com/kailas-cloud/formdex/internal/domain/facet"
	domschema "github.com/kailas-cloud/formdex/internal/domain/schema"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	healthuc "github.com/kailas-cloud/formdex/internal/usecase/health"
	intakeuc "github.com/kailas-cloud/formdex/internal/usecase/intake"
	"github.com/kailas-cloud/formdex/internal/usecase/submission"
)

// --- schemaUseCase mock ---

type mockSchemaUC struct {
	upsertFn func(ctx context.Context, tenantID string, sections []domschema.Section, expected int) (domschema.Schema, error)
	getFn    func(ctx context.Context, tenantID string) (domschema.Schema, error)
	facetsFn func(ctx context.Context, tenantID string) ([]facet.Facet, error)
	deleteFn func(ctx context.Context, tenantID string) error
}

func (m *mockSchemaUC) UpsertIfRevision(
	ctx context.Context, tenantID string, sections []domschema.Section, expected int,
) (domschema.Schema, error) {
	return m.upsertFn(ctx, tenantID, sections, expected)
}

func (m *mockSchemaUC) Get(ctx context.Context, tenantID string) (domschema.Schema, error) {
	return m.getFn(ctx, tenantID)
}

func (m *mockSchemaUC) Facets(ctx context.Context, tenantID string) ([]facet.Facet, error) {
	return m.facetsFn(ctx, tenantID)
}

func (m *mockSchemaUC) Delete(ctx context.Context, tenantID string) error {
	return m.deleteFn(ctx, tenantID)
}

// --- intakeUseCase mock ---

type mockIntakeUC struct {
	createFn func(ctx context.Context, in submission.Input) (intakeuc.Result, error)
	editFn   func(ctx context.Context, id string, in submission.Input) (domsub.Record, error)
	getFn    func(ctx context.Context, tenantID string, kind domsub.Kind, id string) (domsub.Record, error)
	searchFn func(ctx context.Context, tenantID string, kind domsub.Kind, q string, cursor int64, limit int) (domsub.Page, error)
}

func (m *mockIntakeUC) Create(ctx context.Context, in submission.Input) (intakeuc.Result, error) {
	return m.createFn(ctx, in)
}

func (m *mockIntakeUC) Edit(ctx context.Context, id string, in submission.Input) (domsub.Record, error) {
	return m.editFn(ctx, id, in)
}

func (m *mockIntakeUC) Get(ctx context.Context, tenantID string, kind domsub.Kind, id string) (domsub.Record, error) {
	return m.getFn(ctx, tenantID, kind, id)
}

func (m *mockIntakeUC) Search(
	ctx context.Context, tenantID string, kind domsub.Kind, q string, cursor int64, limit int,
) (domsub.Page, error) {
	return m.searchFn(ctx, tenantID, kind, q, cursor, limit)
}

// --- batchUseCase mock ---

type mockBatchUC struct {
	importFn func(ctx context.Context, kind domsub.Kind, items []submission.Input) []dombatch.Result
}

func (m *mockBatchUC) Import(ctx context.Context, kind domsub.Kind, items []submission.Input) []dombatch.Result {
	return m.importFn(ctx, kind, items)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testRecords(intake intakeUseCase, batch batchUseCase) *RecordService {
	c := &Client{intakeSvc: intake, batchSvc: batch}
	return c.Records("acme", Lead)
}
