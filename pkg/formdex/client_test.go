package formdex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	zapobserver "go.uber.org/zap/zaptest/observer"

	dbRedis "github.com/kailas-cloud/formdex/internal/db/redis"
	healthuc "github.com/kailas-cloud/formdex/internal/usecase/health"
)

func TestNew_RequiresAddr(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error without an address")
	}
}

func TestOptions(t *testing.T) {
	cfg := defaultConfig()
	for _, o := range []Option{
		WithCluster([]string{"a:6379", "b:6379"}, "pw"),
		WithACLUser("intake", 2),
		WithoutClientCache(),
		WithReadinessTimeout(time.Second),
		WithSchemaCacheTTL(time.Minute),
		WithPagination(10, 50),
		WithImportLimits(20, 4),
	} {
		o.apply(cfg)
	}

	if len(cfg.addrs) != 2 || cfg.password != "pw" || cfg.username != "intake" || cfg.db != 2 {
		t.Errorf("connection = %+v", cfg)
	}
	if cfg.clientCache || cfg.readinessTimeout != time.Second || cfg.schemaCacheTTL != time.Minute {
		t.Errorf("cache/readiness = %+v", cfg)
	}
	if cfg.defaultPageSize != 10 || cfg.maxPageSize != 50 || cfg.maxBatchSize != 20 || cfg.concurrency != 4 {
		t.Errorf("limits = %+v", cfg)
	}

	single := defaultConfig()
	WithAddr("localhost:6379", "").apply(single)
	if len(single.addrs) != 1 || !single.clientCache {
		t.Errorf("defaults = %+v", single)
	}
}

func TestWireClient_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG")))

	client := wireClient(dbRedis.NewStoreForTest(c), defaultConfig(), nil)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Schemas() == nil || client.Records("acme", Enquiry) == nil {
		t.Fatal("services must be wired")
	}
}

func TestHealth(t *testing.T) {
	client := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "scripting": healthuc.CheckError},
	}}}

	got := client.Health(context.Background())
	if got.Status != "degraded" || got.Checks["scripting"] != "error" {
		t.Errorf("health = %+v", got)
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	obs.observe("schema_get", time.Now(), nil)
	obs.observe("schema_get", time.Now(), errors.New("down"))

	if v := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("schema_get", "error")); v != 1 {
		t.Errorf("error count = %v", v)
	}

	// a second client on the same registry reuses the collectors
	again, err := newObserver(nil, reg)
	if err != nil {
		t.Fatal(err)
	}
	if again.metrics.operations != obs.metrics.operations {
		t.Error("expected collectors to be reused")
	}
}

func TestObserver_Logging(t *testing.T) {
	core, logs := zapobserver.New(zap.DebugLevel)
	obs, err := newObserver(zap.New(core), nil)
	if err != nil {
		t.Fatal(err)
	}

	obs.observe("record_create", time.Now(), errors.New("conflict"))
	obs.observe("record_get", time.Now(), nil)

	if logs.FilterMessage("operation failed").Len() != 1 || logs.FilterMessage("operation completed").Len() != 1 {
		t.Errorf("logs = %v", logs.All())
	}

	var nilObs *observer
	nilObs.observe("ping", time.Now(), nil)
	if ctx := context.Background(); nilObs.context(ctx) != ctx {
		t.Error("nil observer must not touch the context")
	}
}
