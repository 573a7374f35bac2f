package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/formdex/internal/config"
	dbRedis "github.com/kailas-cloud/formdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/formdex/internal/logger"
	"github.com/kailas-cloud/formdex/internal/metrics"
	recordrepo "github.com/kailas-cloud/formdex/internal/repository/record"
	schemarepo "github.com/kailas-cloud/formdex/internal/repository/schema"
	chiTransport "github.com/kailas-cloud/formdex/internal/transport/chi"
	batchuc "github.com/kailas-cloud/formdex/internal/usecase/batch"
	"github.com/kailas-cloud/formdex/internal/usecase/dedup"
	healthuc "github.com/kailas-cloud/formdex/internal/usecase/health"
	intakeuc "github.com/kailas-cloud/formdex/internal/usecase/intake"
	schemauc "github.com/kailas-cloud/formdex/internal/usecase/schema"
	"github.com/kailas-cloud/formdex/internal/usecase/submission"
	"github.com/kailas-cloud/formdex/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting formdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("client_cache", *cfg.Database.ClientCache),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:       cfg.Database.Addrs,
		Password:    cfg.Database.Password,
		ClientCache: *cfg.Database.ClientCache,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := logpkg.ContextWithLogger(context.Background(), logger)
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterPipelineMetrics()

	schemaRepo := schemarepo.New(store).WithCacheTTL(time.Duration(cfg.Cache.SchemaTTLSec) * time.Second)
	recordRepo := recordrepo.New(store)

	schemaSvc := schemauc.New(schemaRepo)
	intakeSvc := intakeuc.New(submission.New(schemaRepo), dedup.New(recordRepo), recordRepo).
		WithPagination(cfg.Intake.DefaultPageSize, cfg.Intake.MaxPageSize)
	batchSvc := batchuc.New(intakeSvc).
		WithMaxBatchSize(cfg.Intake.MaxBatchSize).
		WithConcurrency(cfg.Intake.ImportConcurrency)
	healthSvc := healthuc.New(store, store)

	server := chiTransport.NewServer(schemaSvc, intakeSvc, batchSvc, healthSvc).
		WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
