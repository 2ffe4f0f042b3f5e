package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/noah-isme/childcare-incidents-api/api/swagger"
	"github.com/noah-isme/childcare-incidents-api/internal/handler"
	"github.com/noah-isme/childcare-incidents-api/internal/repository"
	"github.com/noah-isme/childcare-incidents-api/internal/router"
	"github.com/noah-isme/childcare-incidents-api/internal/service"
	"github.com/noah-isme/childcare-incidents-api/pkg/cache"
	"github.com/noah-isme/childcare-incidents-api/pkg/config"
	"github.com/noah-isme/childcare-incidents-api/pkg/database"
	"github.com/noah-isme/childcare-incidents-api/pkg/export"
	"github.com/noah-isme/childcare-incidents-api/pkg/jobs"
	"github.com/noah-isme/childcare-incidents-api/pkg/logger"
	"github.com/noah-isme/childcare-incidents-api/pkg/storage"
)

// @title Childcare Incidents API
// @version 1.0.0
// @description Incident reporting, guardian sign-off and incident report documents for childcare centres.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, stats cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()

	incidentRepo := repository.NewIncidentRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient),
		metrics,
		cfg.Incidents.StatsCacheTTL,
		logr,
		cfg.Incidents.CacheStats && redisClient != nil,
	)

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	loader := service.NewIncidentDetailLoader(incidentRepo, directoryRepo)

	archiver := service.NewArchiveWorker(loader, fileStore, metrics, logr)
	archiveQueue := jobs.NewQueue("incident-archive", archiver.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	archiveQueue.Start(ctx)
	defer archiveQueue.Stop()

	incidentSvc := service.NewIncidentService(incidentRepo, auditRepo, nil, logr,
		service.IncidentServiceConfig{
			NumberRetries: cfg.Incidents.NumberRetries,
			StatsCacheTTL: cfg.Incidents.StatsCacheTTL,
		},
		service.WithIncidentCache(cacheSvc),
		service.WithIncidentMetrics(metrics),
		service.WithArchiveQueue(archiveQueue),
		service.WithAuditTrail(auditRepo),
	)

	reportSvc := service.NewReportService(incidentSvc, loader, fileStore, signer,
		export.NewCSVExporter(export.WithBOM()), export.NewPDFExporter(), metrics, logr,
		service.ReportServiceConfig{
			DownloadBaseURL: cfg.Reports.PublicBaseURL + cfg.APIPrefix,
			GuardianCopyTTL: cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		},
	)
	reportSvc.StartCleanup(ctx)

	audience := ""
	if len(cfg.JWT.Audience) > 0 {
		audience = cfg.JWT.Audience[0]
	}
	tokens := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: audience,
	})

	engine := router.Setup(cfg, router.Dependencies{
		Incidents: handler.NewIncidentHandler(incidentSvc),
		Reports:   handler.NewReportHandler(reportSvc),
		Metrics:   handler.NewMetricsHandler(metrics, db),
		Tokens:    tokens,
		Observer:  metrics,
		Audit:     auditRepo,
		Logger:    logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
