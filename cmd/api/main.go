package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/shuankun/shuankun-api/api/swagger"
	"github.com/shuankun/shuankun-api/internal/handler"
	"github.com/shuankun/shuankun-api/internal/repository"
	"github.com/shuankun/shuankun-api/internal/service"
	"github.com/shuankun/shuankun-api/pkg/cache"
	"github.com/shuankun/shuankun-api/pkg/config"
	"github.com/shuankun/shuankun-api/pkg/curriculum"
	"github.com/shuankun/shuankun-api/pkg/database"
	"github.com/shuankun/shuankun-api/pkg/export"
	"github.com/shuankun/shuankun-api/pkg/jobs"
	"github.com/shuankun/shuankun-api/pkg/logger"
	"github.com/shuankun/shuankun-api/pkg/storage"
)

// @title 週案くん API
// @version 1.0.0
// @description Weekly lesson plans and class hours forecasting for elementary school teachers
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Hours.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, hours cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	table, err := curriculum.Load(cfg.Hours.StandardTablePath)
	if err != nil {
		logr.Fatal("failed to load standard hours table", zap.Error(err))
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Hours.CacheTTL, logr, redisClient != nil)

	profileRepo := repository.NewProfileRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	publisherRepo := repository.NewPublisherRepository(db)
	unitRepo := repository.NewTextbookUnitRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	eventRepo := repository.NewEventRepository(db)
	planRepo := repository.NewWeeklyPlanRepository(db)

	hoursSvc := service.NewHoursService(profileRepo, planRepo, profileRepo, service.NewForecastEngine(table), cacheSvc, metrics, validate, logr, service.HoursServiceConfig{
		Concurrency: cfg.Hours.ReportConcurrency,
		CacheTTL:    cfg.Hours.CacheTTL,
	})
	profileSvc := service.NewProfileService(profileRepo, hoursSvc, db, validate, logr)
	catalogSvc := service.NewCatalogService(subjectRepo, publisherRepo, unitRepo, cacheSvc, time.Hour, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, db, validate, logr)
	eventSvc := service.NewEventService(eventRepo, validate, logr)
	planSvc := service.NewWeeklyPlanService(profileRepo, scheduleRepo, eventRepo, planRepo, hoursSvc, service.NewAdjustmentEngine(), db, metrics, validate, logr)

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})

	deps := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		deps["redis"] = handler.PingerFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	handlers := routeHandlers{
		profile:    handler.NewProfileHandler(profileSvc),
		catalog:    handler.NewCatalogHandler(catalogSvc),
		schedule:   handler.NewScheduleHandler(scheduleSvc),
		events:     handler.NewEventHandler(eventSvc),
		weeklyPlan: handler.NewWeeklyPlanHandler(planSvc),
		hours:      handler.NewHoursHandler(hoursSvc),
		system:     handler.NewMetricsHandler(metrics, logr, deps),
	}

	if cfg.Exports.Enabled {
		exportQueue, exportHandler, err := setupExports(ctx, cfg, db, planSvc, hoursSvc, catalogSvc, metrics, validate, logr)
		if err != nil {
			logr.Fatal("failed to initialise exports", zap.Error(err))
		}
		defer exportQueue.Stop()
		handlers.exports = exportHandler
	}

	router := newRouter(cfg, logr, authSvc, metrics, handlers)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func setupExports(
	ctx context.Context,
	cfg *config.Config,
	db *sqlx.DB,
	plans *service.WeeklyPlanService,
	hours *service.HoursService,
	catalog *service.CatalogService,
	metrics *service.MetricsService,
	validate *validator.Validate,
	logr *zap.Logger,
) (*jobs.Queue, *handler.ExportHandler, error) {
	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(plans, hours, catalog, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, export.NewCSVExporter(true), export.NewPDFExporter(cfg.Exports.PDFFontPath))

	jobRepo := repository.NewExportJobRepository(db)
	worker := service.NewExportWorker(jobRepo, exportSvc, metrics, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)

	jobSvc := service.NewExportJobService(jobRepo, plans, queue, exportSvc, metrics, validate, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	jobSvc.RecoverPendingJobs(ctx)
	jobSvc.StartCleanup(ctx)

	return queue, handler.NewExportHandler(jobSvc), nil
}
