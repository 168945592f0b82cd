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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "github.com/noah-isme/uf-rooms-api/api/swagger"
	"github.com/noah-isme/uf-rooms-api/internal/handler"
	"github.com/noah-isme/uf-rooms-api/internal/models"
	"github.com/noah-isme/uf-rooms-api/internal/repository"
	"github.com/noah-isme/uf-rooms-api/internal/service"
	"github.com/noah-isme/uf-rooms-api/pkg/cache"
	"github.com/noah-isme/uf-rooms-api/pkg/config"
	"github.com/noah-isme/uf-rooms-api/pkg/database"
	"github.com/noah-isme/uf-rooms-api/pkg/jobs"
	"github.com/noah-isme/uf-rooms-api/pkg/logger"
	"github.com/noah-isme/uf-rooms-api/pkg/storage"
)

// @title UF Rooms API
// @version 1.0.0
// @description Classroom availability built from scraped schedule and room metadata snapshots.
// @BasePath /api/v1
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openSnapshotStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open snapshot store", zap.Error(err))
	}
	defer closeStore()

	metricsSvc := service.NewMetricsService()
	cacheSvc, closeCache := openCache(cfg, metricsSvc, logr)
	defer closeCache()

	engine, err := service.NewStatusEngine(cfg.Campus.Timezone)
	if err != nil {
		logr.Warn("campus timezone unavailable, serving without realtime status", zap.Error(err))
	}

	availabilitySvc := service.NewAvailabilityService(service.AvailabilityServiceParams{
		Store:     store,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Engine:    engine,
		Validator: validator.New(),
		Logger:    logr,
		Config: service.AvailabilityServiceConfig{
			ScheduleKey: cfg.Snapshot.ScheduleKey,
			MetadataKey: cfg.Snapshot.MetadataKey,
			CacheTTL:    cfg.Cache.TTL,
		},
	})
	exportSvc := service.NewExportService(availabilitySvc, logr)

	availabilitySvc.WarmFromCache(ctx)
	initialCtx, cancelInitial := context.WithTimeout(ctx, cfg.Snapshot.LoadTimeout)
	if err := availabilitySvc.Refresh(initialCtx); err != nil {
		logr.Warn("initial refresh failed", zap.Error(err))
	}
	cancelInitial()

	refreshQueue := jobs.NewQueue("availability-refresh", service.RefreshJobHandler(availabilitySvc, cfg.Snapshot.LoadTimeout), jobs.QueueConfig{
		Workers:    cfg.Refresh.Workers,
		BufferSize: 4,
		MaxRetries: cfg.Refresh.Retries,
		RetryDelay: cfg.Refresh.RetryDelay,
		Logger:     logr,
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()
	go scheduleRefreshes(ctx, refreshQueue, cfg.Snapshot.RefreshInterval, logr)

	router := newRouter(cfg, logr, metricsSvc, routeHandlers{
		availability: handler.NewAvailabilityHandler(availabilitySvc),
		exports:      handler.NewExportHandler(exportSvc),
		admin:        handler.NewAdminHandler(refreshQueue, availabilitySvc, metricsSvc),
		probes:       handler.NewMetricsHandler(metricsSvc, availabilitySvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
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

type snapshotSource interface {
	Latest(ctx context.Context, key string) (*models.Snapshot, error)
}

func openSnapshotStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (snapshotSource, func(), error) {
	if cfg.Snapshot.Source == config.SnapshotSourceFile {
		local, err := storage.NewLocalStorage(cfg.Snapshot.Dir)
		if err != nil {
			return nil, nil, err
		}
		logr.Info("reading snapshots from files", zap.String("dir", cfg.Snapshot.Dir))
		return repository.NewFileSnapshotRepository(local), func() {}, nil
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewSnapshotRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	logr.Info("reading snapshots from postgres", zap.String("database", cfg.Database.Name))
	return repo, func() { _ = db.Close() }, nil
}

func openCache(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.CacheService, func()) {
	if !cfg.Cache.Enabled {
		return service.NewCacheService(nil, metrics, cfg.Cache.TTL, logr, false), func() {}
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dataset cache disabled", zap.Error(err))
		return service.NewCacheService(nil, metrics, cfg.Cache.TTL, logr, false), func() {}
	}
	repo := repository.NewCacheRepository(client, logr)
	return service.NewCacheService(repo, metrics, cfg.Cache.TTL, logr, true), func() { _ = repo.Close() }
}

func scheduleRefreshes(ctx context.Context, queue *jobs.Queue, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job := jobs.Job{ID: uuid.NewString(), Type: service.RefreshJobType}
			if err := queue.TryEnqueue(job); err != nil {
				logr.Warn("scheduled refresh skipped", zap.Error(err))
			}
		}
	}
}
