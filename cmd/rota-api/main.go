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

	"github.com/familyidiomas/rota-api/internal/handler"
	internalmiddleware "github.com/familyidiomas/rota-api/internal/middleware"
	"github.com/familyidiomas/rota-api/internal/repository"
	"github.com/familyidiomas/rota-api/internal/service"
	"github.com/familyidiomas/rota-api/internal/solver"
	"github.com/familyidiomas/rota-api/pkg/cache"
	"github.com/familyidiomas/rota-api/pkg/config"
	"github.com/familyidiomas/rota-api/pkg/database"
	"github.com/familyidiomas/rota-api/pkg/jobs"
	"github.com/familyidiomas/rota-api/pkg/logger"
	corsmiddleware "github.com/familyidiomas/rota-api/pkg/middleware/cors"
	reqidmiddleware "github.com/familyidiomas/rota-api/pkg/middleware/requestid"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		logr.Sugar().Fatalw("failed to migrate schema", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Rotations are rebuilt from postgres when the cache is down, so a
		// missing redis only costs latency.
		logr.Sugar().Warnw("redis unavailable, serving without rotation cache", "error", err)
		redisClient = nil
	}

	runRepo := repository.NewSolveRunRepository(db)
	metricsSvc := service.NewMetricsService()
	integritySvc := service.NewIntegrityService(logr)
	engine := solver.NewEngine(logr)
	exportSvc := service.NewExportService(cfg.Exports.SheetName)

	var allocSvc *service.AllocationService
	if redisClient != nil {
		allocSvc = service.NewAllocationService(runRepo, engine, redisClient, integritySvc, metricsSvc, cfg.Solver, cfg.Redis.ResultTTL, logr)
	} else {
		allocSvc = service.NewAllocationService(runRepo, engine, nil, integritySvc, metricsSvc, cfg.Solver, cfg.Redis.ResultTTL, logr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One worker: the fallback protocol of a run must never interleave with
	// another run's attempts.
	solveQueue := jobs.NewQueue("allocation-solve", func(ctx context.Context, job jobs.Job) error {
		runID, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("solve job %s has no run id", job.ID)
		}
		return allocSvc.Execute(ctx, runID)
	}, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	solveQueue.Start(ctx)
	defer solveQueue.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	allocHandler := handler.NewAllocationHandler(allocSvc, exportSvc, solveQueue, integritySvc, cfg.Solver.Units)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/rotations/roster", allocHandler.UploadRoster)
	api.POST("/rotations/teachers", allocHandler.UploadTeachers)
	api.GET("/rotations/latest", allocHandler.LatestRotation)
	api.POST("/allocations/solve", allocHandler.Solve)
	api.GET("/allocations/runs", allocHandler.ListRuns)
	api.GET("/allocations/runs/:id", allocHandler.GetRun)
	api.GET("/allocations/runs/:id/rotation", allocHandler.GetRotation)
	api.GET("/allocations/runs/:id/export", allocHandler.Export)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown", "error", err)
	}
}
