package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	internalhandler "github.com/noah-isme/sma-adp-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-adp-api/internal/middleware"
	"github.com/noah-isme/sma-adp-api/internal/repository"
	"github.com/noah-isme/sma-adp-api/internal/service"
	"github.com/noah-isme/sma-adp-api/pkg/cache"
	"github.com/noah-isme/sma-adp-api/pkg/config"
	"github.com/noah-isme/sma-adp-api/pkg/database"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
	"github.com/noah-isme/sma-adp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/requestid"
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	var previewCache *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("preview cache disabled, falling back to in-memory store", "error", err)
	} else {
		previewCache = client
		defer previewCache.Close() //nolint:errcheck
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	subjectRepo := repository.NewSubjectRepository(db)
	prefRepo := repository.NewFacultyPreferenceRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	subjectHandler := internalhandler.NewSubjectHandler(subjectSvc)

	prefSvc := service.NewFacultyPreferenceService(prefRepo, nil, logr)
	prefHandler := internalhandler.NewFacultyPreferenceHandler(prefSvc)

	genSvc := service.NewScheduleGeneratorService(
		subjectRepo,
		prefRepo,
		timetableRepo,
		db,
		nil,
		previewCache,
		nil,
		logr,
		metricsSvc,
		service.ScheduleGeneratorConfig{
			PreviewTTL:               cfg.Timetable.PreviewTTL,
			DefaultMaxSessionsPerDay: cfg.Timetable.DefaultMaxSessionsPerDay,
		},
	)

	jobQueue := jobs.NewQueue("timetable-generation", genSvc.HandleAsyncJob, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.QueueSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	genSvc.SetQueue(jobQueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobQueue.Start(ctx)
	defer jobQueue.Stop()

	timetableHandler := internalhandler.NewTimetableHandler(genSvc)

	subjectRoutes := api.Group("/subjects")
	subjectRoutes.GET("", subjectHandler.List)
	subjectRoutes.POST("", subjectHandler.Create)
	subjectRoutes.GET("/:id", subjectHandler.Get)
	subjectRoutes.PUT("/:id", subjectHandler.Update)
	subjectRoutes.DELETE("/:id", subjectHandler.Delete)

	prefRoutes := api.Group("/faculty-preferences")
	prefRoutes.GET("/:faculty", prefHandler.Get)
	prefRoutes.PUT("/:faculty", prefHandler.Upsert)

	timetableRoutes := api.Group("/timetables")
	timetableRoutes.POST("/generate", timetableHandler.Generate)
	timetableRoutes.GET("/jobs/:jobId", timetableHandler.GenerateJob)
	timetableRoutes.GET("", timetableHandler.List)
	timetableRoutes.GET("/:id", timetableHandler.Get)
	timetableRoutes.POST("/:id/commit", timetableHandler.Commit)
	timetableRoutes.POST("/:id/validate", timetableHandler.Validate)

	if err := r.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logr.Sugar().Fatalw("server stopped", "error", err)
	}
}
