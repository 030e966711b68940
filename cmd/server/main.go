package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/dimasfahmi/studyplan-api/api/swagger"
	"github.com/dimasfahmi/studyplan-api/internal/handler"
	"github.com/dimasfahmi/studyplan-api/internal/middleware"
	"github.com/dimasfahmi/studyplan-api/internal/repository"
	"github.com/dimasfahmi/studyplan-api/internal/service"
	"github.com/dimasfahmi/studyplan-api/pkg/cache"
	"github.com/dimasfahmi/studyplan-api/pkg/config"
	"github.com/dimasfahmi/studyplan-api/pkg/database"
	"github.com/dimasfahmi/studyplan-api/pkg/logger"
	corsmiddleware "github.com/dimasfahmi/studyplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/dimasfahmi/studyplan-api/pkg/middleware/requestid"
)

// @title Study Plan API
// @version 1.0.0
// @description Study planner with AI-backed plan generation, deterministic fallback synthesis, and schedule conflict detection.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// A failed Redis connection degrades to cache misses, it does not stop
	// the server.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	planRepo := repository.NewPlanRepository(db, logr)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	metricsSvc := service.NewMetricsService()

	var generator service.PlanGenerator
	if cfg.AI.APIKey != "" {
		retry := service.NewRetryPolicy(service.NewRemoteGenerator(cfg.AI, logr), cfg.AI, logr)
		retry.OnRetry(func(attempt int, err error) {
			metricsSvc.IncAIRetry()
		})
		generator = retry
	} else {
		logr.Info("no AI api key configured, plans will use the fallback synthesizer")
	}

	planSvc := service.NewPlanService(planRepo, cacheRepo, generator, metricsSvc, nil, logr, service.PlanServiceConfig{
		PendingTTL:    cfg.Planner.PendingTTL,
		StaleWindow:   cfg.Planner.StaleWindow,
		ListCacheTTL:  cfg.Planner.ListCacheTTL,
		ExportEnabled: cfg.Planner.ExportEnabled,
	})
	planHandler := handler.NewPlanHandler(planSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	planHandler.RegisterRoutes(api)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
