package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adMarginLab/app/optimizer-server/router"
	"adMarginLab/business/margin"
	"adMarginLab/business/mockdata"
	"adMarginLab/business/optimizer"
	"adMarginLab/internal/rest"
	"adMarginLab/pkg/config"
	"adMarginLab/pkg/database"
	redisdb "adMarginLab/pkg/database/redis"
	"adMarginLab/pkg/logger"
	"adMarginLab/pkg/metrics"

	psqlRepo "adMarginLab/internal/repository/postgres"
	redisRepo "adMarginLab/internal/repository/redis"
	s3Repo "adMarginLab/internal/repository/s3"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Ad Margin Lab", "version", cfg.App.Version)

	metrics.Init()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Blob store for optimizer state and run logs
	var store optimizer.BlobStore
	switch cfg.Optimizer.StoreBackend {
	case "s3":
		s3Store, err := s3Repo.NewBlobStore(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Region)
		if err != nil {
			logger.Fatal("Failed to init S3 blob store", "error", err)
		}
		store = s3Store
		logger.Info("Using S3 blob store", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
	default:
		redisClient, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", "error", err)
		}
		defer func() { _ = redisdb.CloseRedisClient(redisClient) }()
		store = redisRepo.NewBlobStore(redisClient, cfg.S3.Prefix)
		logger.Info("Using Redis blob store")
	}

	// Data source: postgres rollups when a DB is configured, mock otherwise
	var (
		source  optimizer.ObservationSource
		cfgRepo margin.ConfigRepository
	)
	if cfg.Database.Host != "" {
		db, err := database.InitPostgres(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", "error", err)
		}
		source = psqlRepo.NewObservationRepository(db, cfg.Optimizer.LookbackHours)
		cfgRepo = psqlRepo.NewEndpointConfigRepository(db)
		logger.Info("Using postgres observation source")
	} else {
		source = mockdata.NewSource(cfg.Optimizer.MockEndpoints, cfg.Optimizer.LookbackHours)
		logger.Info("No database configured, using mock observation source",
			"endpoints", len(cfg.Optimizer.MockEndpoints))
	}

	defaults := engineDefaults(cfg)
	svc := optimizer.NewService(store, source, cfgRepo, defaults)

	runner := optimizer.NewRunner(svc, cfg.Optimizer.RunInterval)
	go runner.Start(ctx)

	optimizerHandler := rest.NewOptimizerHandler(svc)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(echomiddleware.Recover())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetOptimizerRoutes(api, optimizerHandler)
	if cfgRepo != nil {
		adminHandler := rest.NewOptimizerAdminHandler(cfgRepo)
		router.SetOptimizerAdminRoutes(api, adminHandler, cfg.JWT.SecretKey)
	}

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

func engineDefaults(cfg *config.Config) margin.Config {
	defaults := margin.DefaultConfig()
	o := cfg.Optimizer

	if o.GuardrailRatio > 0 {
		defaults.GuardrailRatio = o.GuardrailRatio
	}
	if o.MinImpressions > 0 {
		defaults.MinImpressions = o.MinImpressions
	}
	if o.MinProfit > 0 {
		defaults.MinProfit = o.MinProfit
	}
	if o.Cooldown > 0 {
		defaults.Cooldown = o.Cooldown
	}
	if o.MaxStepPoints > 0 {
		defaults.MaxStepPoints = o.MaxStepPoints
	}
	if o.BaselineMargin > 0 {
		defaults.BaselineMargin = o.BaselineMargin
	}
	if o.Alpha > 0 {
		defaults.Alpha = o.Alpha
	}
	if o.MinLooks > 0 {
		defaults.MinLooks = o.MinLooks
	}
	if o.MaxLooks > 0 {
		defaults.MaxLooks = o.MaxLooks
	}
	if o.MinBuckets > 0 {
		defaults.MinBuckets = o.MinBuckets
	}
	if o.BootstrapIters > 0 {
		defaults.BootstrapIters = o.BootstrapIters
	}

	return defaults
}
