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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"healthcare-portal/internal/clinicalapi"
	"healthcare-portal/internal/config"
	"healthcare-portal/internal/logger"
	"healthcare-portal/internal/metrics"
	"healthcare-portal/internal/routes"
	"healthcare-portal/internal/session"
	"healthcare-portal/internal/views"
)

func main() {
	// Load environment variables; a missing .env is fine when the environment is set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer zapLogger.Sync()

	// Session credential store: Redis when configured, otherwise in memory
	var store session.Store
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := session.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		cancel()
		if err != nil {
			zapLogger.Fatal("Error connecting to redis", zap.Error(err))
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
	} else {
		zapLogger.Info("REDIS_ADDR not set; keeping sessions in memory")
		store = session.NewMemoryStore(cfg.SessionTTL)
	}

	collector := metrics.NewCollector()
	client := clinicalapi.NewClient(cfg.ClinicalAPI.BaseURL, cfg.ClinicalAPI.Timeout, cfg.ClinicalAPI.RatePerSecond, zapLogger)
	registry := views.NewRegistry(client, store, views.Config{
		PollInterval: cfg.PollInterval,
		FeedRoles:    cfg.FeedRoles,
		Location:     cfg.Location,
	}, zapLogger, collector)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestID(), logger.GinLogger(zapLogger), collector.GinMiddleware())

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", logger.HeaderXRequestID}
	corsConfig.ExposeHeaders = []string{logger.HeaderXRequestID}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, registry, cfg, collector, zapLogger)

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}
	go func() {
		zapLogger.Info("Server running", zap.String("port", cfg.Port), zap.String("clinical_api", cfg.ClinicalAPI.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	// stop every feed poller once no more requests can mount views
	registry.Close()
}
