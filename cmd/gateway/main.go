package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"scribe/internal/assets"
	"scribe/internal/config"
	"scribe/internal/events"
	"scribe/internal/logger"
	"scribe/internal/ratelimit"
	"scribe/internal/storage"
	"scribe/internal/upload"
)

func main() {
	log := logger.New()
	logger.SetDefault(log)

	port := config.GetEnvOrDefault("GATEWAY_PORT", "8080")

	log.Info("Starting upload gateway", "port", port)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Storage backend: constructed once here and passed by reference
	// everywhere, never imported as ambient state.
	storageCfg, err := storage.LoadConfig()
	if err != nil {
		log.Error("Invalid storage configuration", "error", err)
		os.Exit(1)
	}
	storageService, err := storage.New(ctx, storageCfg)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to object storage", "bucket", storageCfg.Bucket)

	// Asset registry: optional, the gateway runs fine without a database.
	var registry assets.Repository
	var assetsHandler *assets.Handler
	var pool *pgxpool.Pool
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err = pgxpool.New(ctx, dsn)
		if err != nil {
			log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := assets.EnsureSchema(ctx, pool); err != nil {
			log.Error("Failed to prepare asset registry", "error", err)
			os.Exit(1)
		}
		registry = assets.NewRepository(pool)
		assetsHandler = assets.NewHandler(registry, log)
		log.Info("Asset registry enabled")
	}

	// Upload events: optional, enabled by KAFKA_BROKERS.
	var publisher events.Publisher
	if os.Getenv("KAFKA_BROKERS") != "" {
		eventsCfg, err := events.LoadConfig()
		if err != nil {
			log.Error("Invalid Kafka configuration", "error", err)
			os.Exit(1)
		}
		producer, err := events.NewProducer(eventsCfg, log)
		if err != nil {
			log.Error("Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		publisher = producer
	}

	service := upload.NewService(storageService, registry, publisher, log)
	handler := upload.NewHandler(service, log)

	routerCfg := upload.RouterConfig{
		AllowOrigins: strings.Split(
			config.GetEnvOrDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173,http://localhost:3000"),
			","),
		Assets: assetsHandler,
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		limiter := ratelimit.NewRedisLimiter(
			addr,
			os.Getenv("REDIS_PASSWORD"),
			config.GetEnvIntOrDefault("REDIS_DB", 0),
			config.GetEnvIntOrDefault("UPLOAD_RATE_LIMIT", 30),
			time.Duration(config.GetEnvIntOrDefault("UPLOAD_RATE_WINDOW_SECONDS", 60))*time.Second,
		)
		routerCfg.RateLimit = ratelimit.Middleware(limiter, log)
		log.Info("Upload rate limiting enabled", "redis", addr)
	}

	router := upload.NewRouter(handler, log, routerCfg)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // uploads can be slow
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Upload gateway listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down upload gateway")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", "error", err)
	}

	if publisher != nil {
		publisher.Close()
	}
	if pool != nil {
		pool.Close()
	}

	log.Info("Upload gateway stopped")
}
