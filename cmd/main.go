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

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/fraud-desk/alert_service/internal/api/routes"
	"github.com/fraud-desk/alert_service/internal/infrastructure/cache"
	"github.com/fraud-desk/alert_service/internal/infrastructure/config"
	"github.com/fraud-desk/alert_service/internal/infrastructure/database"
	"github.com/fraud-desk/alert_service/internal/infrastructure/di"
	"github.com/fraud-desk/alert_service/pkg/logger"
	"github.com/fraud-desk/alert_service/pkg/tracing"
	"github.com/fraud-desk/alert_service/pkg/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync()
	log.Infow("Starting alert service", "version", version.Get().String())

	shutdownTracing, err := tracing.Init(context.Background(), tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Environment,
		SampleRatio: cfg.Tracing.SampleRatio,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		log.Fatalw("Failed to initialise tracing", "error", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalw("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		log.Fatalw("Failed to run migrations", "error", err)
	}

	// Redis is optional; without it the service keeps its snapshot in process
	var redisClient redis.UniversalClient
	if cfg.Redis.Host != "" {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warnw("Redis unavailable, running without shared cache", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	container, err := di.NewContainer(cfg, db, redisClient, log)
	if err != nil {
		log.Fatalw("Failed to create DI container", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.Start(ctx)

	router := routes.SetupRoutes(container)
	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Infow("Starting server", "addr", server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}

	cancel()
	container.Stop()

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warnw("Failed to flush traces", "error", err)
	}

	log.Info("Server exited")
}
