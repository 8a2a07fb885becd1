package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/jurix/jurix/infrastructure/http/middleware"
	"github.com/jurix/jurix/infrastructure/service/logger"
	"github.com/jurix/jurix/infrastructure/service/metrics"
	"github.com/jurix/jurix/infrastructure/service/ratelimit"
	httpadapter "github.com/jurix/jurix/internal/adapter/http"
	"github.com/jurix/jurix/internal/bootstrap"
	"github.com/jurix/jurix/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("jurix: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize structured logger
	structuredLogger := bootstrap.NewLogger(cfg)
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		structuredLogger.Debug(ctx, fmt.Sprintf(format, args...), nil)
	}))
	defer undo()
	if err != nil {
		structuredLogger.Warn(ctx, "Failed to set GOMAXPROCS", map[string]interface{}{"error": err.Error()})
	}

	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"version": cfg.Version,
		"env":     cfg.Environment,
	})

	// Connect to database
	db, err := bootstrap.OpenDatabase(ctx, cfg)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to connect to database", err, nil)
		return err
	}
	defer db.Close()
	structuredLogger.Info(ctx, "Database connection established", nil)

	// Redis backs rate limiting and the audit retry queue; both are optional
	rdb, err := bootstrap.OpenRedis(ctx, cfg)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to connect to Redis, continuing without it", err, nil)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
		structuredLogger.Info(ctx, "Redis connection established", nil)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	services, err := bootstrap.NewServices(cfg, db, rdb, appMetrics, structuredLogger)
	if err != nil {
		return err
	}

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Port:                 cfg.ServerPort,
		ReadTimeout:          cfg.ReadTimeout,
		WriteTimeout:         cfg.WriteTimeout,
		IdleTimeout:          cfg.IdleTimeout,
		ServiceName:          cfg.ServiceName,
		Version:              cfg.Version,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		CORSAllowCredentials: cfg.CORSAllowCredentials,
		SlowRequestThreshold: cfg.SlowRequest,
	}, httpadapter.Dependencies{
		Contracts: services.ContractUseCase,
		Audit:     services.AuditUseCase,
		Auth:      services.AuthUseCase,
		AuthMW:    middleware.NewAuthMiddleware(services.AuthUseCase, structuredLogger),
		RateLimit: newRateLimitMiddleware(cfg, rdb, structuredLogger),
		Metrics:   appMetrics,
		Gatherer:  registry,
		Logger:    structuredLogger,
	})

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			structuredLogger.Error(ctx, "Server failed", err, nil)
			return err
		}
		return nil
	case sig := <-quit:
		structuredLogger.Info(ctx, "Shutdown signal received", map[string]interface{}{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
		return err
	}

	structuredLogger.Info(ctx, "Server exited", nil)
	return nil
}

func newRateLimitMiddleware(cfg *config.Config, rdb *redis.Client, log logger.Logger) *middleware.RateLimitMiddleware {
	if !cfg.RateLimitingEnabled() || rdb == nil {
		return nil
	}

	return middleware.NewRateLimitMiddleware(ratelimit.NewRateLimitService(rdb, log), middleware.RateLimitConfig{
		Login: middleware.RateLimitRule{
			Limit:         cfg.RateLimitLoginAttempts,
			Window:        cfg.RateLimitLoginWindow,
			BlockDuration: cfg.RateLimitLoginWindow,
		},
		Write: middleware.RateLimitRule{
			Limit:         cfg.RateLimitWriteRequests,
			Window:        cfg.RateLimitWindow,
			BlockDuration: cfg.RateLimitBlockDuration,
		},
		Read: middleware.RateLimitRule{
			Limit:         cfg.RateLimitReadRequests,
			Window:        cfg.RateLimitWindow,
			BlockDuration: cfg.RateLimitBlockDuration,
		},
	}, log)
}
