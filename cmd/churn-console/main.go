// cmd/churn-console/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"churn-console/internal/churn/client"
	"churn-console/internal/common/config"
	"churn-console/internal/common/database"
	"churn-console/internal/common/logger"
	"churn-console/internal/common/observability"
	"churn-console/internal/common/session"
	"churn-console/internal/controller"
	"churn-console/internal/web"
)

func main() {
	bootLog := logger.New("info", "console")
	defer bootLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		bootLog.Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
		"env":     cfg.App.Environment,
	})

	zapLog.Info("Starting churn console...", zap.String("apiBaseUrl", cfg.API.BaseURL))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel exporter unavailable, continuing without it", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Page store ---
	var store controller.Store
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		redisClient, err := database.ConnectRedis(ctx, cfg.Database.Redis, 10, 2*time.Second)
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		store = session.NewRedisStore(
			redisClient.Client,
			cfg.Session.Prefix,
			config.GetDuration(cfg.Session.TTL),
			config.GetDuration(cfg.Session.LockTTL),
		)
		zapLog.Info("Redis page store connected", zap.String("address", cfg.Database.Redis.Address))
	default:
		store = session.NewMemoryStore(config.GetDuration(cfg.Session.TTL))
		zapLog.Info("Using in-memory page store")
	}

	// --- Prediction API client & controller ---
	api := client.New(client.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: config.GetDuration(cfg.API.Timeout),
	}, log)

	ctrl := controller.New(api, store, &controller.Config{
		HealthTimeout: config.GetDuration(cfg.API.HealthTimeout),
	}, log, controller.WithObservability(obs))

	srv, err := web.New(ctrl, web.Config{
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, log)
	if err != nil {
		zapLog.Fatal("web server init failed", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, stopping server...")
	case err := <-serveErr:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	ctrl.Wait()
	zapLog.Info("Churn console stopped")
}
