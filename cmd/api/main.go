package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"stockbook/internal/analytics"
	"stockbook/internal/config"
	"stockbook/internal/logger"
	"stockbook/internal/repository"
	"stockbook/internal/server"
	"stockbook/internal/service"

	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush unsaved state and close connections
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	done <- true
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting stockbook API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("backend", cfg.Store.Backend),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	backend, err := repository.Open(ctx, cfg, true, log)
	if err != nil {
		cancel()
		log.Fatal("Failed to open store", zap.Error(err))
	}

	svc := service.NewTrackerService(backend.Store, analytics.NewEngine(log), log, time.Now)
	if err := svc.Load(ctx); err != nil {
		cancel()
		log.Fatal("Failed to load saved state", zap.Error(err))
	}
	cancel()

	srv := server.NewServer(cfg, log, svc, backend.DB, backend.Redis)

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
