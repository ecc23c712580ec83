// Command api is the Forecheck analytics engine API server.
//
// Usage:
//
//	forecheck-api
//	API_PORT=8080 forecheck-api

// @title Forecheck Engine API
// @version 1.0.0
// @description Fantasy hockey analytics engine: rolling-window aggregates, streamer scores with component breakdowns, declarative scans, and a trailing alert feed.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Forecheck
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/forecheck/engine/internal/api"
	"github.com/forecheck/engine/internal/cache"
	"github.com/forecheck/engine/internal/config"
	"github.com/forecheck/engine/internal/db"
	"github.com/forecheck/engine/internal/engine"
	"github.com/forecheck/engine/internal/listener"
	"github.com/forecheck/engine/internal/maintenance"
	"github.com/forecheck/engine/internal/recalc"
	"github.com/forecheck/engine/internal/scan"
	"github.com/forecheck/engine/internal/score"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Load the persisted score config and publish the initial snapshot
	scoreCfg, err := score.LoadConfig(ctx, pool.Pool)
	if err != nil {
		logger.Error("Failed to load score configuration", "error", err)
		os.Exit(1)
	}
	registry := score.NewRegistry(scoreCfg)
	logger.Info("Score configuration loaded")

	// Reconcile preset scans
	if err := scan.EnsurePresets(ctx, pool.Pool); err != nil {
		logger.Error("Failed to ensure preset scans", "error", err)
		os.Exit(1)
	}

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Engine and recalculation job
	eng := engine.New(cfg, pool, registry, logger)
	job := recalc.New(eng, cfg.RecalcWorkers, logger)

	// Start LISTEN/NOTIFY consumer for game-log changes
	go listener.Start(ctx, cfg.DatabaseURL, cfg.ListenChannelName, job, logger)

	// Start maintenance tickers (stale-scan refresh, alert cleanup)
	go maintenance.Start(ctx, cfg, pool.Pool, eng, logger)

	// Create router
	router := api.NewRouter(pool, appCache, cfg, eng, job)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Forecheck Engine API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
