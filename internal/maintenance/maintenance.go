// Package maintenance runs periodic background tasks as Go tickers. All
// scheduled work is driven from Go since the engine is already a persistent,
// long-running service (required for LISTEN/NOTIFY).
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecheck/engine/internal/alert"
	"github.com/forecheck/engine/internal/config"
	"github.com/forecheck/engine/internal/engine"
	"github.com/forecheck/engine/internal/scan"
)

// Start launches the maintenance tickers: periodic stale-scan refresh (which
// also records alert state) and alert-state retention cleanup. Blocks until
// ctx is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, eng *engine.Engine, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"scan_refresh", cfg.ScanRefreshInterval,
		"alert_retention", cfg.AlertRetention)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.ScanRefreshInterval > 0 {
		t := time.NewTicker(cfg.ScanRefreshInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { refreshScans(ctx, cfg, pool, eng, logger) })
	}

	if cfg.AlertRetention > 0 {
		t := time.NewTicker(cfg.AlertRetention / 10)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { cleanupAlerts(ctx, cfg, pool, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// refreshScans re-evaluates scans whose cached match counts have gone stale,
// keeping counts warm and alert state current without any API traffic.
func refreshScans(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, eng *engine.Engine, logger *slog.Logger) {
	scans, err := scan.List(ctx, pool, true, "")
	if err != nil {
		logger.Warn("Scan refresh: failed to list scans", "error", err)
		return
	}
	updated, err := eng.RefreshScans(ctx, scans, cfg.ScanStaleAfter, false)
	if err != nil {
		logger.Warn("Scan refresh failed", "error", err)
		return
	}
	if updated > 0 {
		logger.Info("Scan refresh complete", "scans", updated)
	}
}

// cleanupAlerts removes alert-state rows that stopped matching before the
// retention cutoff.
func cleanupAlerts(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) {
	removed, err := alert.Cleanup(ctx, pool, cfg.AlertRetention, time.Now().UTC())
	if err != nil {
		logger.Warn("Alert cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		logger.Info("Alert cleanup complete", "removed", removed)
	}
}
