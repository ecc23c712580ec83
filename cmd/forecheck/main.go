// Command forecheck is the engine's operations CLI.
//
// Usage:
//
//	forecheck recalc
//	forecheck scans list
//	forecheck scans evaluate --id <scan-id>
//	forecheck scans refresh --force
//	forecheck config show
//	forecheck seed demo --players-per-team 14 --games 30
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forecheck/engine/internal/config"
	"github.com/forecheck/engine/internal/db"
	"github.com/forecheck/engine/internal/engine"
	"github.com/forecheck/engine/internal/recalc"
	"github.com/forecheck/engine/internal/scan"
	"github.com/forecheck/engine/internal/score"
	"github.com/forecheck/engine/internal/seed"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "forecheck",
		Short: "Forecheck analytics engine CLI",
	}

	root.AddCommand(recalcCmd())
	root.AddCommand(scansCmd())
	root.AddCommand(configCmd())
	root.AddCommand(seedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// recalc command
// --------------------------------------------------------------------------

func recalcCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "Recompute every player's windows and streamer scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, cfg *config.Config, pool *db.Pool, eng *engine.Engine) error {
				if workers <= 0 {
					workers = cfg.RecalcWorkers
				}
				job := recalc.New(eng, workers, logger)
				start := time.Now()
				if err := job.Start(ctx); err != nil {
					return err
				}
				job.Wait()

				status := job.Status()
				logger.Info("Recalculation finished",
					"state", status.State,
					"processed", status.ProcessedPlayers,
					"total", status.TotalPlayers,
					"skipped", len(status.SkippedPlayers),
					"duration", time.Since(start).Round(time.Millisecond))
				if status.State == recalc.StateFailed {
					return fmt.Errorf("recalculation failed: %s", status.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker count (default from config)")
	return cmd
}

// --------------------------------------------------------------------------
// scans command
// --------------------------------------------------------------------------

func scansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scans",
		Short: "Inspect and evaluate scans",
	}
	cmd.AddCommand(scansListCmd())
	cmd.AddCommand(scansEvaluateCmd())
	cmd.AddCommand(scansRefreshCmd())
	return cmd
}

func scansListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all scans with cached match counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, cfg *config.Config, pool *db.Pool, eng *engine.Engine) error {
				if err := scan.EnsurePresets(ctx, pool.Pool); err != nil {
					return err
				}
				scans, err := scan.List(ctx, pool.Pool, true, "")
				if err != nil {
					return err
				}
				for _, s := range scans {
					kind := "custom"
					if s.IsPreset {
						kind = "preset"
					}
					evaluated := "never"
					if s.LastEvaluated != nil {
						evaluated = s.LastEvaluated.Format(time.RFC3339)
					}
					fmt.Printf("%-36s  %-7s  %-24s  matches=%-4d  evaluated=%s\n",
						s.ID, kind, s.Name, s.MatchCount, evaluated)
				}
				return nil
			})
		},
	}
}

func scansEvaluateCmd() *cobra.Command {
	var scanID string
	var limit int
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one scan and print ranked matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scanID == "" {
				return fmt.Errorf("--id is required")
			}
			return withEngine(func(ctx context.Context, cfg *config.Config, pool *db.Pool, eng *engine.Engine) error {
				s, err := scan.ByID(ctx, pool.Pool, scanID)
				if err != nil {
					return err
				}
				matches, err := eng.EvaluateScan(ctx, s, true)
				if err != nil {
					return err
				}
				if len(matches) > limit {
					matches = matches[:limit]
				}
				logger.Info("Scan evaluated", "scan", s.Name, "matches", s.MatchCount)
				for i, p := range matches {
					fmt.Printf("%2d. %-24s %-3s %-2s  score=%.1f  owned=%.0f%%\n",
						i+1, p.Name, p.Team, p.Position,
						p.CurrentStreamerScore, p.OwnershipPercentage)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&scanID, "id", "", "Scan ID to evaluate")
	cmd.Flags().IntVar(&limit, "limit", 25, "Maximum matches to print")
	return cmd
}

func scansRefreshCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh stale cached match counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, cfg *config.Config, pool *db.Pool, eng *engine.Engine) error {
				if err := scan.EnsurePresets(ctx, pool.Pool); err != nil {
					return err
				}
				scans, err := scan.List(ctx, pool.Pool, true, "")
				if err != nil {
					return err
				}
				updated, err := eng.RefreshScans(ctx, scans, cfg.ScanStaleAfter, force)
				if err != nil {
					return err
				}
				logger.Info("Scan refresh complete", "scans", updated, "forced", force)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Refresh regardless of staleness")
	return cmd
}

// --------------------------------------------------------------------------
// config command
// --------------------------------------------------------------------------

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the score configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted score configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				scoreCfg, err := score.LoadConfig(ctx, pool.Pool)
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(scoreCfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// seed command
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate demo data",
	}
	cmd.AddCommand(seedDemoCmd())
	return cmd
}

func seedDemoCmd() *cobra.Command {
	var playersPerTeam, games int
	var rngSeed int64
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Seed a deterministic demo roster, game logs, and schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				start := time.Now()
				result := seed.Demo(ctx, pool.Pool, cfg, playersPerTeam, games, rngSeed, logger)
				logger.Info("Demo seed finished",
					"duration", time.Since(start).Round(time.Second),
					"summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("seed error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&playersPerTeam, "players-per-team", 14, "Players generated per team")
	cmd.Flags().IntVar(&games, "games", 30, "Game logs per player")
	cmd.Flags().Int64Var(&rngSeed, "seed", 20252026, "RNG seed for reproducible pools")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withPool handles config loading, DB connection, and context cancellation.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

// withEngine additionally loads the score config and builds the engine.
func withEngine(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool, eng *engine.Engine) error) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
		scoreCfg, err := score.LoadConfig(ctx, pool.Pool)
		if err != nil {
			return fmt.Errorf("load score config: %w", err)
		}
		registry := score.NewRegistry(scoreCfg)
		eng := engine.New(cfg, pool, registry, logger)
		return fn(ctx, cfg, pool, eng)
	})
}
