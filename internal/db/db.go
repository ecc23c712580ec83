// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecheck/engine/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API and engine
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Roster
		"list_active_players": `
			SELECT id, external_id, name, team, position, number,
			       ownership_percentage, current_streamer_score, is_active
			FROM players
			WHERE is_active = true
			ORDER BY name`,
		"player_by_id": `
			SELECT id, external_id, name, team, position, number,
			       ownership_percentage, current_streamer_score, is_active
			FROM players
			WHERE id = $1`,
		"player_game_log": `
			SELECT date, opponent_abbrev, is_home,
			       goals, assists, points, shots, hits, blocks, plus_minus, pim,
			       power_play_points, shorthanded_points, time_on_ice,
			       COALESCE(saves, 0), COALESCE(shots_against, 0),
			       COALESCE(goals_against, 0), COALESCE(wins, 0),
			       COALESCE(shutouts, 0)
			FROM player_game_stats
			WHERE player_id = $1 AND season_id = $2 AND game_type = $3
			ORDER BY date DESC`,
		"set_current_streamer_score": `
			UPDATE players SET current_streamer_score = $2, updated_at = NOW()
			WHERE id = $1`,

		// Rolling stats
		"rolling_stats_for_window": `
			SELECT player_id, window, games_played, goalie_games_started,
			       goals_per_game, assists_per_game, points_per_game,
			       shots_per_game, hits_per_game, blocks_per_game,
			       plus_minus_per_game, pim_per_game,
			       power_play_points_per_game, shorthanded_points_per_game,
			       time_on_ice_per_game,
			       total_goals, total_shots, total_saves,
			       total_shots_against, total_goals_against,
			       save_percentage, goals_against_average, goalie_wins,
			       goalie_shutouts, trend_direction, temperature_tag,
			       streamer_score, computed_at
			FROM player_rolling_stats
			WHERE season_id = $1 AND game_type = $2 AND window = $3`,
		"rolling_stats_all_windows": `
			SELECT player_id, window, games_played, goalie_games_started,
			       goals_per_game, assists_per_game, points_per_game,
			       shots_per_game, hits_per_game, blocks_per_game,
			       plus_minus_per_game, pim_per_game,
			       power_play_points_per_game, shorthanded_points_per_game,
			       time_on_ice_per_game,
			       total_goals, total_shots, total_saves,
			       total_shots_against, total_goals_against,
			       save_percentage, goals_against_average, goalie_wins,
			       goalie_shutouts, trend_direction, temperature_tag,
			       streamer_score, computed_at
			FROM player_rolling_stats
			WHERE season_id = $1 AND game_type = $2`,

		// Scans
		"scan_by_id": `
			SELECT id, user_id, name, description, position_filter, is_preset,
			       alerts_enabled, is_hidden, is_favorite, last_evaluated,
			       match_count, created_at
			FROM scans WHERE id = $1`,
		"scan_rules_for_scan": `
			SELECT id, stat, comparator, value, window, compare_window
			FROM scan_rules WHERE scan_id = $1 ORDER BY created_at`,

		// Alerts
		"alert_states_for_scan": `
			SELECT scan_id, player_id, is_current_match, last_matched_at,
			       last_notified_at
			FROM scan_alert_state WHERE scan_id = $1`,

		// Config
		"app_setting_by_key": `
			SELECT value_json FROM app_settings WHERE key = $1`,

		// Games (back-to-back detection)
		"games_in_range": `
			SELECT date, home_team, away_team
			FROM games
			WHERE season_id = $1 AND game_type = $2
			  AND date >= $3 AND date <= $4`,

		// League profiles
		"active_league": `
			SELECT id, name, league_type, scoring_weights
			FROM leagues
			WHERE is_active = true
			ORDER BY updated_at DESC, created_at DESC
			LIMIT 1`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
