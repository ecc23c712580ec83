package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Set holds every player's computed windows, keyed by player ID. It is the
// read-only snapshot scan evaluation and the breakdown API work from.
type Set map[string]map[Window]Rolling

// Get returns the rolling row for (playerID, w) if present.
func (s Set) Get(playerID string, w Window) (Rolling, bool) {
	windows, ok := s[playerID]
	if !ok {
		return Rolling{}, false
	}
	r, ok := windows[w]
	return r, ok
}

// Put stores a rolling row into the set.
func (s Set) Put(r Rolling) {
	windows, ok := s[r.PlayerID]
	if !ok {
		windows = make(map[Window]Rolling, len(Windows))
		s[r.PlayerID] = windows
	}
	windows[r.Window] = r
}

// Upsert replaces the (player, window) aggregate row wholesale. Windows are
// never partially patched; last write wins per player/window.
func Upsert(ctx context.Context, pool *pgxpool.Pool, seasonID string, gameType int, r Rolling) error {
	windowSize := r.Window.Size()
	_, err := pool.Exec(ctx, `
		INSERT INTO player_rolling_stats (
			player_id, window, season_id, game_type, window_size,
			games_played, goalie_games_started, computed_at, last_game_date,
			goals_per_game, assists_per_game, points_per_game, shots_per_game,
			hits_per_game, blocks_per_game, plus_minus_per_game, pim_per_game,
			power_play_points_per_game, shorthanded_points_per_game,
			time_on_ice_per_game,
			total_goals, total_assists, total_points, total_shots, total_hits,
			total_blocks, total_plus_minus, total_saves, total_shots_against,
			total_goals_against,
			save_percentage, goals_against_average, goalie_wins, goalie_shutouts,
			trend_direction, temperature_tag, streamer_score
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
			$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,
			$35,$36,$37
		)
		ON CONFLICT (player_id, window, season_id, game_type) DO UPDATE SET
			window_size = EXCLUDED.window_size,
			games_played = EXCLUDED.games_played,
			goalie_games_started = EXCLUDED.goalie_games_started,
			computed_at = EXCLUDED.computed_at,
			last_game_date = EXCLUDED.last_game_date,
			goals_per_game = EXCLUDED.goals_per_game,
			assists_per_game = EXCLUDED.assists_per_game,
			points_per_game = EXCLUDED.points_per_game,
			shots_per_game = EXCLUDED.shots_per_game,
			hits_per_game = EXCLUDED.hits_per_game,
			blocks_per_game = EXCLUDED.blocks_per_game,
			plus_minus_per_game = EXCLUDED.plus_minus_per_game,
			pim_per_game = EXCLUDED.pim_per_game,
			power_play_points_per_game = EXCLUDED.power_play_points_per_game,
			shorthanded_points_per_game = EXCLUDED.shorthanded_points_per_game,
			time_on_ice_per_game = EXCLUDED.time_on_ice_per_game,
			total_goals = EXCLUDED.total_goals,
			total_assists = EXCLUDED.total_assists,
			total_points = EXCLUDED.total_points,
			total_shots = EXCLUDED.total_shots,
			total_hits = EXCLUDED.total_hits,
			total_blocks = EXCLUDED.total_blocks,
			total_plus_minus = EXCLUDED.total_plus_minus,
			total_saves = EXCLUDED.total_saves,
			total_shots_against = EXCLUDED.total_shots_against,
			total_goals_against = EXCLUDED.total_goals_against,
			save_percentage = EXCLUDED.save_percentage,
			goals_against_average = EXCLUDED.goals_against_average,
			goalie_wins = EXCLUDED.goalie_wins,
			goalie_shutouts = EXCLUDED.goalie_shutouts,
			trend_direction = EXCLUDED.trend_direction,
			temperature_tag = EXCLUDED.temperature_tag,
			streamer_score = EXCLUDED.streamer_score`,
		r.PlayerID, string(r.Window), seasonID, gameType, windowSize,
		r.GamesPlayed, r.GoalieGamesStarted, r.ComputedAt, nullableTime(r),
		r.GoalsPerGame, r.AssistsPerGame, r.PointsPerGame, r.ShotsPerGame,
		r.HitsPerGame, r.BlocksPerGame, r.PlusMinusPerGame, r.PIMPerGame,
		r.PowerPlayPointsPerGame, r.ShorthandedPointsPerGame,
		r.TimeOnIcePerGame,
		r.TotalGoals, r.TotalAssists, r.TotalPoints, r.TotalShots, r.TotalHits,
		r.TotalBlocks, r.TotalPlusMinus, r.TotalSaves, r.TotalShotsAgainst,
		r.TotalGoalsAgainst,
		r.SavePercentage, r.GoalsAgainstAverage, r.GoalieWins, r.GoalieShutouts,
		r.TrendDirection, r.TemperatureTag, r.StreamerScore,
	)
	if err != nil {
		return fmt.Errorf("upsert rolling stats %s/%s: %w", r.PlayerID, r.Window, err)
	}
	return nil
}

func nullableTime(r Rolling) interface{} {
	if r.LastGameDate.IsZero() {
		return nil
	}
	return r.LastGameDate
}

// LoadSet loads every player's windows for the season scope.
func LoadSet(ctx context.Context, pool *pgxpool.Pool, seasonID string, gameType int) (Set, error) {
	rows, err := pool.Query(ctx, "rolling_stats_all_windows", seasonID, gameType)
	if err != nil {
		return nil, fmt.Errorf("load rolling stats: %w", err)
	}
	defer rows.Close()

	set := make(Set)
	for rows.Next() {
		r, err := scanRolling(rows)
		if err != nil {
			return nil, err
		}
		set.Put(r)
	}
	return set, rows.Err()
}

// LoadWindow loads every player's row for one window.
func LoadWindow(ctx context.Context, pool *pgxpool.Pool, seasonID string, gameType int, w Window) ([]Rolling, error) {
	rows, err := pool.Query(ctx, "rolling_stats_for_window", seasonID, gameType, string(w))
	if err != nil {
		return nil, fmt.Errorf("load rolling stats %s: %w", w, err)
	}
	defer rows.Close()

	var out []Rolling
	for rows.Next() {
		r, err := scanRolling(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRolling(row rowScanner) (Rolling, error) {
	var r Rolling
	var window string
	err := row.Scan(
		&r.PlayerID, &window, &r.GamesPlayed, &r.GoalieGamesStarted,
		&r.GoalsPerGame, &r.AssistsPerGame, &r.PointsPerGame,
		&r.ShotsPerGame, &r.HitsPerGame, &r.BlocksPerGame,
		&r.PlusMinusPerGame, &r.PIMPerGame,
		&r.PowerPlayPointsPerGame, &r.ShorthandedPointsPerGame,
		&r.TimeOnIcePerGame,
		&r.TotalGoals, &r.TotalShots, &r.TotalSaves,
		&r.TotalShotsAgainst, &r.TotalGoalsAgainst,
		&r.SavePercentage, &r.GoalsAgainstAverage, &r.GoalieWins,
		&r.GoalieShutouts, &r.TrendDirection, &r.TemperatureTag,
		&r.StreamerScore, &r.ComputedAt,
	)
	if err != nil {
		return Rolling{}, fmt.Errorf("scan rolling stats: %w", err)
	}
	r.Window = Window(window)
	return r, nil
}
