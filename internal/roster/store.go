package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecheck/engine/internal/stats"
)

// ListActive returns all active players ordered by name.
func ListActive(ctx context.Context, pool *pgxpool.Pool) ([]Player, error) {
	rows, err := pool.Query(ctx, "list_active_players")
	if err != nil {
		return nil, fmt.Errorf("list active players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(
			&p.ID, &p.ExternalID, &p.Name, &p.Team, &p.Position, &p.Number,
			&p.OwnershipPercentage, &p.CurrentStreamerScore, &p.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// ByID returns one player.
func ByID(ctx context.Context, pool *pgxpool.Pool, id string) (*Player, error) {
	var p Player
	err := pool.QueryRow(ctx, "player_by_id", id).Scan(
		&p.ID, &p.ExternalID, &p.Name, &p.Team, &p.Position, &p.Number,
		&p.OwnershipPercentage, &p.CurrentStreamerScore, &p.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("player %s: %w", id, err)
	}
	return &p, nil
}

// GameLog returns a player's game log for the season scope, newest first.
func GameLog(ctx context.Context, pool *pgxpool.Pool, playerID, seasonID string, gameType int) ([]stats.GameLog, error) {
	rows, err := pool.Query(ctx, "player_game_log", playerID, seasonID, gameType)
	if err != nil {
		return nil, fmt.Errorf("game log for %s: %w", playerID, err)
	}
	defer rows.Close()

	var logs []stats.GameLog
	for rows.Next() {
		var g stats.GameLog
		var opponent *string
		var home *bool
		if err := rows.Scan(
			&g.Date, &opponent, &home,
			&g.Goals, &g.Assists, &g.Points, &g.Shots, &g.Hits, &g.Blocks,
			&g.PlusMinus, &g.PIM, &g.PowerPlayPoints, &g.ShorthandedPoints,
			&g.TimeOnIce,
			&g.Saves, &g.ShotsAgainst, &g.GoalsAgainst, &g.Wins, &g.Shutouts,
		); err != nil {
			return nil, fmt.Errorf("scan game log: %w", err)
		}
		if opponent != nil {
			g.Opponent = *opponent
		}
		if home != nil {
			g.Home = *home
		}
		logs = append(logs, g)
	}
	return logs, rows.Err()
}

// SetCurrentScore updates the denormalized streamer score on the player row.
func SetCurrentScore(ctx context.Context, pool *pgxpool.Pool, playerID string, score float64) error {
	_, err := pool.Exec(ctx, "set_current_streamer_score", playerID, score)
	if err != nil {
		return fmt.Errorf("set current score for %s: %w", playerID, err)
	}
	return nil
}

// UpcomingGame is a scheduled game used for back-to-back detection.
type UpcomingGame struct {
	Date     time.Time
	HomeTeam string
	AwayTeam string
}

// GamesInRange returns scheduled games between from and to inclusive.
func GamesInRange(ctx context.Context, pool *pgxpool.Pool, seasonID string, gameType int, from, to time.Time) ([]UpcomingGame, error) {
	rows, err := pool.Query(ctx, "games_in_range", seasonID, gameType, from, to)
	if err != nil {
		return nil, fmt.Errorf("games in range: %w", err)
	}
	defer rows.Close()

	var games []UpcomingGame
	for rows.Next() {
		var g UpcomingGame
		if err := rows.Scan(&g.Date, &g.HomeTeam, &g.AwayTeam); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
