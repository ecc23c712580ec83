// Package seed generates deterministic demo data: a roster of skaters and
// goalies, a season of game logs, and a schedule with a back-to-back, enough
// to exercise every scan and the full scoring pipeline locally.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecheck/engine/internal/config"
	"github.com/forecheck/engine/internal/roster"
)

var teams = []string{"BOS", "TOR", "MTL", "NYR", "DET", "CHI", "COL", "EDM"}

var firstNames = []string{
	"Alex", "Brady", "Cole", "Dylan", "Elias", "Filip", "Gabe", "Henrik",
	"Ivan", "Jake", "Kirill", "Liam", "Mats", "Nico", "Owen", "Pavel",
}

var lastNames = []string{
	"Andersson", "Bergeron", "Carlsson", "Dubois", "Eriksson", "Fischer",
	"Girard", "Holm", "Ivanov", "Jansson", "Kovacs", "Lindgren", "Martin",
	"Nylund", "Olsen", "Petrov",
}

// Result tracks counts from a demo seed run.
type Result struct {
	Players  int
	GameLogs int
	Games    int
	Errors   []string
}

// Summary returns a human-readable summary of the seed run.
func (r *Result) Summary() string {
	return fmt.Sprintf("players=%d game_logs=%d games=%d errors=%d",
		r.Players, r.GameLogs, r.Games, len(r.Errors))
}

func (r *Result) addErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Demo populates players, game logs, and the schedule with deterministic
// pseudo-random data. The same rngSeed always produces the same pool.
func Demo(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, playersPerTeam, gamesPerPlayer int, rngSeed int64, logger *slog.Logger) Result {
	var result Result
	rng := rand.New(rand.NewSource(rngSeed))

	logger.Info("Seeding demo data",
		"players_per_team", playersPerTeam, "games_per_player", gamesPerPlayer)

	for _, team := range teams {
		for i := 0; i < playersPerTeam; i++ {
			p := demoPlayer(rng, team, i)
			if err := upsertPlayer(ctx, pool, p); err != nil {
				result.addErrorf("player %s: %v", p.Name, err)
				continue
			}
			result.Players++

			logs := demoGameLogs(rng, p, gamesPerPlayer)
			for _, g := range logs {
				if err := insertGameLog(ctx, pool, cfg, p, g); err != nil {
					result.addErrorf("game log %s: %v", p.Name, err)
					continue
				}
				result.GameLogs++
			}
		}
	}

	games, err := demoSchedule(ctx, pool, cfg, rng)
	if err != nil {
		result.addErrorf("schedule: %v", err)
	}
	result.Games = games

	logger.Info("Demo seed complete", "summary", result.Summary())
	return result
}

func demoPlayer(rng *rand.Rand, team string, idx int) roster.Player {
	positions := []string{roster.Center, roster.LeftWing, roster.RightWing, roster.Defenseman}
	position := positions[idx%len(positions)]
	// Two goalies per team.
	if idx >= len(positions)*3 && idx < len(positions)*3+2 {
		position = roster.Goalie
	}
	return roster.Player{
		ID:                  uuid.NewString(),
		ExternalID:          fmt.Sprintf("demo-%s-%d", team, idx),
		Name:                firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
		Team:                team,
		Position:            position,
		Number:              rng.Intn(97) + 1,
		OwnershipPercentage: float64(rng.Intn(101)),
		IsActive:            true,
	}
}

type demoLog struct {
	date                             time.Time
	goals, assists, shots            int
	hits, blocks, plusMinus, pim     int
	ppp, shp                         int
	toiSeconds                       float64
	saves, shotsAgainst, againstGoal int
	win, shutout                     int
}

// demoGameLogs produces a log per player, newest last, with a talent factor
// so the pool has distinguishable tiers.
func demoGameLogs(rng *rand.Rand, p roster.Player, n int) []demoLog {
	talent := 0.4 + rng.Float64()*0.8 // 0.4 weak .. 1.2 star
	logs := make([]demoLog, 0, n)
	date := time.Now().UTC().AddDate(0, 0, -n*2)

	for i := 0; i < n; i++ {
		date = date.AddDate(0, 0, 2)
		g := demoLog{date: date}

		if p.IsGoalie() {
			// Roughly alternate starts with relief appearances.
			if rng.Float64() < 0.55*talent {
				g.toiSeconds = 3600
				g.shotsAgainst = 20 + rng.Intn(20)
				g.againstGoal = rng.Intn(5)
				g.saves = g.shotsAgainst - g.againstGoal
				if g.againstGoal == 0 {
					g.shutout = 1
				}
				if rng.Float64() < 0.5+0.2*talent {
					g.win = 1
				}
			} else if rng.Float64() < 0.2 {
				g.toiSeconds = 1200
				g.shotsAgainst = 5 + rng.Intn(10)
				g.againstGoal = rng.Intn(3)
				g.saves = g.shotsAgainst - g.againstGoal
			}
			// Otherwise a dressed-but-unused backup night: zero TOI.
		} else {
			g.goals = poissonish(rng, 0.35*talent)
			g.assists = poissonish(rng, 0.55*talent)
			g.shots = 1 + rng.Intn(int(3+3*talent))
			g.hits = rng.Intn(4)
			g.blocks = rng.Intn(3)
			if p.Position == roster.Defenseman {
				g.blocks += rng.Intn(3)
			}
			g.plusMinus = rng.Intn(5) - 2
			g.pim = rng.Intn(3) * 2
			if g.goals+g.assists > 0 && rng.Float64() < 0.3 {
				g.ppp = 1
			}
			g.toiSeconds = (12 + 8*talent + rng.Float64()*4) * 60
		}
		logs = append(logs, g)
	}
	return logs
}

// poissonish is a cheap small-count sampler good enough for demo data.
func poissonish(rng *rand.Rand, mean float64) int {
	n := 0
	for mean > 0 && rng.Float64() < mean {
		n++
		mean /= 2
	}
	return n
}

func upsertPlayer(ctx context.Context, pool *pgxpool.Pool, p roster.Player) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO players (id, external_id, name, team, position, number,
			ownership_percentage, current_streamer_score, is_active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, NOW(), NOW())
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name, team = EXCLUDED.team,
			position = EXCLUDED.position, number = EXCLUDED.number,
			ownership_percentage = EXCLUDED.ownership_percentage,
			is_active = EXCLUDED.is_active, updated_at = NOW()`,
		p.ID, p.ExternalID, p.Name, p.Team, p.Position, p.Number,
		p.OwnershipPercentage, p.IsActive,
	)
	return err
}

func insertGameLog(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, p roster.Player, g demoLog) error {
	gameID := fmt.Sprintf("demo-%s-%s", p.ID, g.date.Format("20060102"))
	_, err := pool.Exec(ctx, `
		INSERT INTO player_game_stats (id, player_id, game_id, season_id,
			game_type, date, opponent_abbrev, is_home,
			goals, assists, points, shots, hits, blocks, plus_minus, pim,
			power_play_points, shorthanded_points, time_on_ice,
			saves, shots_against, goals_against, wins, shutouts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (player_id, game_id) DO NOTHING`,
		uuid.NewString(), p.ID, gameID, cfg.SeasonID, cfg.GameType,
		g.date, opponentFor(p.Team, g.date), g.date.Day()%2 == 0,
		g.goals, g.assists, g.goals+g.assists, g.shots, g.hits, g.blocks,
		g.plusMinus, g.pim, g.ppp, g.shp, g.toiSeconds,
		g.saves, g.shotsAgainst, g.againstGoal, g.win, g.shutout,
	)
	return err
}

func opponentFor(team string, date time.Time) string {
	for _, t := range teams {
		if t != team {
			if (date.Day()+len(team))%len(teams) == indexOf(t) {
				return t
			}
		}
	}
	return teams[0]
}

func indexOf(team string) int {
	for i, t := range teams {
		if t == team {
			return i
		}
	}
	return 0
}

// demoSchedule inserts upcoming games, including a back-to-back for the
// first two teams so the spot-start scan has something to find.
func demoSchedule(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, rng *rand.Rand) (int, error) {
	inserted := 0
	now := time.Now().UTC()
	for day := 0; day < 4; day++ {
		date := now.AddDate(0, 0, day)
		for i := 0; i+1 < len(teams); i += 2 {
			// The first pairing plays on consecutive days; the rest skip
			// alternate days.
			if i > 0 && day%2 == 1 {
				continue
			}
			home, away := teams[i], teams[i+1]
			if rng.Intn(2) == 0 {
				home, away = away, home
			}
			_, err := pool.Exec(ctx, `
				INSERT INTO games (id, date, season_id, game_type, home_team,
					away_team, status)
				VALUES ($1, $2, $3, $4, $5, $6, 'scheduled')
				ON CONFLICT (id) DO NOTHING`,
				fmt.Sprintf("demo-%s-%s-%s", home, away, date.Format("20060102")),
				date, cfg.SeasonID, cfg.GameType, home, away,
			)
			if err != nil {
				return inserted, err
			}
			inserted++
		}
	}
	return inserted, nil
}
