package stats

import "time"

// startTOISeconds is the ice-time floor that counts a goalie appearance as a
// start (40 minutes).
const startTOISeconds = 2400

// GameLog is one player-game record, as landed by the upstream sync job.
// Ordered newest-first everywhere in this package.
type GameLog struct {
	Date     time.Time
	Opponent string
	Home     bool

	// Skater counting stats
	Goals             int
	Assists           int
	Points            int
	Shots             int
	Hits              int
	Blocks            int
	PlusMinus         int
	PIM               int
	PowerPlayPoints   int
	ShorthandedPoints int
	TimeOnIce         float64 // seconds

	// Goalie counting stats
	Saves        int
	ShotsAgainst int
	GoalsAgainst int
	Wins         int
	Shutouts     int
}

// Rolling is a derived aggregate row for one (player, window) pair.
// Replace-on-write: each recomputation produces a whole new row.
type Rolling struct {
	PlayerID           string
	Window             Window
	GamesPlayed        int
	GoalieGamesStarted int
	LastGameDate       time.Time
	ComputedAt         time.Time

	// Skater per-game rates
	GoalsPerGame             float64
	AssistsPerGame           float64
	PointsPerGame            float64
	ShotsPerGame             float64
	HitsPerGame              float64
	BlocksPerGame            float64
	PlusMinusPerGame         float64
	PIMPerGame               float64
	PowerPlayPointsPerGame   float64
	ShorthandedPointsPerGame float64
	TimeOnIcePerGame         float64 // minutes

	// Totals used by derived rule stats
	TotalGoals        int
	TotalAssists      int
	TotalPoints       int
	TotalShots        int
	TotalHits         int
	TotalBlocks       int
	TotalPlusMinus    int
	TotalSaves        int
	TotalShotsAgainst int
	TotalGoalsAgainst int

	// Goalie aggregates
	SavePercentage      float64
	GoalsAgainstAverage float64
	GoalieWins          int
	GoalieShutouts      int

	// Derived signals filled in by the recalculation pipeline
	TrendDirection string
	TemperatureTag string
	StreamerScore  float64
}

// Aggregate computes the rolling aggregate for one window from a player's game
// log. The log must be ordered newest-first; entries dated after refDate are
// excluded. A zero refDate means "no cutoff". Zero games in the window yields
// a zeroed row with GamesPlayed == 0 — downstream treats that as insufficient
// sample, never as a negative signal.
func Aggregate(playerID, position string, logs []GameLog, w Window, refDate time.Time) Rolling {
	scoped := make([]GameLog, 0, len(logs))
	for _, g := range logs {
		if !refDate.IsZero() && g.Date.After(refDate) {
			continue
		}
		scoped = append(scoped, g)
		if n := w.Size(); n > 0 && len(scoped) == n {
			break
		}
	}

	if len(scoped) == 0 {
		return emptyRolling(playerID, w)
	}

	if position == "G" {
		return aggregateGoalie(playerID, scoped, w)
	}
	return aggregateSkater(playerID, scoped, w)
}

func aggregateSkater(playerID string, games []GameLog, w Window) Rolling {
	gp := len(games)
	r := Rolling{
		PlayerID:       playerID,
		Window:         w,
		GamesPlayed:    gp,
		LastGameDate:   games[0].Date,
		ComputedAt:     time.Now().UTC(),
		TrendDirection: "stable",
		TemperatureTag: "stable",
	}

	var totalTOI float64
	for _, g := range games {
		r.TotalGoals += g.Goals
		r.TotalAssists += g.Assists
		r.TotalPoints += g.Points
		r.TotalShots += g.Shots
		r.TotalHits += g.Hits
		r.TotalBlocks += g.Blocks
		r.TotalPlusMinus += g.PlusMinus
		totalTOI += g.TimeOnIce
	}
	var totalPIM, totalPPP, totalSHP int
	for _, g := range games {
		totalPIM += g.PIM
		totalPPP += g.PowerPlayPoints
		totalSHP += g.ShorthandedPoints
	}

	n := float64(gp)
	r.GoalsPerGame = float64(r.TotalGoals) / n
	r.AssistsPerGame = float64(r.TotalAssists) / n
	r.PointsPerGame = float64(r.TotalPoints) / n
	r.ShotsPerGame = float64(r.TotalShots) / n
	r.HitsPerGame = float64(r.TotalHits) / n
	r.BlocksPerGame = float64(r.TotalBlocks) / n
	r.PlusMinusPerGame = float64(r.TotalPlusMinus) / n
	r.PIMPerGame = float64(totalPIM) / n
	r.PowerPlayPointsPerGame = float64(totalPPP) / n
	r.ShorthandedPointsPerGame = float64(totalSHP) / n
	r.TimeOnIcePerGame = (totalTOI / n) / 60.0

	return r
}

func aggregateGoalie(playerID string, games []GameLog, w Window) Rolling {
	// Games with zero ice time count as roster appearances but are excluded
	// from rate denominators.
	played := make([]GameLog, 0, len(games))
	starts := 0
	for _, g := range games {
		if g.TimeOnIce > 0 {
			played = append(played, g)
		}
		if g.TimeOnIce >= startTOISeconds {
			starts++
		}
	}

	r := Rolling{
		PlayerID:           playerID,
		Window:             w,
		GamesPlayed:        len(played),
		GoalieGamesStarted: starts,
		LastGameDate:       games[0].Date,
		ComputedAt:         time.Now().UTC(),
		TrendDirection:     "stable",
		TemperatureTag:     "stable",
	}
	if len(played) == 0 {
		return r
	}

	for _, g := range played {
		r.TotalSaves += g.Saves
		r.TotalShotsAgainst += g.ShotsAgainst
		r.TotalGoalsAgainst += g.GoalsAgainst
		r.GoalieWins += g.Wins
		r.GoalieShutouts += g.Shutouts
	}

	if r.TotalShotsAgainst > 0 {
		r.SavePercentage = float64(r.TotalSaves) / float64(r.TotalShotsAgainst)
	}
	r.GoalsAgainstAverage = float64(r.TotalGoalsAgainst) / float64(len(played))

	return r
}

func emptyRolling(playerID string, w Window) Rolling {
	return Rolling{
		PlayerID:       playerID,
		Window:         w,
		ComputedAt:     time.Now().UTC(),
		TrendDirection: "stable",
		TemperatureTag: "stable",
	}
}
