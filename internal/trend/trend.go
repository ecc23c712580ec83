// Package trend classifies a player's recent production against a longer
// baseline window as hot, cold, or stable.
//
// The classifier compares the last 5 games with the last 20 using normalized,
// floor-clamped deltas. Its one hard contract is monotonicity: improving
// recent production relative to baseline never lowers the classification rank
// (cold < stable < hot).
package trend

import "github.com/forecheck/engine/internal/stats"

// Direction is the trend classification label.
type Direction string

const (
	Hot    Direction = "hot"
	Cold   Direction = "cold"
	Stable Direction = "stable"
)

// Rank orders directions for monotonicity checks: cold < stable < hot.
func (d Direction) Rank() int {
	switch d {
	case Cold:
		return 0
	case Hot:
		return 2
	default:
		return 1
	}
}

// Minimum samples before a non-stable label is possible.
const (
	minRecentGames   = 5
	minBaselineGames = 10
	recentSpan       = 5
	baselineSpan     = 20
)

// Goalie guardrail levels: a hot/cold label is suppressed when absolute
// performance contradicts the delta.
const (
	goalieHotSVFloor    = 0.915
	goalieColdSVCeiling = 0.905
	goalieHotGAACeiling = 3.0
	goalieColdGAAFloor  = 3.2
)

// Classifier turns a trend score into a direction using configured
// thresholds.
type Classifier struct {
	HotThreshold  float64
	ColdThreshold float64
}

// NewClassifier returns a classifier with the given thresholds. The defaults
// used across the product are +0.25 / -0.25.
func NewClassifier(hot, cold float64) *Classifier {
	return &Classifier{HotThreshold: hot, ColdThreshold: cold}
}

// Classify labels a player's trend from their game log (newest first).
// Fewer than 5 recent or 10 baseline games always yields Stable.
func (c *Classifier) Classify(position string, logs []stats.GameLog) Direction {
	if len(logs) < minRecentGames {
		return Stable
	}
	recent := logs[:recentSpan]
	baseline := logs
	if len(baseline) > baselineSpan {
		baseline = baseline[:baselineSpan]
	}
	if len(baseline) < minBaselineGames {
		return Stable
	}

	var score float64
	if position == "G" {
		score = goalieTrendScore(recent, baseline)
	} else {
		score = skaterTrendScore(recent, baseline, position)
	}

	switch {
	case score >= c.HotThreshold:
		return Hot
	case score <= c.ColdThreshold:
		return Cold
	default:
		return Stable
	}
}

// --------------------------------------------------------------------------
// Skater trend
// --------------------------------------------------------------------------

func perGame(games []stats.GameLog, get func(stats.GameLog) float64) float64 {
	var sum float64
	for _, g := range games {
		sum += get(g)
	}
	return sum / float64(len(games))
}

// delta normalizes (recent - baseline) by the baseline magnitude, clamped to
// a floor so near-zero baselines do not explode the ratio.
func delta(recent, baseline, floor float64) float64 {
	denom := baseline
	if denom < 0 {
		denom = -denom
	}
	if denom < floor {
		denom = floor
	}
	return (recent - baseline) / denom
}

func skaterTrendScore(recent, baseline []stats.GameLog, position string) float64 {
	points := func(g stats.GameLog) float64 { return float64(g.Points) }
	goals := func(g stats.GameLog) float64 { return float64(g.Goals) }
	assists := func(g stats.GameLog) float64 { return float64(g.Assists) }
	shots := func(g stats.GameLog) float64 { return float64(g.Shots) }
	ppp := func(g stats.GameLog) float64 { return float64(g.PowerPlayPoints) }
	toi := func(g stats.GameLog) float64 { return g.TimeOnIce / 60.0 }
	hits := func(g stats.GameLog) float64 { return float64(g.Hits) }
	blocks := func(g stats.GameLog) float64 { return float64(g.Blocks) }

	dPoints := delta(perGame(recent, points), perGame(baseline, points), 0.5)
	dGoals := delta(perGame(recent, goals), perGame(baseline, goals), 0.3)
	dAssists := delta(perGame(recent, assists), perGame(baseline, assists), 0.3)
	dShots := delta(perGame(recent, shots), perGame(baseline, shots), 1.5)
	dPPP := delta(perGame(recent, ppp), perGame(baseline, ppp), 0.2)
	dTOI := delta(perGame(recent, toi), perGame(baseline, toi), 12)
	dBlocks := delta(perGame(recent, blocks), perGame(baseline, blocks), 1.0)
	dHitsBlocks := delta(
		(perGame(recent, hits)+perGame(recent, blocks))/2,
		(perGame(baseline, hits)+perGame(baseline, blocks))/2,
		1.0,
	)

	if position == "D" {
		return dPPP*0.25 + dPoints*0.20 + dShots*0.15 + dTOI*0.20 +
			dAssists*0.05 + dGoals*0.05 + dBlocks*0.10
	}
	return dPoints*0.30 + dGoals*0.20 + dAssists*0.10 + dShots*0.15 +
		dTOI*0.15 + dPPP*0.05 + dHitsBlocks*0.05
}

// --------------------------------------------------------------------------
// Goalie trend
// --------------------------------------------------------------------------

type goalieSlice struct {
	svPct     float64
	gaa       float64
	winRate   float64
	startRate float64
}

func sliceGoalie(games []stats.GameLog) goalieSlice {
	var played []stats.GameLog
	for _, g := range games {
		if g.TimeOnIce > 0 {
			played = append(played, g)
		}
	}
	if len(played) == 0 {
		return goalieSlice{}
	}

	var saves, shots, goals, wins, starts int
	for _, g := range played {
		saves += g.Saves
		shots += g.ShotsAgainst
		goals += g.GoalsAgainst
		wins += g.Wins
		if g.TimeOnIce >= startTOISeconds {
			starts++
		}
	}

	gp := float64(len(played))
	s := goalieSlice{
		gaa:       float64(goals) / gp,
		winRate:   float64(wins) / gp,
		startRate: float64(starts) / gp,
	}
	if shots > 0 {
		s.svPct = float64(saves) / float64(shots)
	}
	return s
}

const startTOISeconds = 2400

func goalieTrendScore(recent, baseline []stats.GameLog) float64 {
	r := sliceGoalie(recent)
	b := sliceGoalie(baseline)

	svDelta := (r.svPct - b.svPct) / 0.01
	gaaDelta := (b.gaa - r.gaa) / 0.10
	winRateDelta := (r.winRate - b.winRate) / 0.20
	startRateDelta := (r.startRate - b.startRate) / 0.20

	score := svDelta*0.45 + gaaDelta*0.25 + winRateDelta*0.15 + startRateDelta*0.15

	// Guardrails: skip hot/cold labels when absolute performance disagrees.
	if score >= 0.25 && (r.svPct < goalieHotSVFloor || r.gaa > goalieHotGAACeiling) {
		return 0.0
	}
	if score <= -0.25 && r.svPct > goalieColdSVCeiling && r.gaa < goalieColdGAAFloor {
		return 0.0
	}
	return score
}
