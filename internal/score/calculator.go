package score

import (
	"math"

	"github.com/forecheck/engine/internal/stats"
	"github.com/forecheck/engine/internal/trend"
)

// MaxScore bounds every streamer score.
const MaxScore = 100.0

// samplePenaltyFactor scales a goalie score down when the sample is a single
// appearance, so one shutout cannot produce a maximal score.
const (
	samplePenaltyFactor = 0.7
	samplePenaltyGames  = 1
)

// Component is one weighted contribution in a score breakdown.
type Component struct {
	Name         string  `json:"name"`
	Raw          float64 `json:"raw"`
	Cap          float64 `json:"cap"`
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Result carries the final score plus every intermediate value for the
// breakdown API. Final is unrounded; Display is the rounded form.
type Result struct {
	Components    []Component `json:"components"`
	BaseBeforeCap float64     `json:"base_before_cap"`
	BaseBudget    float64     `json:"base_budget"`
	Base          float64     `json:"base_score"`
	TrendBonus    float64     `json:"trend_bonus"`
	Availability  float64     `json:"availability_bonus"`
	LeagueFit     *float64    `json:"league_fit,omitempty"`
	BlendWeight   float64     `json:"blend_weight"`
	Final         float64     `json:"final"`
	Display       int         `json:"display"`
}

// Input is everything the calculator needs for one player/window.
type Input struct {
	Position  string
	Rolling   stats.Rolling
	Trend     trend.Direction
	Ownership float64 // rostered percentage, 0-100
	League    *LeagueProfile
}

// Calculator computes streamer scores under one immutable config snapshot.
// Safe for concurrent use.
type Calculator struct {
	cfg *Config
}

// NewCalculator returns a calculator bound to cfg. Passing nil uses defaults.
func NewCalculator(cfg *Config) *Calculator {
	if cfg == nil {
		cfg = Default()
	}
	return &Calculator{cfg: cfg}
}

// Config returns the snapshot the calculator was built with.
func (c *Calculator) Config() *Config { return c.cfg }

// Score computes the streamer score for one player window. Missing rates
// contribute zero; a fully disabled component set still yields a valid score.
func (c *Calculator) Score(in Input) Result {
	var res Result
	if in.Position == "G" {
		res = c.goalieScore(in)
	} else {
		res = c.skaterScore(in)
	}

	res.Final = c.applyLeagueInfluence(res.Final, &res, in)
	res.Final = clamp(res.Final, 0.0, MaxScore)
	res.Display = int(math.Round(res.Final))
	return res
}

// --------------------------------------------------------------------------
// Skaters
// --------------------------------------------------------------------------

func (c *Calculator) skaterScore(in Input) Result {
	cfg := c.cfg.Skater
	isDefense := in.Position == "D"
	caps := cfg.Caps.Forward
	if isDefense {
		caps = cfg.Caps.Defense
	}
	r := in.Rolling

	var res Result
	add := func(name string, raw, cap, weight float64) {
		norm := 0.0
		if cap > 0 {
			norm = clamp01(raw / cap)
		}
		contrib := norm * weight
		res.Components = append(res.Components, Component{
			Name: name, Raw: raw, Cap: cap,
			Normalized: norm, Weight: weight, Contribution: contrib,
		})
		res.BaseBeforeCap += contrib
		res.BaseBudget += weight
	}

	add("points_per_game", r.PointsPerGame, caps.PointsPerGame, cfg.Weights.PointsPerGame)
	add("shots_per_game", r.ShotsPerGame, caps.ShotsPerGame, cfg.Weights.ShotsPerGame)
	add("power_play_points_per_game", r.PowerPlayPointsPerGame, caps.PowerPlayPointsPerGame, cfg.Weights.PowerPlayPointsPerGame)
	add("time_on_ice_per_game", r.TimeOnIcePerGame, caps.TimeOnIcePerGame, cfg.Weights.TimeOnIcePerGame)

	if cfg.Toggles.UseHitsBlocks {
		add("hits_blocks_per_game", r.HitsPerGame+r.BlocksPerGame, caps.HitsBlocksPerGame, cfg.Weights.HitsBlocksPerGame)
	}

	if cfg.Toggles.UsePlusMinus {
		// Plus/minus maps through a midpoint: -1/game is 0, +1/game is full.
		norm := clamp01((r.PlusMinusPerGame + 1.0) / 2.0)
		contrib := norm * cfg.Weights.PlusMinusPerGame
		res.Components = append(res.Components, Component{
			Name: "plus_minus_per_game", Raw: r.PlusMinusPerGame, Cap: 1.0,
			Normalized: norm, Weight: cfg.Weights.PlusMinusPerGame, Contribution: contrib,
		})
		res.BaseBeforeCap += contrib
		res.BaseBudget += cfg.Weights.PlusMinusPerGame
	}

	// The base cannot exceed the theoretical ceiling of its active weights.
	res.Base = math.Min(res.BaseBeforeCap, res.BaseBudget)

	if cfg.Toggles.UseTrendBonus {
		switch in.Trend {
		case trend.Hot:
			res.TrendBonus = cfg.Weights.TrendHotBonus
		case trend.Stable:
			res.TrendBonus = cfg.Weights.TrendStableBonus
		}
	}

	if cfg.Toggles.UseAvailabilityBonus {
		gate := 1.0
		if cfg.Toggles.UseTOIGateForAvailability {
			floor := cfg.TOIGate.ForwardFloor
			if isDefense {
				floor = cfg.TOIGate.DefenseFloor
			}
			gateRange := caps.TimeOnIcePerGame - floor
			if gateRange > 0 {
				gate = clamp01((r.TimeOnIcePerGame - floor) / gateRange)
			}
		}
		res.Availability = clamp01((100.0-in.Ownership)/100.0) * cfg.Weights.AvailabilityBonus * gate
	}

	res.Final = res.Base + res.TrendBonus + res.Availability
	return res
}

// --------------------------------------------------------------------------
// Goalies
// --------------------------------------------------------------------------

func (c *Calculator) goalieScore(in Input) Result {
	cfg := c.cfg.Goalie
	r := in.Rolling

	var res Result
	if r.GamesPlayed <= 0 {
		return res
	}

	scales := cfg.Scales
	svRange := math.Max(scales.SavePercentageRange, 0.0001)
	gaaRange := math.Max(scales.GoalsAgainstAverageRange, 0.0001)

	add := func(name string, raw, cap, norm, weight float64) {
		contrib := norm * weight
		res.Components = append(res.Components, Component{
			Name: name, Raw: raw, Cap: cap,
			Normalized: norm, Weight: weight, Contribution: contrib,
		})
		res.BaseBeforeCap += contrib
		res.BaseBudget += weight
	}

	add("save_percentage", r.SavePercentage, scales.SavePercentageFloor+svRange,
		clamp01((r.SavePercentage-scales.SavePercentageFloor)/svRange), cfg.Weights.SavePercentage)
	add("goals_against_average", r.GoalsAgainstAverage, scales.GoalsAgainstAverageCeiling,
		clamp01((scales.GoalsAgainstAverageCeiling-r.GoalsAgainstAverage)/gaaRange), cfg.Weights.GoalsAgainstAverage)

	winRate := float64(r.GoalieWins) / float64(r.GamesPlayed)
	add("wins", winRate, 1.0, clamp01(winRate), cfg.Weights.Wins)

	// Start rate is measured against the window's expected game count so a
	// backup with two relief appearances is not scored as a volume starter.
	expected := r.Window.Size()
	if expected <= 0 {
		expected = r.GamesPlayed
	}
	startRate := float64(r.GoalieGamesStarted) / float64(expected)
	add("starts", startRate, 1.0, clamp01(startRate), cfg.Weights.Starts)

	res.Base = math.Min(res.BaseBeforeCap, res.BaseBudget)

	if cfg.Toggles.UseTrendBonus {
		switch in.Trend {
		case trend.Hot:
			res.TrendBonus = cfg.Weights.TrendHotBonus
		case trend.Stable:
			res.TrendBonus = cfg.Weights.TrendStableBonus
		}
	}

	if cfg.Toggles.UseAvailabilityBonus {
		res.Availability = clamp01((100.0-in.Ownership)/100.0) * cfg.Weights.AvailabilityBonus
	}

	res.Final = res.Base + res.TrendBonus + res.Availability

	if cfg.Toggles.UseSamplePenalty && r.GamesPlayed <= samplePenaltyGames {
		res.Final *= samplePenaltyFactor
	}
	return res
}
