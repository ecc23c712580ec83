package score

import (
	"strings"

	"github.com/forecheck/engine/internal/stats"
)

// LeagueProfile is the active external league's scoring configuration,
// consumed read-only. Mode is "categories" or "points".
type LeagueProfile struct {
	ID      string
	Name    string
	Mode    string
	Weights map[string]float64
}

// statAliases maps the free-form stat labels league imports use onto
// canonical keys.
var statAliases = map[string]string{
	"g": "goals", "goals": "goals",
	"a": "assists", "assists": "assists",
	"pts": "points", "point": "points", "points": "points",
	"+/-": "plus_minus", "plus_minus": "plus_minus", "plusminus": "plus_minus",
	"pim": "pim",
	"ppp": "power_play_points", "power_play_points": "power_play_points", "powerplaypoints": "power_play_points",
	"shp": "shorthanded_points", "shorthanded_points": "shorthanded_points",
	"sog": "shots", "shots": "shots", "shot": "shots",
	"hits": "hits", "hit": "hits",
	"blk": "blocks", "blocks": "blocks", "block": "blocks",
	"toi": "time_on_ice", "time_on_ice": "time_on_ice",
	"w": "wins", "wins": "wins",
	"sv%": "save_percentage", "sv_pct": "save_percentage", "save_percentage": "save_percentage",
	"gaa": "goals_against_average", "goals_against_average": "goals_against_average",
	"sv": "saves", "saves": "saves",
	"sa": "shots_against", "shots_against": "shots_against",
	"ga": "goals_against", "goals_against": "goals_against",
	"sho": "shutouts", "shutout": "shutouts", "shutouts": "shutouts",
	"gs": "starts", "starts": "starts", "goalie_starts": "starts", "goalie_games_started": "starts",
}

// Stats where a lower value is better; their ratios are inverted.
var lowerBetterStats = map[string]bool{
	"goals_against_average": true,
	"goals_against":         true,
}

// Points-mode minimum values for stats whose practical floor is not zero.
var leagueMinValues = map[string]float64{
	"plus_minus":            -2.0,
	"save_percentage":       0.84,
	"goals_against_average": 1.2,
}

var skaterCapDefaults = map[string]float64{
	"goals":              0.9,
	"assists":            1.0,
	"points":             1.8,
	"shots":              4.8,
	"hits":               4.0,
	"blocks":             3.2,
	"plus_minus":         2.0,
	"pim":                2.5,
	"power_play_points":  0.9,
	"shorthanded_points": 0.2,
	"time_on_ice":        25.0,
}

var goalieCapDefaults = map[string]float64{
	"wins":                  1.0,
	"save_percentage":       0.94,
	"goals_against_average": 5.0,
	"saves":                 40.0,
	"shots_against":         44.0,
	"goals_against":         5.0,
	"shutouts":              0.3,
	"starts":                1.0,
}

func normalizeLeagueStat(key string) (string, bool) {
	k := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
	canonical, ok := statAliases[k]
	return canonical, ok
}

// leagueMetrics builds the canonical stat->rate map used by league-fit
// scoring, disjoint per role.
func leagueMetrics(position string, r stats.Rolling) map[string]float64 {
	if position == "G" {
		gp := float64(r.GamesPlayed)
		m := map[string]float64{
			"save_percentage":       r.SavePercentage,
			"goals_against_average": r.GoalsAgainstAverage,
		}
		if gp > 0 {
			m["wins"] = float64(r.GoalieWins) / gp
			m["saves"] = float64(r.TotalSaves) / gp
			m["shots_against"] = float64(r.TotalShotsAgainst) / gp
			m["goals_against"] = float64(r.TotalGoalsAgainst) / gp
			m["shutouts"] = float64(r.GoalieShutouts) / gp
			m["starts"] = float64(r.GoalieGamesStarted) / gp
		} else {
			m["wins"], m["saves"], m["shots_against"] = 0, 0, 0
			m["goals_against"], m["shutouts"], m["starts"] = 0, 0, 0
		}
		return m
	}
	return map[string]float64{
		"goals":              r.GoalsPerGame,
		"assists":            r.AssistsPerGame,
		"points":             r.PointsPerGame,
		"shots":              r.ShotsPerGame,
		"hits":               r.HitsPerGame,
		"blocks":             r.BlocksPerGame,
		"plus_minus":         r.PlusMinusPerGame,
		"pim":                r.PIMPerGame,
		"power_play_points":  r.PowerPlayPointsPerGame,
		"shorthanded_points": r.ShorthandedPointsPerGame,
		"time_on_ice":        r.TimeOnIcePerGame,
	}
}

// leagueCapMap derives per-stat caps for a position, anchored to the current
// score config where it has an opinion.
func (c *Calculator) leagueCapMap(position string) map[string]float64 {
	if position == "G" {
		scales := c.cfg.Goalie.Scales
		caps := make(map[string]float64, len(goalieCapDefaults))
		for k, v := range goalieCapDefaults {
			caps[k] = v
		}
		caps["save_percentage"] = scales.SavePercentageFloor + scales.SavePercentageRange
		gaaCeiling := scales.GoalsAgainstAverageCeiling
		if gaaCeiling < 0.1 {
			gaaCeiling = 0.1
		}
		caps["goals_against_average"] = gaaCeiling
		return caps
	}

	skaterCaps := c.cfg.Skater.Caps.Forward
	if position == "D" {
		skaterCaps = c.cfg.Skater.Caps.Defense
	}
	caps := make(map[string]float64, len(skaterCapDefaults))
	for k, v := range skaterCapDefaults {
		caps[k] = v
	}
	caps["points"] = skaterCaps.PointsPerGame
	caps["shots"] = skaterCaps.ShotsPerGame
	caps["power_play_points"] = skaterCaps.PowerPlayPointsPerGame
	caps["time_on_ice"] = skaterCaps.TimeOnIcePerGame
	// Split the combined hits+blocks cap into per-stat guidance.
	hb := skaterCaps.HitsBlocksPerGame
	if hb <= 0 {
		hb = 6.0
	}
	caps["hits"] = max2(1.0, hb*0.6)
	caps["blocks"] = max2(1.0, hb*0.5)
	return caps
}

// LeagueFit scores the player's rates against the league's stat weights on a
// 0-100 scale. Returns nil when the profile has no usable weights.
func (c *Calculator) LeagueFit(position string, r stats.Rolling, league *LeagueProfile) *float64 {
	if league == nil || len(league.Weights) == 0 {
		return nil
	}
	metrics := leagueMetrics(position, r)
	caps := c.leagueCapMap(position)

	if strings.ToLower(league.Mode) == "points" {
		return leagueFitPoints(league.Weights, metrics, caps)
	}
	return leagueFitCategories(league.Weights, metrics, caps)
}

func leagueFitCategories(weights, metrics, caps map[string]float64) *float64 {
	var weightedSum, totalWeight float64

	for rawStat, weight := range weights {
		stat, ok := normalizeLeagueStat(rawStat)
		if !ok {
			continue
		}
		value, ok := metrics[stat]
		if !ok {
			continue
		}
		absWeight := weight
		if absWeight < 0 {
			absWeight = -absWeight
		}
		if absWeight <= 0 {
			continue
		}
		cap := caps[stat]
		if cap < 0.01 {
			cap = 0.01
		}

		var ratio float64
		if lowerBetterStats[stat] {
			ratio = clamp01((cap - value) / cap)
		} else {
			ratio = clamp01(value / cap)
		}
		if weight < 0 {
			ratio = 1.0 - ratio
		}

		weightedSum += ratio * absWeight
		totalWeight += absWeight
	}

	if totalWeight <= 0 {
		return nil
	}
	fit := clamp01(weightedSum/totalWeight) * MaxScore
	return &fit
}

func leagueFitPoints(weights, metrics, caps map[string]float64) *float64 {
	var totalPoints, minPoints, maxPoints float64
	used := 0

	for rawStat, weight := range weights {
		stat, ok := normalizeLeagueStat(rawStat)
		if !ok {
			continue
		}
		value, ok := metrics[stat]
		if !ok || weight == 0 {
			continue
		}
		used++

		maxValue := caps[stat]
		if maxValue == 0 {
			maxValue = 1.0
		}
		minValue := leagueMinValues[stat]
		if maxValue < minValue {
			maxValue, minValue = minValue, maxValue
		}

		clamped := clamp(value, minValue, maxValue)
		totalPoints += clamped * weight

		if weight >= 0 {
			maxPoints += maxValue * weight
			minPoints += minValue * weight
		} else {
			maxPoints += minValue * weight
			minPoints += maxValue * weight
		}
	}

	if used == 0 {
		return nil
	}
	span := maxPoints - minPoints
	if span <= 0 {
		return nil
	}
	fit := clamp01((totalPoints-minPoints)/span) * MaxScore
	return &fit
}

// applyLeagueInfluence blends the base score toward the league-fit score.
// The blend weight ramps linearly from zero to the configured weight as
// games played approaches minimum_games.
func (c *Calculator) applyLeagueInfluence(base float64, res *Result, in Input) float64 {
	li := c.cfg.LeagueInfluence
	if !li.Enabled || in.League == nil {
		return base
	}

	blend := clamp01(li.Weight)
	if blend <= 0 {
		return base
	}
	gp := in.Rolling.GamesPlayed
	if li.MinimumGames > 0 && gp < li.MinimumGames {
		blend *= clamp01(float64(gp) / float64(li.MinimumGames))
	}
	if blend <= 0 {
		return base
	}

	fit := c.LeagueFit(in.Position, in.Rolling, in.League)
	if fit == nil {
		return base
	}
	res.LeagueFit = fit
	res.BlendWeight = blend
	return (1.0-blend)*base + blend*(*fit)
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
