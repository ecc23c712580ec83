// Package score converts rolling-window aggregates plus trend and ownership
// signals into a bounded 0-100 streamer score, optionally blended with a
// league-fit score computed from an external league profile.
package score

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Config is the versioned streamer-score configuration document. It is an
// explicit structured type: every recognized stat key is a named field, and
// Parse rejects unknown keys instead of silently ignoring them.
type Config struct {
	LeagueInfluence LeagueInfluence `json:"league_influence"`
	Skater          SkaterConfig    `json:"skater"`
	Goalie          GoalieConfig    `json:"goalie"`
}

// LeagueInfluence controls blending against the active league profile.
type LeagueInfluence struct {
	Enabled      bool    `json:"enabled"`
	Weight       float64 `json:"weight"`
	MinimumGames int     `json:"minimum_games"`
}

// SkaterWeights are the point budgets for each skater score component.
type SkaterWeights struct {
	PointsPerGame          float64 `json:"points_per_game"`
	ShotsPerGame           float64 `json:"shots_per_game"`
	PowerPlayPointsPerGame float64 `json:"power_play_points_per_game"`
	TimeOnIcePerGame       float64 `json:"time_on_ice_per_game"`
	PlusMinusPerGame       float64 `json:"plus_minus_per_game"`
	HitsBlocksPerGame      float64 `json:"hits_blocks_per_game"`
	TrendHotBonus          float64 `json:"trend_hot_bonus"`
	TrendStableBonus       float64 `json:"trend_stable_bonus"`
	AvailabilityBonus      float64 `json:"availability_bonus"`
}

// SkaterCaps are the per-game rates at which a component contribution maxes
// out. Defensemen get their own caps reflecting lower offensive baselines.
type SkaterCaps struct {
	PointsPerGame          float64 `json:"points_per_game"`
	ShotsPerGame           float64 `json:"shots_per_game"`
	PowerPlayPointsPerGame float64 `json:"power_play_points_per_game"`
	TimeOnIcePerGame       float64 `json:"time_on_ice_per_game"`
	HitsBlocksPerGame      float64 `json:"hits_blocks_per_game"`
}

// SkaterToggles enable or disable optional score components.
type SkaterToggles struct {
	UsePlusMinus              bool `json:"use_plus_minus"`
	UseHitsBlocks             bool `json:"use_hits_blocks"`
	UseTrendBonus             bool `json:"use_trend_bonus"`
	UseAvailabilityBonus      bool `json:"use_availability_bonus"`
	UseTOIGateForAvailability bool `json:"use_toi_gate_for_availability"`
}

// TOIGate scales the availability bonus down for low-usage players.
type TOIGate struct {
	ForwardFloor float64 `json:"forward_floor"`
	DefenseFloor float64 `json:"defense_floor"`
}

// PositionCaps holds the cap sets per skater position group.
type PositionCaps struct {
	Forward SkaterCaps `json:"forward"`
	Defense SkaterCaps `json:"defense"`
}

// SkaterConfig groups all skater scoring parameters.
type SkaterConfig struct {
	Weights SkaterWeights `json:"weights"`
	Caps    PositionCaps  `json:"caps"`
	Toggles SkaterToggles `json:"toggles"`
	TOIGate TOIGate       `json:"toi_gate"`
}

// GoalieWeights are the point budgets for each goalie score component.
type GoalieWeights struct {
	SavePercentage      float64 `json:"save_percentage"`
	GoalsAgainstAverage float64 `json:"goals_against_average"`
	Wins                float64 `json:"wins"`
	Starts              float64 `json:"starts"`
	TrendHotBonus       float64 `json:"trend_hot_bonus"`
	TrendStableBonus    float64 `json:"trend_stable_bonus"`
	AvailabilityBonus   float64 `json:"availability_bonus"`
}

// GoalieScales normalize goalie rates: save percentage against a floor+range,
// goals-against average against a ceiling+range since lower is better.
type GoalieScales struct {
	SavePercentageFloor        float64 `json:"save_percentage_floor"`
	SavePercentageRange        float64 `json:"save_percentage_range"`
	GoalsAgainstAverageCeiling float64 `json:"goals_against_average_ceiling"`
	GoalsAgainstAverageRange   float64 `json:"goals_against_average_range"`
}

// GoalieToggles enable or disable optional goalie score components.
type GoalieToggles struct {
	UseTrendBonus        bool `json:"use_trend_bonus"`
	UseAvailabilityBonus bool `json:"use_availability_bonus"`
	UseSamplePenalty     bool `json:"use_sample_penalty"`
}

// GoalieConfig groups all goalie scoring parameters.
type GoalieConfig struct {
	Weights GoalieWeights `json:"weights"`
	Scales  GoalieScales  `json:"scales"`
	Toggles GoalieToggles `json:"toggles"`
}

// Default returns the product-default configuration.
func Default() *Config {
	return &Config{
		LeagueInfluence: LeagueInfluence{
			Enabled:      true,
			Weight:       0.35,
			MinimumGames: 3,
		},
		Skater: SkaterConfig{
			Weights: SkaterWeights{
				PointsPerGame:          17.0,
				ShotsPerGame:           17.0,
				PowerPlayPointsPerGame: 5.0,
				TimeOnIcePerGame:       24.0,
				PlusMinusPerGame:       5.0,
				HitsBlocksPerGame:      5.0,
				TrendHotBonus:          15.0,
				TrendStableBonus:       5.0,
				AvailabilityBonus:      14.0,
			},
			Caps: PositionCaps{
				Forward: SkaterCaps{
					PointsPerGame:          1.4,
					ShotsPerGame:           3.0,
					PowerPlayPointsPerGame: 0.5,
					TimeOnIcePerGame:       21.0,
					HitsBlocksPerGame:      4.0,
				},
				Defense: SkaterCaps{
					PointsPerGame:          1.0,
					ShotsPerGame:           2.6,
					PowerPlayPointsPerGame: 0.6,
					TimeOnIcePerGame:       24.0,
					HitsBlocksPerGame:      5.0,
				},
			},
			Toggles: SkaterToggles{
				UsePlusMinus:              true,
				UseHitsBlocks:             true,
				UseTrendBonus:             true,
				UseAvailabilityBonus:      false,
				UseTOIGateForAvailability: true,
			},
			TOIGate: TOIGate{
				ForwardFloor: 14.0,
				DefenseFloor: 16.0,
			},
		},
		Goalie: GoalieConfig{
			Weights: GoalieWeights{
				SavePercentage:      20.0,
				GoalsAgainstAverage: 15.0,
				Wins:                18.0,
				Starts:              17.0,
				TrendHotBonus:       15.0,
				TrendStableBonus:    5.0,
				AvailabilityBonus:   10.0,
			},
			Scales: GoalieScales{
				SavePercentageFloor:        0.88,
				SavePercentageRange:        0.05,
				GoalsAgainstAverageCeiling: 3.5,
				GoalsAgainstAverageRange:   1.5,
			},
			Toggles: GoalieToggles{
				UseTrendBonus:        true,
				UseAvailabilityBonus: false,
				UseSamplePenalty:     true,
			},
		},
	}
}

// Parse decodes a configuration document, rejecting unknown keys so a typoed
// stat key fails loudly at save time rather than being silently dropped.
func Parse(raw []byte) (*Config, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	cfg := Default()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse score config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize clamps values into their legal ranges in place.
func (c *Config) Sanitize() {
	c.LeagueInfluence.Weight = clamp(c.LeagueInfluence.Weight, 0.0, 1.0)
	if c.LeagueInfluence.MinimumGames < 0 {
		c.LeagueInfluence.MinimumGames = 0
	}
	if c.LeagueInfluence.MinimumGames > 82 {
		c.LeagueInfluence.MinimumGames = 82
	}
}

// Encode serializes the config for persistence.
func (c *Config) Encode() ([]byte, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode score config: %w", err)
	}
	return raw, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0.0, 1.0) }
