// Package scan holds declarative player-pool filters: a scan is a conjunction
// of threshold rules evaluated against precomputed rolling windows. Rules are
// AND-only with no grouping; richer boolean expressions are out of scope on
// purpose.
package scan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forecheck/engine/internal/roster"
	"github.com/forecheck/engine/internal/stats"
)

// Comparators accepted in rules. Equality is epsilon-based.
const (
	CmpGT = ">"
	CmpGE = ">="
	CmpLT = "<"
	CmpLE = "<="
	CmpEQ = "="
)

// equalityEpsilon is the tolerance for the "=" comparator.
const equalityEpsilon = 0.001

// Stat keys that read player-level values instead of a rolling window. They
// never take a compare window.
const (
	StatOwnership     = "ownership_percentage"
	StatStreamerScore = "streamer_score"
	StatB2BStart      = "b2b_start_opportunity"
	StatTOIDelta      = "time_on_ice_delta"
)

// windowStats is the vocabulary of rule stats resolved from a rolling window
// row. The bool marks stats only defined for goalies.
var windowStats = map[string]bool{
	"goals":                 false,
	"assists":               false,
	"points":                false,
	"shots":                 false,
	"hits":                  false,
	"blocks":                false,
	"plus_minus":            false,
	"pim":                   false,
	"power_play_points":     false,
	"shorthanded_points":    false,
	"time_on_ice":           false,
	"shooting_percentage":   false,
	"save_percentage":       true,
	"goals_against_average": true,
	"wins":                  true,
	"shutouts":              true,
	"goalie_starts":         true,
	"goalie_games_started":  true,
	"saves_per_game":        true,
}

// skaterOnlyStats are undefined for goalies.
var skaterOnlyStats = map[string]bool{
	"shooting_percentage": true,
}

var validComparators = map[string]bool{
	CmpGT: true, CmpGE: true, CmpLT: true, CmpLE: true, CmpEQ: true,
}

// Rule is one threshold condition. When CompareWindow is set the rule tests
// stat(Window) - stat(CompareWindow) against Value instead of the stat itself.
type Rule struct {
	ID            string  `json:"id"`
	Stat          string  `json:"stat"`
	Comparator    string  `json:"comparator"`
	Value         float64 `json:"value"`
	Window        string  `json:"window"`
	CompareWindow string  `json:"compare_window,omitempty"`
}

// Scan is a saved rule set. MatchCount and LastEvaluated are a
// staleness-bounded cache of the most recent evaluation, not a source of
// truth.
type Scan struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id,omitempty"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	PositionFilter string     `json:"position_filter,omitempty"`
	IsPreset       bool       `json:"is_preset"`
	AlertsEnabled  bool       `json:"alerts_enabled"`
	IsHidden       bool       `json:"is_hidden"`
	IsFavorite     bool       `json:"is_favorite"`
	LastEvaluated  *time.Time `json:"last_evaluated,omitempty"`
	MatchCount     int        `json:"match_count"`
	CreatedAt      time.Time  `json:"created_at"`
	Rules          []Rule     `json:"rules"`
}

// NewID returns a fresh scan or rule identifier.
func NewID() string { return uuid.NewString() }

// Validate checks a scan definition at save time. Unknown stat keys are
// rejected here, never at evaluation time.
func (s *Scan) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scan name is required")
	}
	if len(s.Rules) == 0 {
		return fmt.Errorf("scan needs at least one rule")
	}
	if s.PositionFilter != "" && !roster.ValidPosition(s.PositionFilter) {
		return fmt.Errorf("unknown position filter %q", s.PositionFilter)
	}
	for i := range s.Rules {
		if err := s.Rules[i].validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *Rule) validate() error {
	if !validComparators[r.Comparator] {
		return fmt.Errorf("unknown comparator %q", r.Comparator)
	}
	if !stats.Window(r.Window).Valid() {
		return fmt.Errorf("unknown window %q", r.Window)
	}
	if r.CompareWindow != "" {
		if !stats.Window(r.CompareWindow).Valid() {
			return fmt.Errorf("unknown compare window %q", r.CompareWindow)
		}
		if r.CompareWindow == r.Window {
			return fmt.Errorf("compare window must differ from window")
		}
	}

	switch r.Stat {
	case StatOwnership, StatStreamerScore, StatB2BStart:
		if r.CompareWindow != "" {
			return fmt.Errorf("stat %q does not take a compare window", r.Stat)
		}
		return nil
	case StatTOIDelta:
		if r.CompareWindow == "" {
			return fmt.Errorf("stat %q requires a compare window", r.Stat)
		}
		return nil
	}
	if _, ok := windowStats[r.Stat]; !ok {
		return fmt.Errorf("unknown stat %q", r.Stat)
	}
	return nil
}

func compare(value float64, comparator string, target float64) bool {
	switch comparator {
	case CmpGT:
		return value > target
	case CmpGE:
		return value >= target
	case CmpLT:
		return value < target
	case CmpLE:
		return value <= target
	case CmpEQ:
		diff := value - target
		if diff < 0 {
			diff = -diff
		}
		return diff < equalityEpsilon
	}
	return false
}
