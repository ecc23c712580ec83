package scan

import (
	"sort"
	"time"

	"github.com/forecheck/engine/internal/roster"
	"github.com/forecheck/engine/internal/stats"
)

// Back-to-back detection horizon, in schedule days around today.
const (
	b2bDaysBack  = 1
	b2bDaysAhead = 3

	b2bSavePctFloor  = 0.910
	b2bStartShareMax = 0.5
	b2bStartWindow   = 10.0
)

// Schedule days roll over on Eastern time, matching how the league publishes
// its schedule.
var eastern = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// Pool is the immutable snapshot a scan evaluates against: the active roster,
// every player's computed windows, and the set of teams with an upcoming
// back-to-back. Evaluation never touches the database.
type Pool struct {
	Players  []roster.Player
	Stats    stats.Set
	B2BTeams map[string]bool
}

// Evaluate returns the players matching every rule of the scan, ordered by
// current streamer score descending. An invalid or empty rule set matches
// nothing.
func (p *Pool) Evaluate(s *Scan) []roster.Player {
	if len(s.Rules) == 0 {
		return nil
	}

	var matched []roster.Player
	for _, player := range p.Players {
		if !player.IsActive {
			continue
		}
		if s.PositionFilter != "" && player.Position != s.PositionFilter {
			continue
		}
		if p.matchesAll(player, s.Rules) {
			matched = append(matched, player)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CurrentStreamerScore != matched[j].CurrentStreamerScore {
			return matched[i].CurrentStreamerScore > matched[j].CurrentStreamerScore
		}
		return matched[i].Name < matched[j].Name
	})
	return matched
}

func (p *Pool) matchesAll(player roster.Player, rules []Rule) bool {
	for i := range rules {
		if !p.matchesRule(player, &rules[i]) {
			return false
		}
	}
	return true
}

func (p *Pool) matchesRule(player roster.Player, r *Rule) bool {
	switch r.Stat {
	case StatOwnership:
		return compare(player.OwnershipPercentage, r.Comparator, r.Value)
	case StatStreamerScore:
		return compare(player.CurrentStreamerScore, r.Comparator, r.Value)
	case StatB2BStart:
		return p.matchesB2BStart(player, r)
	}

	stat := r.Stat
	if stat == StatTOIDelta {
		stat = "time_on_ice"
	}

	if r.CompareWindow != "" {
		primary, ok := p.statValue(player, stats.Window(r.Window), stat)
		if !ok {
			return false
		}
		baseline, ok := p.statValue(player, stats.Window(r.CompareWindow), stat)
		if !ok {
			return false
		}
		return compare(primary-baseline, r.Comparator, r.Value)
	}

	value, ok := p.statValue(player, stats.Window(r.Window), stat)
	if !ok {
		return false
	}
	return compare(value, r.Comparator, r.Value)
}

// statValue resolves a rule stat for one player and window. The second return
// is false when the stat is undefined for the player: no computed row, an
// empty sample, or a stat belonging to the other position group.
func (p *Pool) statValue(player roster.Player, w stats.Window, stat string) (float64, bool) {
	goalieOnly, known := windowStats[stat]
	if !known {
		return 0, false
	}
	if goalieOnly && !player.IsGoalie() {
		return 0, false
	}
	if skaterOnlyStats[stat] && player.IsGoalie() {
		return 0, false
	}

	r, ok := p.Stats.Get(player.ID, w)
	if !ok || r.GamesPlayed == 0 {
		return 0, false
	}

	switch stat {
	case "goals":
		return r.GoalsPerGame, true
	case "assists":
		return r.AssistsPerGame, true
	case "points":
		return r.PointsPerGame, true
	case "shots":
		return r.ShotsPerGame, true
	case "hits":
		return r.HitsPerGame, true
	case "blocks":
		return r.BlocksPerGame, true
	case "plus_minus":
		return r.PlusMinusPerGame, true
	case "pim":
		return r.PIMPerGame, true
	case "power_play_points":
		return r.PowerPlayPointsPerGame, true
	case "shorthanded_points":
		return r.ShorthandedPointsPerGame, true
	case "time_on_ice":
		return r.TimeOnIcePerGame, true
	case "shooting_percentage":
		if r.TotalShots == 0 {
			return 0, false
		}
		return float64(r.TotalGoals) / float64(r.TotalShots), true
	case "save_percentage":
		if r.TotalShotsAgainst == 0 {
			return 0, false
		}
		return r.SavePercentage, true
	case "goals_against_average":
		return r.GoalsAgainstAverage, true
	case "wins":
		return float64(r.GoalieWins), true
	case "shutouts":
		return float64(r.GoalieShutouts), true
	case "goalie_starts", "goalie_games_started":
		return float64(r.GoalieGamesStarted), true
	case "saves_per_game":
		return float64(r.TotalSaves) / float64(r.GamesPlayed), true
	}
	return 0, false
}

// matchesB2BStart flags backup goalies likely to get a spot start: the team
// has a back-to-back in the horizon, the goalie's recent save percentage
// clears the floor, and they started under half of the last ten games. The
// rule value is 1 when the opportunity exists, 0 otherwise.
func (p *Pool) matchesB2BStart(player roster.Player, r *Rule) bool {
	if !player.IsGoalie() {
		return false
	}
	if !p.B2BTeams[player.Team] {
		return false
	}
	recent, ok := p.Stats.Get(player.ID, stats.L5)
	if !ok || recent.TotalShotsAgainst == 0 || recent.SavePercentage <= b2bSavePctFloor {
		return false
	}
	baseline, ok := p.Stats.Get(player.ID, stats.L10)
	if !ok {
		return false
	}

	startShare := float64(baseline.GoalieGamesStarted) / b2bStartWindow
	value := 0.0
	if startShare < b2bStartShareMax {
		value = 1.0
	}
	return compare(value, r.Comparator, r.Value)
}

// B2BQueryRange returns the UTC bounds of the back-to-back detection horizon
// around now: whole Eastern schedule days, one back and three ahead.
func B2BQueryRange(now time.Time) (time.Time, time.Time) {
	day := now.In(eastern)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, eastern).
		AddDate(0, 0, -b2bDaysBack)
	end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, eastern).
		AddDate(0, 0, b2bDaysAhead)
	return start.UTC(), end.UTC()
}

// BackToBackTeams returns teams playing on consecutive Eastern schedule days
// within the given games.
func BackToBackTeams(games []roster.UpcomingGame) map[string]bool {
	teamDays := make(map[string]map[string]bool)
	add := func(team string, day string) {
		if team == "" {
			return
		}
		if teamDays[team] == nil {
			teamDays[team] = make(map[string]bool)
		}
		teamDays[team][day] = true
	}
	for _, g := range games {
		day := g.Date.In(eastern).Format("2006-01-02")
		add(g.HomeTeam, day)
		add(g.AwayTeam, day)
	}

	teams := make(map[string]bool)
	for team, days := range teamDays {
		ordered := make([]string, 0, len(days))
		for d := range days {
			ordered = append(ordered, d)
		}
		sort.Strings(ordered)
		for i := 1; i < len(ordered); i++ {
			prev, _ := time.ParseInLocation("2006-01-02", ordered[i-1], time.UTC)
			cur, _ := time.ParseInLocation("2006-01-02", ordered[i], time.UTC)
			if cur.Sub(prev) == 24*time.Hour {
				teams[team] = true
				break
			}
		}
	}
	return teams
}
