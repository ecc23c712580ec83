package scan_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/forecheck/engine/internal/roster"
	"github.com/forecheck/engine/internal/scan"
	"github.com/forecheck/engine/internal/stats"
)

func skater(id, name string, scoreNow float64) roster.Player {
	return roster.Player{
		ID: id, Name: name, Team: "BOS", Position: roster.Center,
		CurrentStreamerScore: scoreNow, IsActive: true,
	}
}

func rolling(playerID string, w stats.Window, mutate func(r *stats.Rolling)) stats.Rolling {
	r := stats.Rolling{PlayerID: playerID, Window: w, GamesPlayed: 10}
	mutate(&r)
	return r
}

func newPool(players []roster.Player, rows ...stats.Rolling) *scan.Pool {
	set := make(stats.Set)
	for _, r := range rows {
		set.Put(r)
	}
	return &scan.Pool{Players: players, Stats: set, B2BTeams: map[string]bool{}}
}

func shotsScan(comparator string, value float64) *scan.Scan {
	return &scan.Scan{
		ID: "s1", Name: "Shooters",
		Rules: []scan.Rule{{Stat: "shots", Comparator: comparator, Value: value, Window: "L10"}},
	}
}

func TestEvaluate(t *testing.T) {
	Convey("Given a pool with shooters above and below a threshold", t, func() {
		a := skater("a", "Amos", 80)
		b := skater("b", "Bode", 60)
		inactive := skater("x", "Xavi", 99)
		inactive.IsActive = false

		pool := newPool(
			[]roster.Player{a, b, inactive},
			rolling("a", stats.L10, func(r *stats.Rolling) { r.ShotsPerGame = 3.0 }),
			rolling("b", stats.L10, func(r *stats.Rolling) { r.ShotsPerGame = 2.0 }),
			rolling("x", stats.L10, func(r *stats.Rolling) { r.ShotsPerGame = 5.0 }),
		)

		Convey("When the comparator is inclusive at the boundary", func() {
			matched := pool.Evaluate(shotsScan(">=", 3.0))

			Convey("Then the boundary player matches and inactives never do", func() {
				So(matched, ShouldHaveLength, 1)
				So(matched[0].ID, ShouldEqual, "a")
			})
		})

		Convey("When the comparator is strict at the boundary", func() {
			So(pool.Evaluate(shotsScan(">", 3.0)), ShouldBeEmpty)
		})

		Convey("When a player has no computed row for the window", func() {
			bare := newPool([]roster.Player{a})
			So(bare.Evaluate(shotsScan(">=", 0.0)), ShouldBeEmpty)
		})
	})

	Convey("Given a multi-rule scan", t, func() {
		a := skater("a", "Amos", 80)
		pool := newPool(
			[]roster.Player{a},
			rolling("a", stats.L10, func(r *stats.Rolling) {
				r.ShotsPerGame = 4.0
				r.TotalShots = 40
				r.TotalGoals = 2 // 5% shooting
			}),
		)

		s := &scan.Scan{
			ID: "s2", Name: "Buy Low",
			Rules: []scan.Rule{
				{Stat: "shots", Comparator: ">", Value: 3.0, Window: "L10"},
				{Stat: "shooting_percentage", Comparator: "<", Value: 0.08, Window: "L10"},
			},
		}

		Convey("Then all rules must hold together", func() {
			So(pool.Evaluate(s), ShouldHaveLength, 1)

			s.Rules[1].Value = 0.03
			So(pool.Evaluate(s), ShouldBeEmpty)
		})
	})

	Convey("Given matches with different current scores", t, func() {
		low := skater("l", "Low", 40)
		high := skater("h", "High", 90)
		pool := newPool(
			[]roster.Player{low, high},
			rolling("l", stats.L10, func(r *stats.Rolling) { r.ShotsPerGame = 4.0 }),
			rolling("h", stats.L10, func(r *stats.Rolling) { r.ShotsPerGame = 4.0 }),
		)

		Convey("Then results come back highest score first", func() {
			matched := pool.Evaluate(shotsScan(">", 3.0))
			So(matched, ShouldHaveLength, 2)
			So(matched[0].ID, ShouldEqual, "h")
			So(matched[1].ID, ShouldEqual, "l")
		})
	})

	Convey("Given a position filter", t, func() {
		d := skater("d", "Dman", 50)
		d.Position = roster.Defenseman
		c := skater("c", "Centre", 50)
		pool := newPool(
			[]roster.Player{d, c},
			rolling("d", stats.L10, func(r *stats.Rolling) { r.PowerPlayPointsPerGame = 0.5 }),
			rolling("c", stats.L10, func(r *stats.Rolling) { r.PowerPlayPointsPerGame = 0.5 }),
		)

		s := &scan.Scan{
			ID: "s3", Name: "PP QB", PositionFilter: roster.Defenseman,
			Rules: []scan.Rule{{Stat: "power_play_points", Comparator: ">=", Value: 0.3, Window: "L10"}},
		}

		Convey("Then only that position is considered", func() {
			matched := pool.Evaluate(s)
			So(matched, ShouldHaveLength, 1)
			So(matched[0].ID, ShouldEqual, "d")
		})
	})
}

func TestEvaluateDeltas(t *testing.T) {
	deltaScan := &scan.Scan{
		ID: "d1", Name: "Deployment Bump",
		Rules: []scan.Rule{{
			Stat: scan.StatTOIDelta, Comparator: ">=", Value: 1.5,
			Window: "L5", CompareWindow: "Season",
		}},
	}

	Convey("Given players with rising and flat ice time", t, func() {
		up := skater("up", "Upton", 55)
		flat := skater("ft", "Flatley", 55)
		pool := newPool(
			[]roster.Player{up, flat},
			rolling("up", stats.L5, func(r *stats.Rolling) { r.TimeOnIcePerGame = 18.0 }),
			rolling("up", stats.Season, func(r *stats.Rolling) { r.TimeOnIcePerGame = 15.5 }),
			rolling("ft", stats.L5, func(r *stats.Rolling) { r.TimeOnIcePerGame = 16.5 }),
			rolling("ft", stats.Season, func(r *stats.Rolling) { r.TimeOnIcePerGame = 15.5 }),
		)

		Convey("Then only the 2.5 minute bump clears a 1.5 threshold", func() {
			matched := pool.Evaluate(deltaScan)
			So(matched, ShouldHaveLength, 1)
			So(matched[0].ID, ShouldEqual, "up")
		})
	})

	Convey("Given a player missing the baseline window", t, func() {
		up := skater("up", "Upton", 55)
		pool := newPool(
			[]roster.Player{up},
			rolling("up", stats.L5, func(r *stats.Rolling) { r.TimeOnIcePerGame = 18.0 }),
		)

		Convey("Then the delta rule cannot match", func() {
			So(pool.Evaluate(deltaScan), ShouldBeEmpty)
		})
	})
}

func TestEvaluateSavePercentage(t *testing.T) {
	svScan := &scan.Scan{
		ID: "sv1", Name: "Hot Goalies",
		Rules: []scan.Rule{{
			Stat: "save_percentage", Comparator: ">=", Value: 0.920, Window: "L10",
		}},
	}
	g := roster.Player{
		ID: "g1", Name: "g1", Team: "BOS", Position: roster.Goalie, IsActive: true,
	}

	Convey("Given a goalie whose rolling row carries shot totals", t, func() {
		pool := newPool([]roster.Player{g}, rolling("g1", stats.L10, func(r *stats.Rolling) {
			r.SavePercentage = 0.930
			r.TotalSaves = 56
			r.TotalShotsAgainst = 60
			r.TotalGoalsAgainst = 4
		}))

		Convey("Then the save percentage rule matches", func() {
			So(pool.Evaluate(svScan), ShouldHaveLength, 1)
		})

		Convey("But a row that faced no shots never matches, whatever its stored percentage", func() {
			idle := newPool([]roster.Player{g}, rolling("g1", stats.L10, func(r *stats.Rolling) {
				r.SavePercentage = 0.930
			}))
			So(idle.Evaluate(svScan), ShouldBeEmpty)
		})
	})
}

func TestEvaluateB2BStart(t *testing.T) {
	b2bScan := &scan.Scan{
		ID: "b1", Name: "Spot Starts",
		Rules: []scan.Rule{{
			Stat: scan.StatB2BStart, Comparator: ">=", Value: 1.0, Window: "L5",
		}},
	}

	goalie := func(id, team string) roster.Player {
		return roster.Player{
			ID: id, Name: id, Team: team, Position: roster.Goalie, IsActive: true,
		}
	}
	goalieRows := func(id string, sv float64, l10Starts int) []stats.Rolling {
		return []stats.Rolling{
			rolling(id, stats.L5, func(r *stats.Rolling) {
				r.GamesPlayed = 3
				r.TotalShotsAgainst = 60
				r.SavePercentage = sv
			}),
			rolling(id, stats.L10, func(r *stats.Rolling) {
				r.GamesPlayed = 6
				r.GoalieGamesStarted = l10Starts
			}),
		}
	}

	Convey("Given a sharp backup on a team with a back-to-back", t, func() {
		g := goalie("g1", "BOS")
		pool := newPool([]roster.Player{g}, goalieRows("g1", 0.925, 4)...)
		pool.B2BTeams = map[string]bool{"BOS": true}

		Convey("Then the opportunity rule matches", func() {
			So(pool.Evaluate(b2bScan), ShouldHaveLength, 1)
		})

		Convey("But not when the team has no back-to-back", func() {
			pool.B2BTeams = map[string]bool{}
			So(pool.Evaluate(b2bScan), ShouldBeEmpty)
		})

		Convey("And not when recent save percentage is below the floor", func() {
			cold := newPool([]roster.Player{g}, goalieRows("g1", 0.900, 4)...)
			cold.B2BTeams = map[string]bool{"BOS": true}
			So(cold.Evaluate(b2bScan), ShouldBeEmpty)
		})

		Convey("And not for an established starter", func() {
			starter := newPool([]roster.Player{g}, goalieRows("g1", 0.925, 6)...)
			starter.B2BTeams = map[string]bool{"BOS": true}
			So(starter.Evaluate(b2bScan), ShouldBeEmpty)
		})
	})
}

func TestBackToBackTeams(t *testing.T) {
	day := func(y, m, d int) time.Time {
		return time.Date(y, time.Month(m), d, 17, 0, 0, 0, time.UTC)
	}

	Convey("Given a schedule where one team plays consecutive days", t, func() {
		games := []roster.UpcomingGame{
			{Date: day(2026, 1, 10), HomeTeam: "BOS", AwayTeam: "TOR"},
			{Date: day(2026, 1, 11), HomeTeam: "MTL", AwayTeam: "BOS"},
			{Date: day(2026, 1, 13), HomeTeam: "TOR", AwayTeam: "MTL"},
		}

		Convey("Then only that team is flagged", func() {
			teams := scan.BackToBackTeams(games)
			So(teams["BOS"], ShouldBeTrue)
			So(teams["TOR"], ShouldBeFalse)
			So(teams["MTL"], ShouldBeFalse)
		})
	})

	Convey("Given two games on the same schedule day", t, func() {
		games := []roster.UpcomingGame{
			{Date: day(2026, 1, 10), HomeTeam: "BOS", AwayTeam: "TOR"},
			{Date: time.Date(2026, 1, 10, 23, 30, 0, 0, time.UTC), HomeTeam: "NYR", AwayTeam: "BOS"},
		}

		Convey("Then a doubleheader day is not a back-to-back", func() {
			So(scan.BackToBackTeams(games)["BOS"], ShouldBeFalse)
		})
	})

	Convey("Given the detection horizon around a fixed time", t, func() {
		now := time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC)
		start, end := scan.B2BQueryRange(now)

		Convey("Then the range spans one day back through three ahead", func() {
			So(start.Before(now), ShouldBeTrue)
			So(end.After(now), ShouldBeTrue)
			So(end.Sub(start), ShouldBeGreaterThan, 4*24*time.Hour)
			So(end.Sub(start), ShouldBeLessThan, 6*24*time.Hour)
		})
	})
}
