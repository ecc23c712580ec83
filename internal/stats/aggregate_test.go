package stats_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/forecheck/engine/internal/stats"
)

// skaterLogs builds n identical skater games, newest first, one per day
// ending at end.
func skaterLogs(n int, end time.Time, g stats.GameLog) []stats.GameLog {
	logs := make([]stats.GameLog, n)
	for i := 0; i < n; i++ {
		entry := g
		entry.Date = end.AddDate(0, 0, -i)
		logs[i] = entry
	}
	return logs
}

func TestAggregateSkater(t *testing.T) {
	end := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	Convey("Given a skater with five identical games", t, func() {
		logs := skaterLogs(5, end, stats.GameLog{
			Goals: 1, Assists: 1, Points: 2, Shots: 3,
			Hits: 2, Blocks: 1, PlusMinus: 1, PIM: 2,
			PowerPlayPoints: 1, TimeOnIce: 1200,
		})

		Convey("When aggregating the L5 window", func() {
			r := stats.Aggregate("p1", "C", logs, stats.L5, time.Time{})

			Convey("Then per-game rates reflect the raw totals", func() {
				So(r.GamesPlayed, ShouldEqual, 5)
				So(r.PointsPerGame, ShouldAlmostEqual, 2.0)
				So(r.ShotsPerGame, ShouldAlmostEqual, 3.0)
				So(r.HitsPerGame, ShouldAlmostEqual, 2.0)
				So(r.PlusMinusPerGame, ShouldAlmostEqual, 1.0)
				So(r.PowerPlayPointsPerGame, ShouldAlmostEqual, 1.0)
				So(r.TimeOnIcePerGame, ShouldAlmostEqual, 20.0)
				So(r.TotalShots, ShouldEqual, 15)
				So(r.TotalGoals, ShouldEqual, 5)
				So(r.LastGameDate, ShouldResemble, end)
			})
		})
	})

	Convey("Given a skater with more games than the window holds", t, func() {
		recent := skaterLogs(5, end, stats.GameLog{Goals: 2, Points: 2})
		older := skaterLogs(3, end.AddDate(0, 0, -5), stats.GameLog{Goals: 1, Points: 1})
		logs := append(recent, older...)

		Convey("When aggregating L5", func() {
			r := stats.Aggregate("p1", "C", logs, stats.L5, time.Time{})

			Convey("Then only the newest five games are counted", func() {
				So(r.GamesPlayed, ShouldEqual, 5)
				So(r.TotalGoals, ShouldEqual, 10)
			})
		})

		Convey("When aggregating Season", func() {
			r := stats.Aggregate("p1", "C", logs, stats.Season, time.Time{})

			Convey("Then every game is counted", func() {
				So(r.GamesPlayed, ShouldEqual, 8)
				So(r.TotalGoals, ShouldEqual, 13)
			})
		})

		Convey("When a reference date excludes the newest games", func() {
			refDate := end.AddDate(0, 0, -3)
			r := stats.Aggregate("p1", "C", logs, stats.Season, refDate)

			Convey("Then games after the reference date are dropped", func() {
				So(r.GamesPlayed, ShouldEqual, 5)
				So(r.LastGameDate, ShouldHappenOnOrBefore, refDate)
			})
		})
	})

	Convey("Given a player with no games", t, func() {
		r := stats.Aggregate("p1", "C", nil, stats.L10, time.Time{})

		Convey("Then the row is zeroed with a stable label", func() {
			So(r.GamesPlayed, ShouldEqual, 0)
			So(r.PointsPerGame, ShouldAlmostEqual, 0.0)
			So(r.TrendDirection, ShouldEqual, "stable")
			So(r.TemperatureTag, ShouldEqual, "stable")
		})
	})
}

func TestAggregateGoalie(t *testing.T) {
	end := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	Convey("Given a goalie with starts, a relief appearance, and unused nights", t, func() {
		logs := []stats.GameLog{
			{Date: end, TimeOnIce: 3600, Saves: 28, ShotsAgainst: 30, GoalsAgainst: 2, Wins: 1},
			{Date: end.AddDate(0, 0, -1)},
			{Date: end.AddDate(0, 0, -2), TimeOnIce: 1200, Saves: 9, ShotsAgainst: 10, GoalsAgainst: 1},
			{Date: end.AddDate(0, 0, -3)},
			{Date: end.AddDate(0, 0, -4), TimeOnIce: 3600, Saves: 28, ShotsAgainst: 30, GoalsAgainst: 2, Wins: 1},
		}

		Convey("When aggregating L5", func() {
			r := stats.Aggregate("g1", "G", logs, stats.L5, time.Time{})

			Convey("Then zero-ice-time games are excluded from the sample", func() {
				So(r.GamesPlayed, ShouldEqual, 3)
				So(r.GoalieGamesStarted, ShouldEqual, 2)
			})

			Convey("And the goalie aggregates come from played games only", func() {
				So(r.TotalShotsAgainst, ShouldEqual, 70)
				So(r.TotalSaves, ShouldEqual, 65)
				So(r.SavePercentage, ShouldAlmostEqual, 65.0/70.0, 0.0001)
				So(r.GoalsAgainstAverage, ShouldAlmostEqual, 5.0/3.0, 0.0001)
				So(r.GoalieWins, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a goalie whose window holds only unused nights", t, func() {
		logs := []stats.GameLog{
			{Date: end},
			{Date: end.AddDate(0, 0, -1)},
		}
		r := stats.Aggregate("g1", "G", logs, stats.L5, time.Time{})

		Convey("Then the sample is empty and no rates are derived", func() {
			So(r.GamesPlayed, ShouldEqual, 0)
			So(r.SavePercentage, ShouldAlmostEqual, 0.0)
			So(r.GoalsAgainstAverage, ShouldAlmostEqual, 0.0)
		})
	})
}
