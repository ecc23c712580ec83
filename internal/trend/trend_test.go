package trend_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/forecheck/engine/internal/stats"
	"github.com/forecheck/engine/internal/trend"
)

func buildLogs(recent stats.GameLog, recentN int, baseline stats.GameLog, baselineN int) []stats.GameLog {
	end := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	logs := make([]stats.GameLog, 0, recentN+baselineN)
	for i := 0; i < recentN; i++ {
		g := recent
		g.Date = end.AddDate(0, 0, -i)
		logs = append(logs, g)
	}
	for i := 0; i < baselineN; i++ {
		g := baseline
		g.Date = end.AddDate(0, 0, -recentN-i)
		logs = append(logs, g)
	}
	return logs
}

func TestClassifySkater(t *testing.T) {
	c := trend.NewClassifier(0.25, -0.25)

	Convey("Given a skater producing well above their baseline", t, func() {
		logs := buildLogs(
			stats.GameLog{Points: 3, Goals: 1, Assists: 2, Shots: 5, PowerPlayPoints: 1, TimeOnIce: 1200, Hits: 1, Blocks: 1}, 5,
			stats.GameLog{Points: 1, Assists: 1, Shots: 2, TimeOnIce: 1080, Hits: 1, Blocks: 1}, 15,
		)

		Convey("Then they classify as hot", func() {
			So(c.Classify("C", logs), ShouldEqual, trend.Hot)
		})
	})

	Convey("Given a skater producing well below their baseline", t, func() {
		logs := buildLogs(
			stats.GameLog{Shots: 1, TimeOnIce: 840}, 5,
			stats.GameLog{Points: 2, Goals: 1, Assists: 1, Shots: 4, PowerPlayPoints: 1, TimeOnIce: 1200}, 15,
		)

		Convey("Then they classify as cold", func() {
			So(c.Classify("C", logs), ShouldEqual, trend.Cold)
		})
	})

	Convey("Given too few recent games", t, func() {
		logs := buildLogs(stats.GameLog{Points: 3, Shots: 5}, 4, stats.GameLog{}, 0)

		Convey("Then the label is always stable", func() {
			So(c.Classify("C", logs), ShouldEqual, trend.Stable)
		})
	})

	Convey("Given too few baseline games", t, func() {
		logs := buildLogs(
			stats.GameLog{Points: 3, Shots: 5, TimeOnIce: 1200}, 5,
			stats.GameLog{TimeOnIce: 900}, 3,
		)

		Convey("Then the label is always stable", func() {
			So(c.Classify("C", logs), ShouldEqual, trend.Stable)
		})
	})

	Convey("Given two skaters identical except for recent production", t, func() {
		hotter := buildLogs(
			stats.GameLog{Points: 3, Goals: 2, Shots: 5, TimeOnIce: 1200}, 5,
			stats.GameLog{Points: 1, Shots: 2, TimeOnIce: 1080}, 15,
		)
		flatter := buildLogs(
			stats.GameLog{Points: 1, Shots: 2, TimeOnIce: 1080}, 5,
			stats.GameLog{Points: 1, Shots: 2, TimeOnIce: 1080}, 15,
		)

		Convey("Then better recent production never lowers the rank", func() {
			So(c.Classify("C", hotter).Rank(), ShouldBeGreaterThanOrEqualTo,
				c.Classify("C", flatter).Rank())
		})
	})
}

func TestClassifyGoalie(t *testing.T) {
	c := trend.NewClassifier(0.25, -0.25)

	Convey("Given a goalie surging against a weak baseline", t, func() {
		logs := buildLogs(
			stats.GameLog{TimeOnIce: 3600, Saves: 28, ShotsAgainst: 30, GoalsAgainst: 2, Wins: 1}, 5,
			stats.GameLog{TimeOnIce: 3600, Saves: 26, ShotsAgainst: 30, GoalsAgainst: 4}, 15,
		)

		Convey("Then they classify as hot", func() {
			So(c.Classify("G", logs), ShouldEqual, trend.Hot)
		})
	})

	Convey("Given a goalie whose delta is positive but whose level is still poor", t, func() {
		// Recent .900 looks like a big improvement over .8625 but is below
		// the absolute floor for a hot label.
		logs := buildLogs(
			stats.GameLog{TimeOnIce: 3600, Saves: 18, ShotsAgainst: 20, GoalsAgainst: 2}, 5,
			stats.GameLog{TimeOnIce: 3600, Saves: 17, ShotsAgainst: 20, GoalsAgainst: 3}, 15,
		)

		Convey("Then the guardrail suppresses the hot label", func() {
			So(c.Classify("G", logs), ShouldEqual, trend.Stable)
		})
	})
}

func TestTemperature(t *testing.T) {
	Convey("Given a window other than L5", t, func() {
		r := stats.Rolling{PointsPerGame: 3.0, GamesPlayed: 10}

		Convey("Then the tag is always stable", func() {
			So(trend.Temperature("C", stats.L10, r), ShouldEqual, trend.Stable)
			So(trend.Temperature("C", stats.Season, r), ShouldEqual, trend.Stable)
		})
	})

	Convey("Given L5 skater production levels", t, func() {
		Convey("Then elite production reads hot", func() {
			r := stats.Rolling{PointsPerGame: 2.5, GamesPlayed: 5}
			So(trend.Temperature("C", stats.L5, r), ShouldEqual, trend.Hot)
		})

		Convey("And a quiet week reads cold", func() {
			r := stats.Rolling{PointsPerGame: 0.2, ShotsPerGame: 1.0, GamesPlayed: 5}
			So(trend.Temperature("C", stats.L5, r), ShouldEqual, trend.Cold)
		})
	})

	Convey("Given L5 goalie production levels", t, func() {
		Convey("Then a loaded week of strong starts reads hot", func() {
			r := stats.Rolling{GoalieGamesStarted: 3, SavePercentage: 0.930, GoalieWins: 2, GamesPlayed: 3}
			So(trend.Temperature("G", stats.L5, r), ShouldEqual, trend.Hot)
		})

		Convey("And a leaky week reads cold", func() {
			r := stats.Rolling{GoalieGamesStarted: 2, SavePercentage: 0.880, GamesPlayed: 2}
			So(trend.Temperature("G", stats.L5, r), ShouldEqual, trend.Cold)
		})
	})
}
