package score_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/forecheck/engine/internal/score"
	"github.com/forecheck/engine/internal/stats"
	"github.com/forecheck/engine/internal/trend"
)

func component(res score.Result, name string) (score.Component, bool) {
	for _, c := range res.Components {
		if c.Name == name {
			return c, true
		}
	}
	return score.Component{}, false
}

func TestSkaterScore(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		calc := score.NewCalculator(nil)

		Convey("When scoring a forward at or above every cap with a hot trend", func() {
			res := calc.Score(score.Input{
				Position: "C",
				Rolling: stats.Rolling{
					GamesPlayed: 5, Window: stats.L5,
					PointsPerGame: 2.0, ShotsPerGame: 4.0,
					PowerPlayPointsPerGame: 1.0, TimeOnIcePerGame: 22.0,
					HitsPerGame: 3.0, BlocksPerGame: 2.0,
					PlusMinusPerGame: 2.0,
				},
				Trend: trend.Hot,
			})

			Convey("Then the base exhausts its budget and the hot bonus applies", func() {
				So(res.Base, ShouldAlmostEqual, res.BaseBudget)
				So(res.TrendBonus, ShouldAlmostEqual, 15.0)
				So(res.Final, ShouldAlmostEqual, res.BaseBudget+15.0)
			})

			Convey("And the score stays within bounds", func() {
				So(res.Final, ShouldBeLessThanOrEqualTo, score.MaxScore)
				So(res.Display, ShouldBeBetweenOrEqual, 0, 100)
			})
		})

		Convey("When scoring a forward with no production", func() {
			res := calc.Score(score.Input{
				Position: "C",
				Rolling:  stats.Rolling{GamesPlayed: 5, Window: stats.L5},
				Trend:    trend.Cold,
			})

			Convey("Then the score never goes negative", func() {
				So(res.Final, ShouldBeGreaterThanOrEqualTo, 0.0)
				So(res.TrendBonus, ShouldAlmostEqual, 0.0)
			})

			Convey("And an even plus/minus maps to the midpoint", func() {
				c, ok := component(res, "plus_minus_per_game")
				So(ok, ShouldBeTrue)
				So(c.Normalized, ShouldAlmostEqual, 0.5)
				So(c.Contribution, ShouldAlmostEqual, 0.5*c.Weight)
			})
		})

		Convey("When scoring without a league profile", func() {
			res := calc.Score(score.Input{
				Position: "C",
				Rolling:  stats.Rolling{GamesPlayed: 10, PointsPerGame: 1.0},
				Trend:    trend.Stable,
			})

			Convey("Then the final is exactly base plus bonuses", func() {
				So(res.LeagueFit, ShouldBeNil)
				So(res.Final, ShouldAlmostEqual, res.Base+res.TrendBonus+res.Availability)
			})
		})
	})
}

func TestLeagueInfluence(t *testing.T) {
	league := &score.LeagueProfile{
		ID: "l1", Name: "Test League", Mode: "categories",
		Weights: map[string]float64{"pts": 1.0},
	}

	Convey("Given a config with league influence enabled at half weight", t, func() {
		cfg := score.Default()
		cfg.LeagueInfluence = score.LeagueInfluence{Enabled: true, Weight: 0.5, MinimumGames: 0}
		calc := score.NewCalculator(cfg)

		in := score.Input{
			Position: "C",
			Rolling: stats.Rolling{
				GamesPlayed:   10,
				PointsPerGame: cfg.Skater.Caps.Forward.PointsPerGame,
			},
			Trend:  trend.Cold,
			League: league,
		}

		Convey("When the player maxes the league's only category", func() {
			res := calc.Score(in)

			Convey("Then the fit is maximal and blended at the configured weight", func() {
				So(res.LeagueFit, ShouldNotBeNil)
				So(*res.LeagueFit, ShouldAlmostEqual, 100.0)
				So(res.BlendWeight, ShouldAlmostEqual, 0.5)
				So(res.Final, ShouldAlmostEqual, 0.5*res.Base+0.5*100.0)
			})
		})

		Convey("When the sample is below the minimum games", func() {
			cfg.LeagueInfluence.MinimumGames = 10
			short := in
			short.Rolling.GamesPlayed = 5
			res := calc.Score(short)

			Convey("Then the blend weight ramps down proportionally", func() {
				So(res.BlendWeight, ShouldAlmostEqual, 0.25)
			})
		})
	})

	Convey("Given league influence disabled", t, func() {
		cfg := score.Default()
		cfg.LeagueInfluence.Enabled = false
		calc := score.NewCalculator(cfg)

		res := calc.Score(score.Input{
			Position: "C",
			Rolling:  stats.Rolling{GamesPlayed: 10, PointsPerGame: 1.0},
			Trend:    trend.Stable,
			League:   league,
		})

		Convey("Then the profile is ignored entirely", func() {
			So(res.LeagueFit, ShouldBeNil)
			So(res.BlendWeight, ShouldAlmostEqual, 0.0)
			So(res.Final, ShouldAlmostEqual, res.Base+res.TrendBonus)
		})
	})
}

func TestGoalieScore(t *testing.T) {
	strongWeek := stats.Rolling{
		Window: stats.L5, GamesPlayed: 4, GoalieGamesStarted: 4,
		SavePercentage: 0.935, GoalsAgainstAverage: 1.8,
		GoalieWins: 3, TotalShotsAgainst: 120, TotalSaves: 112,
	}

	Convey("Given the default configuration", t, func() {
		calc := score.NewCalculator(nil)

		Convey("When scoring a workhorse week", func() {
			res := calc.Score(score.Input{Position: "G", Rolling: strongWeek, Trend: trend.Hot})

			Convey("Then the score is strong and bounded", func() {
				So(res.Final, ShouldBeGreaterThan, 60.0)
				So(res.Final, ShouldBeLessThanOrEqualTo, score.MaxScore)
			})
		})

		Convey("When scoring an empty sample", func() {
			res := calc.Score(score.Input{Position: "G", Rolling: stats.Rolling{Window: stats.L5}, Trend: trend.Hot})

			Convey("Then the score is zero with no components", func() {
				So(res.Final, ShouldAlmostEqual, 0.0)
				So(res.Components, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a single-appearance shutout", t, func() {
		oneGame := stats.Rolling{
			Window: stats.L5, GamesPlayed: 1, GoalieGamesStarted: 1,
			SavePercentage: 1.0, GoalsAgainstAverage: 0.0,
			GoalieWins: 1, GoalieShutouts: 1,
			TotalShotsAgainst: 30, TotalSaves: 30,
		}
		in := score.Input{Position: "G", Rolling: oneGame, Trend: trend.Hot}

		withPenalty := score.NewCalculator(nil).Score(in)

		noPenaltyCfg := score.Default()
		noPenaltyCfg.Goalie.Toggles.UseSamplePenalty = false
		withoutPenalty := score.NewCalculator(noPenaltyCfg).Score(in)

		Convey("Then the small-sample penalty scales the score down", func() {
			So(withPenalty.Final, ShouldAlmostEqual, 0.7*withoutPenalty.Final, 0.0001)
			So(withPenalty.Final, ShouldBeLessThan, withoutPenalty.Final)
		})
	})
}
