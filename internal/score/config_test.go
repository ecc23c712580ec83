package score_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/forecheck/engine/internal/score"
)

func TestParseConfig(t *testing.T) {
	Convey("Given a partial configuration document", t, func() {
		raw := []byte(`{"skater":{"weights":{"points_per_game":20}}}`)

		Convey("When parsed", func() {
			cfg, err := score.Parse(raw)

			Convey("Then provided keys override and the rest keep defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Skater.Weights.PointsPerGame, ShouldAlmostEqual, 20.0)
				So(cfg.Skater.Weights.ShotsPerGame, ShouldAlmostEqual,
					score.Default().Skater.Weights.ShotsPerGame)
			})
		})
	})

	Convey("Given a document with an unknown key", t, func() {
		raw := []byte(`{"skater":{"weights":{"corsi_for":5}}}`)

		Convey("Then parsing fails loudly instead of dropping it", func() {
			_, err := score.Parse(raw)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "corsi_for")
		})
	})

	Convey("Given malformed JSON", t, func() {
		_, err := score.Parse([]byte(`{"skater":`))
		So(err, ShouldNotBeNil)
	})

	Convey("Given out-of-range values", t, func() {
		raw := []byte(`{"league_influence":{"enabled":true,"weight":2.5,"minimum_games":200}}`)

		Convey("When parsed", func() {
			cfg, err := score.Parse(raw)

			Convey("Then values are clamped into their legal ranges", func() {
				So(err, ShouldBeNil)
				So(cfg.LeagueInfluence.Weight, ShouldAlmostEqual, 1.0)
				So(cfg.LeagueInfluence.MinimumGames, ShouldEqual, 82)
			})
		})
	})

	Convey("Given a negative minimum games", t, func() {
		cfg := score.Default()
		cfg.LeagueInfluence.MinimumGames = -5
		cfg.Sanitize()

		So(cfg.LeagueInfluence.MinimumGames, ShouldEqual, 0)
	})

	Convey("Given the default configuration", t, func() {
		cfg := score.Default()

		Convey("Then it round-trips through encode and parse", func() {
			raw, err := cfg.Encode()
			So(err, ShouldBeNil)

			back, err := score.Parse(raw)
			So(err, ShouldBeNil)
			So(back, ShouldResemble, cfg)
		})
	})
}
