package alert_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/forecheck/engine/internal/alert"
)

func TestDiff(t *testing.T) {
	Convey("Given prior match state and a fresh result set", t, func() {
		prior := map[string]bool{
			"p1": true,  // will drop
			"p2": true,  // stays
			"p3": false, // dropped long ago, must not re-drop
		}
		matched := []string{"p4", "p2"}

		Convey("When diffing", func() {
			tr := alert.Diff(prior, matched)

			Convey("Then players partition into new, staying, and dropped", func() {
				So(tr.New, ShouldResemble, []string{"p4"})
				So(tr.Staying, ShouldResemble, []string{"p2"})
				So(tr.Dropped, ShouldResemble, []string{"p1"})
			})

			Convey("And the match count reflects the current set only", func() {
				So(tr.MatchCount(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an empty prior state", t, func() {
		tr := alert.Diff(nil, []string{"b", "a"})

		Convey("Then everything is new, in sorted order", func() {
			So(tr.New, ShouldResemble, []string{"a", "b"})
			So(tr.Staying, ShouldBeEmpty)
			So(tr.Dropped, ShouldBeEmpty)
		})
	})

	Convey("Given an empty result set", t, func() {
		tr := alert.Diff(map[string]bool{"p1": true, "p2": true}, nil)

		Convey("Then every current match drops", func() {
			So(tr.Dropped, ShouldResemble, []string{"p1", "p2"})
			So(tr.MatchCount(), ShouldEqual, 0)
		})
	})

	Convey("Given an unchanged result set", t, func() {
		prior := map[string]bool{"p1": true}

		Convey("Then re-recording it is a no-op transition", func() {
			tr := alert.Diff(prior, []string{"p1"})
			So(tr.New, ShouldBeEmpty)
			So(tr.Dropped, ShouldBeEmpty)
			So(tr.Staying, ShouldResemble, []string{"p1"})
		})
	})

	Convey("Given duplicate player IDs in the result set", t, func() {
		tr := alert.Diff(nil, []string{"p1", "p1"})

		Convey("Then the player is counted once", func() {
			So(tr.New, ShouldResemble, []string{"p1"})
			So(tr.MatchCount(), ShouldEqual, 1)
		})
	})
}

func TestFeedHorizon(t *testing.T) {
	horizon := 36 * time.Hour
	detected := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	entry := alert.Entry{ScanID: "s1", PlayerID: "p1", DetectedAt: detected}

	Convey("Given an alert detected at a fixed instant", t, func() {
		Convey("Then it is visible well inside the horizon", func() {
			So(entry.InFeed(horizon, detected.Add(10*time.Hour)), ShouldBeTrue)
		})

		Convey("And still visible exactly at the horizon boundary", func() {
			So(entry.InFeed(horizon, detected.Add(horizon)), ShouldBeTrue)
		})

		Convey("But no longer visible once the horizon has passed", func() {
			So(entry.InFeed(horizon, detected.Add(40*time.Hour)), ShouldBeFalse)
		})
	})

	Convey("Given the cutoff helper", t, func() {
		now := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

		Convey("Then the cutoff trails now by the horizon", func() {
			So(alert.FeedCutoff(horizon, now), ShouldResemble, now.Add(-36*time.Hour))
		})
	})
}
