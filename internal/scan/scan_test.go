package scan_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/forecheck/engine/internal/scan"
)

func validScan() scan.Scan {
	return scan.Scan{
		ID:   scan.NewID(),
		Name: "High Volume Shooters",
		Rules: []scan.Rule{
			{ID: scan.NewID(), Stat: "shots", Comparator: ">", Value: 3.0, Window: "L10"},
		},
	}
}

func TestScanValidate(t *testing.T) {
	Convey("Given a well-formed scan", t, func() {
		s := validScan()

		Convey("Then it validates", func() {
			So(s.Validate(), ShouldBeNil)
		})
	})

	Convey("Given structural problems", t, func() {
		Convey("A missing name is rejected", func() {
			s := validScan()
			s.Name = ""
			So(s.Validate(), ShouldNotBeNil)
		})

		Convey("An empty rule set is rejected", func() {
			s := validScan()
			s.Rules = nil
			So(s.Validate(), ShouldNotBeNil)
		})

		Convey("An unknown position filter is rejected", func() {
			s := validScan()
			s.PositionFilter = "XX"
			So(s.Validate(), ShouldNotBeNil)
		})
	})

	Convey("Given rule vocabulary problems", t, func() {
		check := func(mutate func(r *scan.Rule)) error {
			s := validScan()
			mutate(&s.Rules[0])
			return s.Validate()
		}

		Convey("An unknown stat is rejected at save time", func() {
			So(check(func(r *scan.Rule) { r.Stat = "corsi_for" }), ShouldNotBeNil)
		})

		Convey("An unknown comparator is rejected", func() {
			So(check(func(r *scan.Rule) { r.Comparator = "!=" }), ShouldNotBeNil)
		})

		Convey("An unknown window is rejected", func() {
			So(check(func(r *scan.Rule) { r.Window = "L7" }), ShouldNotBeNil)
		})

		Convey("A compare window equal to the window is rejected", func() {
			So(check(func(r *scan.Rule) { r.CompareWindow = "L10" }), ShouldNotBeNil)
		})

		Convey("A valid compare window is accepted", func() {
			So(check(func(r *scan.Rule) { r.CompareWindow = "Season" }), ShouldBeNil)
		})
	})

	Convey("Given special stat constraints", t, func() {
		Convey("Ownership never takes a compare window", func() {
			s := validScan()
			s.Rules[0] = scan.Rule{
				Stat: scan.StatOwnership, Comparator: "<", Value: 50,
				Window: "L5", CompareWindow: "Season",
			}
			So(s.Validate(), ShouldNotBeNil)
		})

		Convey("The ice-time delta requires a compare window", func() {
			s := validScan()
			s.Rules[0] = scan.Rule{
				Stat: scan.StatTOIDelta, Comparator: ">=", Value: 1.5, Window: "L5",
			}
			So(s.Validate(), ShouldNotBeNil)

			s.Rules[0].CompareWindow = "Season"
			So(s.Validate(), ShouldBeNil)
		})
	})
}

func TestPresets(t *testing.T) {
	Convey("Given the shipped preset scans", t, func() {
		Convey("Then every preset is valid and flagged as a preset", func() {
			names := make(map[string]bool)
			for _, p := range scan.Presets {
				p := p
				So(p.Validate(), ShouldBeNil)
				So(p.IsPreset, ShouldBeTrue)
				So(names[p.Name], ShouldBeFalse)
				names[p.Name] = true
			}
			So(len(scan.Presets), ShouldEqual, 9)
		})
	})
}
