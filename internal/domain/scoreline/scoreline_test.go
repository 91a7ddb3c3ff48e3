package scoreline

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/matchodds/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompute(t *testing.T) {
	Convey("Given realistic rates", t, func() {
		eg := model.ExpectedGoals{HomeRate: 1.7, AwayRate: 1.05}
		g, err := Compute(eg, DefaultMaxGoals)
		So(err, ShouldBeNil)

		Convey("The most likely cell dominates every other cell", func() {
			best := g.MostLikely()
			for _, c := range g.Cells() {
				So(best.Probability, ShouldBeGreaterThanOrEqualTo, c.Probability)
			}
			So(best.HomeGoals, ShouldEqual, 1)
			So(best.AwayGoals, ShouldEqual, 1)
		})

		Convey("Cells are the product of the two marginals", func() {
			want := math.Exp(-1.7) * 1.7 * 1.7 / 2 * math.Exp(-1.05) * 1.05
			So(g.At(2, 1), ShouldAlmostEqual, want, 1e-12)
			So(g.At(7, 0), ShouldEqual, 0)
			So(g.At(-1, 0), ShouldEqual, 0)
			So(len(g.Cells()), ShouldEqual, 49)
		})

		Convey("The grid holds almost all of the mass", func() {
			So(g.Coverage(), ShouldBeLessThanOrEqualTo, 1)
			So(g.Coverage(), ShouldBeGreaterThan, 0.98)
		})

		Convey("Outcome sums partition the covered mass", func() {
			o := g.Outcome()
			So(o.HomeWin+o.Draw+o.AwayWin, ShouldAlmostEqual, g.Coverage(), 1e-12)
			So(o.HomeWin, ShouldBeGreaterThan, o.AwayWin)
		})

		Convey("A wide grid sums to one", func() {
			wide, err := Compute(eg, 40)
			So(err, ShouldBeNil)
			o := wide.Outcome()
			So(o.HomeWin+o.Draw+o.AwayWin, ShouldAlmostEqual, 1, 1e-12)
		})
	})

	Convey("Given a vanishing away rate and a zero home rate", t, func() {
		g, err := Compute(model.ExpectedGoals{HomeRate: 0, AwayRate: 1e-9}, DefaultMaxGoals)
		So(err, ShouldBeNil)
		best := g.MostLikely()
		So(best.HomeGoals, ShouldEqual, 0)
		So(best.AwayGoals, ShouldEqual, 0)
		So(best.Percent(), ShouldEqual, 100.0)
	})

	Convey("Given equal rates of one", t, func() {
		g, err := Compute(model.ExpectedGoals{HomeRate: 1, AwayRate: 1}, DefaultMaxGoals)
		So(err, ShouldBeNil)

		Convey("0-0, 0-1, 1-0 and 1-1 tie and 0-0 wins", func() {
			So(g.At(0, 0), ShouldEqual, g.At(1, 1))
			best := g.MostLikely()
			So(best.HomeGoals, ShouldEqual, 0)
			So(best.AwayGoals, ShouldEqual, 0)
			So(best.Percent(), ShouldEqual, 13.5)
		})
	})

	Convey("Given a single-cell grid", t, func() {
		g, err := Compute(model.ExpectedGoals{HomeRate: 2, AwayRate: 3}, 1)
		So(err, ShouldBeNil)
		So(g.MostLikely().Probability, ShouldAlmostEqual, math.Exp(-5), 1e-12)
	})

	Convey("Given invalid input", t, func() {
		_, err := Compute(model.ExpectedGoals{HomeRate: 1, AwayRate: 1}, 0)
		So(errors.Is(err, ErrInvalidMaxGoals), ShouldBeTrue)

		_, err = Compute(model.ExpectedGoals{HomeRate: -0.1, AwayRate: 1}, 7)
		So(errors.Is(err, ErrInvalidRate), ShouldBeTrue)

		_, err = Compute(model.ExpectedGoals{HomeRate: 1, AwayRate: math.Inf(1)}, 7)
		So(errors.Is(err, ErrInvalidRate), ShouldBeTrue)
	})
}

func TestMostLikelyTieBreak(t *testing.T) {
	Convey("Given a grid with equal maxima", t, func() {
		g := &Grid{maxGoals: 3, probs: []float64{
			0.05, 0.20, 0.05,
			0.20, 0.05, 0.05,
			0.20, 0.10, 0.10,
		}}

		Convey("The lexicographically smallest cell is chosen", func() {
			best := g.MostLikely()
			So(best.HomeGoals, ShouldEqual, 0)
			So(best.AwayGoals, ShouldEqual, 1)
		})
	})
}
