package strength_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/matchodds/internal/domain/strength"
	"github.com/okian/matchodds/internal/leaguegen"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuild(t *testing.T) {
	Convey("Given hand-written coefficients", t, func() {
		teams := map[string]strength.Coefficients{
			"Arsenal": {},
			"Chelsea": {Attack: 0.1, Defense: -0.2},
		}

		Convey("Build picks the smallest name as reference", func() {
			ts, err := strength.Build(0.3, 0.2, teams)
			So(err, ShouldBeNil)
			So(ts.ReferenceTeam(), ShouldEqual, "Arsenal")
			So(ts.Teams(), ShouldResemble, []string{"Arsenal", "Chelsea"})
			So(ts.ID(), ShouldNotBeEmpty)
		})

		Convey("Build does not alias the caller's map", func() {
			ts, err := strength.Build(0.3, 0.2, teams)
			So(err, ShouldBeNil)
			teams["Everton"] = strength.Coefficients{}
			_, ok := ts.Coefficients("Everton")
			So(ok, ShouldBeFalse)
		})

		Convey("Invalid inputs are rejected", func() {
			_, err := strength.Build(0.3, 0.2, map[string]strength.Coefficients{"Arsenal": {}})
			So(errors.Is(err, strength.ErrInvalidModel), ShouldBeTrue)

			_, err = strength.Build(math.NaN(), 0.2, teams)
			So(errors.Is(err, strength.ErrInvalidModel), ShouldBeTrue)

			teams["Arsenal"] = strength.Coefficients{Attack: 0.4}
			_, err = strength.Build(0.3, 0.2, teams)
			So(errors.Is(err, strength.ErrInvalidModel), ShouldBeTrue)
		})
	})
}

func TestWithoutHomeAdvantage(t *testing.T) {
	Convey("Given a model with home advantage", t, func() {
		ts, err := strength.Build(0.3, 0.25, map[string]strength.Coefficients{"A": {}, "B": {Attack: 0.2}})
		So(err, ShouldBeNil)

		neutral := ts.WithoutHomeAdvantage()

		Convey("Only the copy is neutralised", func() {
			So(neutral.HomeAdvantage(), ShouldEqual, 0)
			So(ts.HomeAdvantage(), ShouldEqual, 0.25)
			So(neutral.Intercept(), ShouldEqual, ts.Intercept())
			So(neutral.ID(), ShouldEqual, ts.ID())
		})
	})
}

func TestTeamStrengthJSON(t *testing.T) {
	Convey("Given a fitted model", t, func() {
		ts, err := strength.New().Fit(context.Background(), leaguegen.Generate(leaguegen.WithSeasons(2)).Matches)
		So(err, ShouldBeNil)

		Convey("A JSON round-trip preserves every value exactly", func() {
			data, err := json.Marshal(ts)
			So(err, ShouldBeNil)

			var loaded strength.TeamStrength
			So(json.Unmarshal(data, &loaded), ShouldBeNil)

			So(loaded.ID(), ShouldEqual, ts.ID())
			So(loaded.FittedAt().Equal(ts.FittedAt()), ShouldBeTrue)
			So(loaded.ReferenceTeam(), ShouldEqual, ts.ReferenceTeam())
			So(math.Float64bits(loaded.Intercept()), ShouldEqual, math.Float64bits(ts.Intercept()))
			So(math.Float64bits(loaded.HomeAdvantage()), ShouldEqual, math.Float64bits(ts.HomeAdvantage()))
			So(loaded.LogLikelihood(), ShouldEqual, ts.LogLikelihood())
			So(loaded.Matches(), ShouldEqual, ts.Matches())
			So(loaded.Iterations(), ShouldEqual, ts.Iterations())
			for _, team := range ts.Teams() {
				a, _ := ts.Coefficients(team)
				b, ok := loaded.Coefficients(team)
				So(ok, ShouldBeTrue)
				So(b, ShouldResemble, a)
			}
		})
	})

	Convey("Given malformed documents", t, func() {
		var ts strength.TeamStrength

		Convey("Garbage is rejected", func() {
			So(json.Unmarshal([]byte(`{"version":`), &ts), ShouldNotBeNil)
			So(errors.Is(ts.UnmarshalJSON([]byte(`[]`)), strength.ErrInvalidModel), ShouldBeTrue)
		})

		Convey("An unknown version is rejected", func() {
			err := json.Unmarshal([]byte(`{"version":2,"reference_team":"A","teams":{"A":{},"B":{}}}`), &ts)
			So(errors.Is(err, strength.ErrInvalidModel), ShouldBeTrue)
		})

		Convey("A missing reference team is rejected", func() {
			err := json.Unmarshal([]byte(`{"version":1,"reference_team":"Z","teams":{"A":{},"B":{}}}`), &ts)
			So(errors.Is(err, strength.ErrInvalidModel), ShouldBeTrue)
		})

		Convey("A valid document loads", func() {
			err := json.Unmarshal([]byte(`{"version":1,"reference_team":"A","intercept":0.3,"home_advantage":0.2,"teams":{"A":{},"B":{"attack":0.1,"defense":0.05}}}`), &ts)
			So(err, ShouldBeNil)
			c, ok := ts.Coefficients("B")
			So(ok, ShouldBeTrue)
			So(c.Attack, ShouldEqual, 0.1)
		})
	})
}
