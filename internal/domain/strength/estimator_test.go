package strength_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/internal/domain/strength"
	"github.com/okian/matchodds/internal/leaguegen"
	"github.com/okian/matchodds/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/stat"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func match(home, away string, hg, ag int, day int) model.HistoricalMatch {
	return model.HistoricalMatch{
		Season:    "2023",
		Date:      time.Date(2023, time.August, day, 0, 0, 0, 0, time.UTC),
		HomeTeam:  home,
		AwayTeam:  away,
		HomeGoals: hg,
		AwayGoals: ag,
	}
}

func TestEstimatorInputValidation(t *testing.T) {
	Convey("Given an estimator", t, func() {
		est := strength.New()
		ctx := context.Background()

		Convey("No matches is insufficient data", func() {
			_, err := est.Fit(ctx, nil)
			So(errors.Is(err, strength.ErrInsufficientData), ShouldBeTrue)
		})

		Convey("An invalid match is rejected", func() {
			_, err := est.Fit(ctx, []model.HistoricalMatch{match("A", "A", 1, 0, 1)})
			So(errors.Is(err, model.ErrInvalidMatch), ShouldBeTrue)
		})

		Convey("A cancelled context stops the fit", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := est.Fit(cctx, leaguegen.Generate(leaguegen.WithSeasons(1)).Matches)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestEstimatorCoverage(t *testing.T) {
	Convey("Given a history where one team never scores", t, func() {
		matches := []model.HistoricalMatch{
			match("Alpha", "Beta", 2, 1, 1),
			match("Beta", "Gamma", 1, 0, 2),
			match("Gamma", "Alpha", 0, 3, 3),
			match("Alpha", "Gamma", 1, 0, 4),
			match("Beta", "Alpha", 2, 2, 5),
			match("Gamma", "Beta", 0, 1, 6),
		}

		Convey("The fit reports the uncovered team instead of a default", func() {
			_, err := strength.New().Fit(context.Background(), matches)
			So(errors.Is(err, strength.ErrIncompleteCoverage), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Gamma")
		})
	})
}

func TestEstimatorSyntheticLeague(t *testing.T) {
	Convey("Given three seasons of a 20-team league", t, func() {
		league := leaguegen.Generate()
		So(len(league.Matches), ShouldBeGreaterThanOrEqualTo, 1000)

		ts, err := strength.New().Fit(context.Background(), league.Matches)
		So(err, ShouldBeNil)

		Convey("Every team gets coefficients and the reference is pinned at zero", func() {
			So(ts.Len(), ShouldEqual, 20)
			So(ts.ReferenceTeam(), ShouldEqual, "TeamA")
			ref, ok := ts.Coefficients("TeamA")
			So(ok, ShouldBeTrue)
			So(ref, ShouldResemble, strength.Coefficients{})
			for _, team := range league.Teams {
				c, ok := ts.Coefficients(team.Name)
				So(ok, ShouldBeTrue)
				So(math.IsNaN(c.Attack) || math.IsNaN(c.Defense), ShouldBeFalse)
			}
		})

		Convey("Fit metadata is recorded", func() {
			So(ts.ID(), ShouldNotBeEmpty)
			So(ts.Matches(), ShouldEqual, len(league.Matches))
			So(ts.Iterations(), ShouldBeGreaterThan, 0)
			So(ts.LogLikelihood(), ShouldBeLessThan, 0)
		})

		Convey("The true parameters are recovered", func() {
			So(ts.HomeAdvantage(), ShouldAlmostEqual, league.HomeAdvantage, 0.12)

			ref := league.Teams[0]
			var trueAtt, fitAtt, trueDef, fitDef []float64
			for _, team := range league.Teams[1:] {
				c, _ := ts.Coefficients(team.Name)
				trueAtt = append(trueAtt, team.Attack-ref.Attack)
				fitAtt = append(fitAtt, c.Attack)
				trueDef = append(trueDef, team.Defense-ref.Defense)
				fitDef = append(fitDef, c.Defense)
			}
			So(stat.Correlation(trueAtt, fitAtt, nil), ShouldBeGreaterThan, 0.7)
			So(stat.Correlation(trueDef, fitDef, nil), ShouldBeGreaterThan, 0.7)
		})

		Convey("Refitting the same history in another order is bit-for-bit identical", func() {
			shuffled := make([]model.HistoricalMatch, len(league.Matches))
			copy(shuffled, league.Matches)
			rand.New(rand.NewSource(3)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			again, err := strength.New().Fit(context.Background(), shuffled)
			So(err, ShouldBeNil)
			So(again.Intercept(), ShouldEqual, ts.Intercept())
			So(again.HomeAdvantage(), ShouldEqual, ts.HomeAdvantage())
			for _, team := range ts.Teams() {
				a, _ := again.Coefficients(team)
				b, _ := ts.Coefficients(team)
				So(a, ShouldResemble, b)
			}
		})

		Convey("A ridge penalty shrinks the team effects", func() {
			ridged, err := strength.New(strength.WithRidge(0.05)).Fit(context.Background(), league.Matches)
			So(err, ShouldBeNil)

			var plain, shrunk float64
			for _, team := range ts.Teams() {
				a, _ := ts.Coefficients(team)
				b, _ := ridged.Coefficients(team)
				plain += math.Abs(a.Attack) + math.Abs(a.Defense)
				shrunk += math.Abs(b.Attack) + math.Abs(b.Defense)
			}
			So(shrunk, ShouldBeLessThan, plain)
		})
	})
}

func TestEstimatorIterationLimit(t *testing.T) {
	Convey("Given an estimator allowed a single iteration", t, func() {
		est := strength.New(strength.WithMaxIterations(1), strength.WithGradientThreshold(1e-14))
		_, err := est.Fit(context.Background(), leaguegen.Generate(leaguegen.WithSeasons(1)).Matches)

		Convey("The fit reports that it did not converge", func() {
			So(errors.Is(err, strength.ErrNotConverged), ShouldBeTrue)
		})
	})
}
