package smoketest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/matchodds/internal/adapters/http/api"
	service "github.com/okian/matchodds/internal/app"
	"github.com/okian/matchodds/internal/domain/types"
	"github.com/okian/matchodds/internal/leaguegen"
	"github.com/okian/matchodds/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	svc := service.New(
		service.WithDBPath(filepath.Join(dir, "smoke.db")),
		service.WithModelPath(filepath.Join(dir, "model.json")),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestRunAgainstLiveServer(t *testing.T) {
	srv := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stats, err := Run(ctx, Config{
		BaseURL:      srv.URL,
		Teams:        6,
		Seasons:      3,
		Workers:      4,
		BatchSize:    25,
		PollInterval: 20 * time.Millisecond,
	})

	Convey("Given a smoke run against a fresh server", t, func() {
		Convey("Then it completes without error", func() {
			So(err, ShouldBeNil)
		})

		Convey("Then every generated match was stored once", func() {
			So(stats.MatchesGenerated, ShouldEqual, 6*5*3)
			So(stats.MatchesInserted, ShouldEqual, stats.MatchesGenerated)
			So(stats.MatchesDuplicate, ShouldEqual, 0)
		})

		Convey("Then every fixture was predicted", func() {
			So(stats.ModelID, ShouldNotBeEmpty)
			So(stats.Predictions, ShouldEqual, 30)
			So(stats.PredictionsFailed, ShouldEqual, 0)
			So(stats.LatencyP50, ShouldBeLessThanOrEqualTo, stats.LatencyP95)
			So(stats.LatencyP95, ShouldBeLessThanOrEqualTo, stats.LatencyMax)
		})
	})
}

func TestRunUnreachable(t *testing.T) {
	Convey("Given a server that is not there", t, func() {
		_, err := Run(context.Background(), Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

		Convey("Then the health check fails", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}

func TestVerifyPredictions(t *testing.T) {
	league := &leaguegen.League{Teams: []leaguegen.Team{
		{Name: "Strong", Attack: 0.4, Defense: 0.3},
		{Name: "Weak", Attack: -0.4, Defense: -0.3},
	}}
	good := types.PredictionView{
		HomeExpectedGoals: 2.1, AwayExpectedGoals: 0.6,
		HomeWinPct: 70.1, DrawPct: 19.0, AwayWinPct: 10.9,
		MostLikelyScore: types.Score{Home: 2, Away: 0}, MostLikelyPct: 14.2,
		ModelID: "m",
	}
	reversed := good
	reversed.HomeWinPct, reversed.AwayWinPct = good.AwayWinPct, good.HomeWinPct

	Convey("Given predictions for a strong and a weak team", t, func() {
		Convey("Then favouring the strong side passes", func() {
			views := map[fixture]types.PredictionView{{"Strong", "Weak"}: good, {"Weak", "Strong"}: reversed}
			So(verifyPredictions(league, views), ShouldBeNil)
		})

		Convey("Then favouring the weak side fails", func() {
			views := map[fixture]types.PredictionView{{"Strong", "Weak"}: reversed}
			So(errors.Is(verifyPredictions(league, views), ErrInconsistent), ShouldBeTrue)
		})

		Convey("Then percentages that do not sum to 100 fail", func() {
			bad := good
			bad.DrawPct = 25
			views := map[fixture]types.PredictionView{{"Strong", "Weak"}: bad}
			So(errors.Is(verifyPredictions(league, views), ErrInconsistent), ShouldBeTrue)
		})

		Convey("Then a missing model id fails", func() {
			bad := good
			bad.ModelID = ""
			So(errors.Is(checkView(bad), ErrInconsistent), ShouldBeTrue)
		})
	})
}
