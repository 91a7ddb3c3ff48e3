package modelfile_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/matchodds/internal/adapters/modelfile"
	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/internal/domain/rates"
	"github.com/okian/matchodds/internal/domain/strength"
	"github.com/okian/matchodds/internal/leaguegen"
	"github.com/okian/matchodds/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestSaveLoad(t *testing.T) {
	Convey("Given a fitted model", t, func() {
		ts, err := strength.New().Fit(context.Background(), leaguegen.Generate(leaguegen.WithSeasons(2)).Matches)
		So(err, ShouldBeNil)
		path := filepath.Join(t.TempDir(), "models", "model.json")

		Convey("fit, save, load, predict equals fit, predict", func() {
			So(modelfile.Save(path, ts), ShouldBeNil)
			loaded, err := modelfile.Load(path)
			So(err, ShouldBeNil)

			p := rates.New()
			for _, fx := range []model.FixtureRequest{
				{HomeTeam: "TeamA", AwayTeam: "TeamB"},
				{HomeTeam: "TeamT", AwayTeam: "TeamC"},
			} {
				direct, err := p.ExpectedGoals(ts, fx)
				So(err, ShouldBeNil)
				reloaded, err := p.ExpectedGoals(loaded, fx)
				So(err, ShouldBeNil)
				So(math.Float64bits(reloaded.HomeRate), ShouldEqual, math.Float64bits(direct.HomeRate))
				So(math.Float64bits(reloaded.AwayRate), ShouldEqual, math.Float64bits(direct.AwayRate))
			}
		})

		Convey("Saving twice replaces the file without leftovers", func() {
			So(modelfile.Save(path, ts), ShouldBeNil)
			So(modelfile.Save(path, ts), ShouldBeNil)
			entries, err := os.ReadDir(filepath.Dir(path))
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 1)
		})
	})

	Convey("Given missing or corrupt files", t, func() {
		dir := t.TempDir()

		_, err := modelfile.Load(filepath.Join(dir, "absent.json"))
		So(errors.Is(err, modelfile.ErrNotFound), ShouldBeTrue)

		corrupt := filepath.Join(dir, "corrupt.json")
		So(os.WriteFile(corrupt, []byte(`{"version":1}`), 0o600), ShouldBeNil)
		_, err = modelfile.Load(corrupt)
		So(errors.Is(err, strength.ErrInvalidModel), ShouldBeTrue)
	})
}
