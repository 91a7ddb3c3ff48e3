// Command train fits the team-strength model offline and persists it to the
// database and the model file read by the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/okian/matchodds/internal/adapters/csvimport"
	"github.com/okian/matchodds/internal/adapters/modelfile"
	"github.com/okian/matchodds/internal/adapters/repository"
	app "github.com/okian/matchodds/internal/app"
	"github.com/okian/matchodds/internal/config"
	"github.com/okian/matchodds/internal/domain/strength"
	"github.com/okian/matchodds/pkg/logger"
)

func main() {
	csvPath := flag.String("csv", "", "import matches from this CSV before fitting")
	season := flag.String("season", "", "season label for football-data.co.uk CSVs")
	dbPath := flag.String("db", "", "SQLite database (default from config)")
	modelPath := flag.String("model", "", "model file to write (default from config)")
	quiet := flag.Bool("quiet", false, "do not print the coefficient table")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *csvPath, *season, *dbPath, *modelPath, *quiet); err != nil {
		os.Stderr.WriteString("train: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath, season, dbPath, modelPath string, quiet bool) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if modelPath != "" {
		cfg.ModelPath = modelPath
	}
	if err := logger.InitWithOptions(logger.Options{Format: cfg.LogFormat}); err != nil {
		return err
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Named("train")

	store, err := repository.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if csvPath != "" {
		if err := importCSV(ctx, store, csvPath, season, log); err != nil {
			return err
		}
	}

	matches, err := store.Matches(ctx)
	if err != nil {
		return err
	}
	log.Info(ctx, "fitting", logger.Int("matches", len(matches)), logger.String("db", cfg.DBPath))

	ts, err := app.EstimatorFromConfig(cfg, log).Fit(ctx, matches)
	if err != nil {
		return err
	}
	if err := store.SaveModel(ctx, ts); err != nil {
		return err
	}
	if cfg.ModelPath != "" {
		if err := modelfile.Save(cfg.ModelPath, ts); err != nil {
			return err
		}
	}
	log.Info(ctx, "model saved",
		logger.String("model_id", ts.ID()),
		logger.String("model_path", cfg.ModelPath),
		logger.Float64("home_advantage", ts.HomeAdvantage()),
	)

	if !quiet {
		return printCoefficients(ts)
	}
	return nil
}

func importCSV(ctx context.Context, store repository.MatchStore, path, season string, log logger.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := csvimport.ReadMatches(f, season)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	inserted, err := store.SaveMatches(ctx, res.Matches)
	if err != nil {
		return err
	}
	log.Info(ctx, "csv imported",
		logger.String("path", path),
		logger.Int("rows", len(res.Matches)),
		logger.Int("inserted", inserted),
		logger.Int("unplayed", res.Skipped),
	)
	return nil
}

// printCoefficients writes teams ordered by attack plus defense, strongest first.
func printCoefficients(ts *strength.TeamStrength) error {
	teams := ts.Teams()
	net := func(team string) float64 {
		c, _ := ts.Coefficients(team)
		return c.Attack + c.Defense
	}
	sort.SliceStable(teams, func(i, j int) bool { return net(teams[i]) > net(teams[j]) })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "team\tattack\tdefense\t\n")
	for _, team := range teams {
		c, _ := ts.Coefficients(team)
		fmt.Fprintf(w, "%s\t%+.3f\t%+.3f\t\n", team, c.Attack, c.Defense)
	}
	fmt.Fprintf(w, "intercept\t%+.3f\t\t\n", ts.Intercept())
	fmt.Fprintf(w, "home\t%+.3f\t\t\n", ts.HomeAdvantage())
	return w.Flush()
}
