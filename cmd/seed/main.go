// Command seed fills the database with a synthetic league whose true team
// strengths are known, for demos and local testing.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/okian/matchodds/internal/adapters/repository"
	"github.com/okian/matchodds/internal/config"
	"github.com/okian/matchodds/internal/leaguegen"
	"github.com/okian/matchodds/pkg/logger"
)

func main() {
	teams := flag.Int("teams", 20, "number of teams")
	seasons := flag.Int("seasons", 3, "number of double round-robin seasons")
	seed := flag.Uint64("seed", 42, "random seed")
	firstSeason := flag.Int("first-season", 2021, "year the first season starts")
	dbPath := flag.String("db", "", "SQLite database (default from config)")
	flag.Parse()

	ctx := context.Background()
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("seed: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("seed")

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal(ctx, "load config", logger.Error(err))
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	league := leaguegen.Generate(
		leaguegen.WithTeams(*teams),
		leaguegen.WithSeasons(*seasons),
		leaguegen.WithSeed(*seed),
		leaguegen.WithFirstSeason(*firstSeason),
	)

	store, err := repository.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal(ctx, "open store", logger.Error(err))
	}
	defer store.Close()

	inserted, err := store.SaveMatches(ctx, league.Matches)
	if err != nil {
		log.Fatal(ctx, "save matches", logger.Error(err))
	}
	log.Info(ctx, "league seeded",
		logger.String("db", cfg.DBPath),
		logger.Int("teams", len(league.Teams)),
		logger.Int("matches", len(league.Matches)),
		logger.Int("inserted", inserted),
		logger.Float64("true_home_advantage", league.HomeAdvantage),
	)
}
