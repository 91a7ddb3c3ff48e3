package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/internal/domain/strength"
	"github.com/okian/matchodds/pkg/logger"
	"github.com/okian/matchodds/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// timestampLayout has a fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS matches (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		season     TEXT    NOT NULL,
		date       TEXT    NOT NULL,
		home_team  TEXT    NOT NULL,
		away_team  TEXT    NOT NULL,
		home_goals INTEGER,
		away_goals INTEGER,
		UNIQUE (season, date, home_team, away_team)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_date ON matches(date)`,
	`CREATE TABLE IF NOT EXISTS season_stats (
		team           TEXT    NOT NULL,
		season         TEXT    NOT NULL,
		matches_played INTEGER NOT NULL DEFAULT 0,
		shots          INTEGER NOT NULL DEFAULT 0,
		yellow_cards   INTEGER NOT NULL DEFAULT 0,
		red_cards      INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (team, season)
	)`,
	`CREATE TABLE IF NOT EXISTS models (
		id        TEXT PRIMARY KEY,
		fitted_at TEXT NOT NULL,
		teams     INTEGER NOT NULL,
		document  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_models_fitted_at ON models(fitted_at)`,
}

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and ensures
// the schema exists.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(%d)", path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	s.db = db

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("read match count: %w", err)
	}
	logger.Get().Named("repository").Info(ctx, "opened match database",
		logger.String("path", path),
		logger.Int("matches", count),
	)
	return s, nil
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func (s *SQLiteStore) SaveMatches(ctx context.Context, matches []model.HistoricalMatch) (int, error) {
	defer observe("save_matches", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO matches
		(season, date, home_team, away_team, home_goals, away_goals) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, m := range matches {
		res, err := stmt.ExecContext(ctx, m.Season, m.Date.Format(model.DateLayout), m.HomeTeam, m.AwayTeam, m.HomeGoals, m.AwayGoals)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", m.Key(), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStore) Matches(ctx context.Context) ([]model.HistoricalMatch, error) {
	defer observe("matches", time.Now())

	// Fixtures without a result are not training data.
	rows, err := s.db.QueryContext(ctx, `SELECT season, date, home_team, away_team, home_goals, away_goals
		FROM matches
		WHERE home_goals IS NOT NULL AND away_goals IS NOT NULL
		ORDER BY date, home_team, away_team, season`)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var out []model.HistoricalMatch
	for rows.Next() {
		var m model.HistoricalMatch
		var date string
		if err := rows.Scan(&m.Season, &date, &m.HomeTeam, &m.AwayTeam, &m.HomeGoals, &m.AwayGoals); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if m.Date, err = time.Parse(model.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MatchKeys(ctx context.Context) ([]string, error) {
	defer observe("match_keys", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT season || '|' || date || '|' || home_team || '|' || away_team FROM matches ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query match keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Teams(ctx context.Context) ([]string, error) {
	defer observe("teams", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT home_team FROM matches UNION SELECT away_team FROM matches ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var teams []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *SQLiteStore) UpsertSeasonStats(ctx context.Context, stats []model.TeamSeasonStats) error {
	defer observe("upsert_season_stats", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, st := range stats {
		_, err := tx.ExecContext(ctx, `INSERT INTO season_stats
			(team, season, matches_played, shots, yellow_cards, red_cards) VALUES (?,?,?,?,?,?)
			ON CONFLICT(team, season) DO UPDATE SET
				matches_played = excluded.matches_played,
				shots = excluded.shots,
				yellow_cards = excluded.yellow_cards,
				red_cards = excluded.red_cards`,
			st.Team, st.Season, st.MatchesPlayed, st.Shots, st.YellowCards, st.RedCards)
		if err != nil {
			return fmt.Errorf("upsert stats %s/%s: %w", st.Team, st.Season, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LatestSeasonStats(ctx context.Context, team string) (model.TeamSeasonStats, error) {
	defer observe("latest_season_stats", time.Now())

	st := model.TeamSeasonStats{Team: team}
	err := s.db.QueryRowContext(ctx, `SELECT season, matches_played, shots, yellow_cards, red_cards
		FROM season_stats WHERE team = ? AND shots > 0
		ORDER BY season DESC LIMIT 1`, team).
		Scan(&st.Season, &st.MatchesPlayed, &st.Shots, &st.YellowCards, &st.RedCards)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TeamSeasonStats{}, fmt.Errorf("season stats for %q: %w", team, ErrNotFound)
	}
	if err != nil {
		return model.TeamSeasonStats{}, fmt.Errorf("query season stats: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) SaveModel(ctx context.Context, ts *strength.TeamStrength) error {
	defer observe("save_model", time.Now())

	doc, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO models (id, fitted_at, teams, document) VALUES (?,?,?,?)`,
		ts.ID(), ts.FittedAt().UTC().Format(timestampLayout), ts.Len(), string(doc))
	if err != nil {
		return fmt.Errorf("insert model: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestModel(ctx context.Context) (*strength.TeamStrength, error) {
	defer observe("latest_model", time.Now())

	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM models ORDER BY fitted_at DESC, rowid DESC LIMIT 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest model: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query model: %w", err)
	}
	var ts strength.TeamStrength
	if err := json.Unmarshal([]byte(doc), &ts); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &ts, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
