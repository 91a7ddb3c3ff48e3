// Package csvimport reads historical results from CSV files.
//
// Two layouts are recognised by header: the native one
// (season,date,home_team,away_team,home_goals,away_goals) and the
// football-data.co.uk one (Date,HomeTeam,AwayTeam,FTHG,FTAG), whose dates are
// dd/mm/yy or dd/mm/yyyy and whose season is supplied by the caller.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/matchodds/internal/domain/model"
)

var (
	// ErrUnknownLayout is returned when the header matches neither layout.
	ErrUnknownLayout = errors.New("unrecognised csv header")
	// ErrMissingSeason is returned for football-data files read without a season.
	ErrMissingSeason = errors.New("season required for football-data files")
)

type layout struct {
	season, date, home, away, homeGoals, awayGoals string
	dateLayouts                                    []string
}

var (
	native = layout{
		season: "season", date: "date",
		home: "home_team", away: "away_team",
		homeGoals: "home_goals", awayGoals: "away_goals",
		dateLayouts: []string{model.DateLayout},
	}
	footballData = layout{
		date: "Date", home: "HomeTeam", away: "AwayTeam",
		homeGoals: "FTHG", awayGoals: "FTAG",
		dateLayouts: []string{"02/01/2006", "02/01/06"},
	}
)

// Result is what a read produced.
type Result struct {
	Matches []model.HistoricalMatch
	// Skipped counts rows without a final score, i.e. fixtures not yet played.
	Skipped int
}

// ReadMatches parses r. season is used only for football-data files.
// Rows without goals are skipped; any other malformed row fails the read.
func ReadMatches(r io.Reader, season string) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}

	var l layout
	switch {
	case hasAll(colIdx, native.season, native.date, native.home, native.away, native.homeGoals, native.awayGoals):
		l = native
	case hasAll(colIdx, footballData.date, footballData.home, footballData.away, footballData.homeGoals, footballData.awayGoals):
		if strings.TrimSpace(season) == "" {
			return Result{}, ErrMissingSeason
		}
		l = footballData
	default:
		return Result{}, fmt.Errorf("%w: %v", ErrUnknownLayout, header)
	}

	var res Result
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return Result{}, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(row) {
			continue
		}

		hg, ag := getCol(row, colIdx, l.homeGoals), getCol(row, colIdx, l.awayGoals)
		if hg == "" || ag == "" {
			res.Skipped++
			continue
		}
		m, err := l.parse(row, colIdx, season, hg, ag)
		if err != nil {
			return Result{}, fmt.Errorf("line %d: %w", line, err)
		}
		res.Matches = append(res.Matches, m)
	}
	return res, nil
}

func (l layout) parse(row []string, colIdx map[string]int, season, hg, ag string) (model.HistoricalMatch, error) {
	m := model.HistoricalMatch{
		Season:   season,
		HomeTeam: getCol(row, colIdx, l.home),
		AwayTeam: getCol(row, colIdx, l.away),
	}
	if l.season != "" {
		m.Season = getCol(row, colIdx, l.season)
	}

	raw := getCol(row, colIdx, l.date)
	var err error
	for _, dl := range l.dateLayouts {
		if m.Date, err = time.Parse(dl, raw); err == nil {
			break
		}
	}
	if err != nil {
		return model.HistoricalMatch{}, fmt.Errorf("invalid date %q", raw)
	}

	if m.HomeGoals, err = strconv.Atoi(hg); err != nil {
		return model.HistoricalMatch{}, fmt.Errorf("invalid home goals %q", hg)
	}
	if m.AwayGoals, err = strconv.Atoi(ag); err != nil {
		return model.HistoricalMatch{}, fmt.Errorf("invalid away goals %q", ag)
	}
	if err := m.Validate(); err != nil {
		return model.HistoricalMatch{}, err
	}
	return m, nil
}

func hasAll(idx map[string]int, names ...string) bool {
	for _, n := range names {
		if _, ok := idx[n]; !ok {
			return false
		}
	}
	return true
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func getCol(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
