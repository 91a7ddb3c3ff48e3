// Package model contains the domain records passed between the prediction
// layers: historical results, fixtures and the summaries derived from them.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar-day layout used for match dates in keys and storage.
const DateLayout = "2006-01-02"

// ErrInvalidMatch marks a historical result that cannot be used for training.
var ErrInvalidMatch = errors.New("invalid match")

// HistoricalMatch is one completed fixture. It is never modified after it
// has been recorded.
type HistoricalMatch struct {
	Season    string    `json:"season"`
	Date      time.Time `json:"date"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	HomeGoals int       `json:"home_goals"`
	AwayGoals int       `json:"away_goals"`
}

// Validate reports why m cannot be used as training input.
func (m HistoricalMatch) Validate() error {
	switch {
	case strings.TrimSpace(m.HomeTeam) == "":
		return fmt.Errorf("%w: missing home team", ErrInvalidMatch)
	case strings.TrimSpace(m.AwayTeam) == "":
		return fmt.Errorf("%w: missing away team", ErrInvalidMatch)
	case m.HomeTeam == m.AwayTeam:
		return fmt.Errorf("%w: %q cannot play itself", ErrInvalidMatch, m.HomeTeam)
	case m.HomeGoals < 0 || m.AwayGoals < 0:
		return fmt.Errorf("%w: negative goals %d-%d", ErrInvalidMatch, m.HomeGoals, m.AwayGoals)
	}
	return nil
}

// Key identifies a fixture for duplicate detection.
func (m HistoricalMatch) Key() string {
	return m.Season + "|" + m.Date.Format(DateLayout) + "|" + m.HomeTeam + "|" + m.AwayTeam
}

// SortMatches orders matches canonically (date, home, away, season) so that
// consumers see the same sequence regardless of how the input was collected.
func SortMatches(matches []HistoricalMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.HomeTeam != b.HomeTeam {
			return a.HomeTeam < b.HomeTeam
		}
		if a.AwayTeam != b.AwayTeam {
			return a.AwayTeam < b.AwayTeam
		}
		return a.Season < b.Season
	})
}

// Teams returns the sorted set of team names appearing in matches.
func Teams(matches []HistoricalMatch) []string {
	seen := make(map[string]struct{})
	for _, m := range matches {
		seen[m.HomeTeam] = struct{}{}
		seen[m.AwayTeam] = struct{}{}
	}
	teams := make([]string, 0, len(seen))
	for t := range seen {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}
