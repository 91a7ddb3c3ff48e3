package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStats marks season statistics that cannot be stored.
var ErrInvalidStats = errors.New("invalid season stats")

// TeamSeasonStats are aggregate current-season numbers shown next to a
// prediction. They never feed the model.
type TeamSeasonStats struct {
	Team          string `json:"team"`
	Season        string `json:"season"`
	MatchesPlayed int    `json:"matches_played"`
	Shots         int    `json:"shots"`
	YellowCards   int    `json:"yellow_cards"`
	RedCards      int    `json:"red_cards"`
}

// PerMatch divides the aggregates by the matches played, falling back to
// defaultMatches when the count is unknown. Values are rounded to 2 places.
func (s TeamSeasonStats) PerMatch(defaultMatches int) (shots, cards float64) {
	n := s.MatchesPlayed
	if n <= 0 {
		n = defaultMatches
	}
	if n <= 0 {
		return 0, 0
	}
	shots = Round(float64(s.Shots)/float64(n), 2)
	cards = Round(float64(s.YellowCards+s.RedCards)/float64(n), 2)
	return shots, cards
}

// Validate reports why s cannot be stored.
func (s TeamSeasonStats) Validate() error {
	switch {
	case strings.TrimSpace(s.Team) == "":
		return fmt.Errorf("%w: missing team", ErrInvalidStats)
	case strings.TrimSpace(s.Season) == "":
		return fmt.Errorf("%w: missing season for %q", ErrInvalidStats, s.Team)
	case s.MatchesPlayed < 0 || s.Shots < 0 || s.YellowCards < 0 || s.RedCards < 0:
		return fmt.Errorf("%w: negative count for %q", ErrInvalidStats, s.Team)
	}
	return nil
}
