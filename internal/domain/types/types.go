// Package types contains the response shapes shared by the service and the HTTP API.
package types

import (
	"strconv"
	"time"

	"github.com/okian/matchodds/internal/domain/model"
)

// TeamContext is current-season information shown next to a prediction.
// It is looked up independently and never feeds the model.
type TeamContext struct {
	Team          string  `json:"team"`
	Season        string  `json:"season"`
	ShotsPerMatch float64 `json:"shots_per_match"`
	CardsPerMatch float64 `json:"cards_per_match"`
}

// Score is a final score.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s Score) String() string {
	return strconv.Itoa(s.Home) + "-" + strconv.Itoa(s.Away)
}

// PredictionView is a prediction rounded for display: expected goals to two
// decimals, percentages to one.
type PredictionView struct {
	HomeTeam          string       `json:"home_team"`
	AwayTeam          string       `json:"away_team"`
	HomeExpectedGoals float64      `json:"home_expected_goals"`
	AwayExpectedGoals float64      `json:"away_expected_goals"`
	HomeWinPct        float64      `json:"home_win_pct"`
	DrawPct           float64      `json:"draw_pct"`
	AwayWinPct        float64      `json:"away_win_pct"`
	MostLikelyScore   Score        `json:"most_likely_score"`
	MostLikelyPct     float64      `json:"most_likely_pct"`
	GridCoveragePct   float64      `json:"grid_coverage_pct"`
	Simulations       int          `json:"simulations"`
	Reliable          bool         `json:"reliable"`
	ModelID           string       `json:"model_id"`
	HomeContext       *TeamContext `json:"home_context,omitempty"`
	AwayContext       *TeamContext `json:"away_context,omitempty"`
}

// NewPredictionView rounds p for display.
func NewPredictionView(p model.Prediction) PredictionView {
	return PredictionView{
		HomeTeam:          p.Fixture.HomeTeam,
		AwayTeam:          p.Fixture.AwayTeam,
		HomeExpectedGoals: model.Round(p.ExpectedGoals.HomeRate, 2),
		AwayExpectedGoals: model.Round(p.ExpectedGoals.AwayRate, 2),
		HomeWinPct:        model.Percentage(p.Outcome.HomeWin, 1),
		DrawPct:           model.Percentage(p.Outcome.Draw, 1),
		AwayWinPct:        model.Percentage(p.Outcome.AwayWin, 1),
		MostLikelyScore:   Score{Home: p.MostLikely.HomeGoals, Away: p.MostLikely.AwayGoals},
		MostLikelyPct:     p.MostLikely.Percent(),
		GridCoveragePct:   model.Percentage(p.GridCoverage, 1),
		Simulations:       p.Outcome.Simulations,
		Reliable:          p.Outcome.Reliable,
		ModelID:           p.ModelID,
	}
}

// ModelInfo describes the active model.
type ModelInfo struct {
	ID            string    `json:"id"`
	FittedAt      time.Time `json:"fitted_at"`
	Teams         int       `json:"teams"`
	Matches       int       `json:"matches"`
	ReferenceTeam string    `json:"reference_team"`
	Intercept     float64   `json:"intercept"`
	HomeAdvantage float64   `json:"home_advantage"`
	LogLikelihood float64   `json:"log_likelihood"`
	Iterations    int       `json:"iterations"`
}

// IngestResult summarises a batch of submitted matches.
type IngestResult struct {
	Received   int `json:"received"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}
