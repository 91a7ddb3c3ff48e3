package model

import (
	"github.com/shopspring/decimal"
)

// FixtureRequest names the two sides of a match to predict.
type FixtureRequest struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
}

// ExpectedGoals holds the Poisson means for each side of a fixture.
type ExpectedGoals struct {
	HomeRate float64 `json:"home_rate"`
	AwayRate float64 `json:"away_rate"`
}

// OutcomeSummary is a Monte Carlo estimate of the three match outcomes.
// HomeWins+Draws+AwayWins always equals Simulations.
type OutcomeSummary struct {
	HomeWin     float64 `json:"home_win"`
	Draw        float64 `json:"draw"`
	AwayWin     float64 `json:"away_win"`
	HomeWins    int     `json:"home_wins"`
	Draws       int     `json:"draws"`
	AwayWins    int     `json:"away_wins"`
	Simulations int     `json:"simulations"`
	// Reliable is false when Simulations is below the configured minimum.
	Reliable bool `json:"reliable"`
}

// ScorelineProbability is one cell of the scoreline grid.
type ScorelineProbability struct {
	HomeGoals   int     `json:"home_goals"`
	AwayGoals   int     `json:"away_goals"`
	Probability float64 `json:"probability"`
}

// Percent returns the probability as a percentage rounded to one decimal place.
func (s ScorelineProbability) Percent() float64 {
	return Percentage(s.Probability, 1)
}

// Prediction is the complete answer for one fixture.
type Prediction struct {
	Fixture       FixtureRequest       `json:"fixture"`
	ExpectedGoals ExpectedGoals        `json:"expected_goals"`
	Outcome       OutcomeSummary       `json:"outcome"`
	MostLikely    ScorelineProbability `json:"most_likely_score"`
	// GridCoverage is the probability mass inside the bounded scoreline grid.
	GridCoverage float64 `json:"grid_coverage"`
	ModelID      string  `json:"model_id"`
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Percentage converts a probability into a percentage rounded to places.
func Percentage(p float64, places int32) float64 {
	return decimal.NewFromFloat(p).Mul(decimal.NewFromInt(100)).Round(places).InexactFloat64()
}
