package leaguegen

import "time"

// Default league configuration constants.
const (
	defaultTeams         = 20
	defaultSeasons       = 3
	defaultSeed          = 42
	defaultIntercept     = 0.3
	defaultHomeAdvantage = 0.25
	defaultSpread        = 0.25
	defaultFirstSeason   = 2021
)

// Option applies a configuration option to the generator.
type Option func(*config)

type config struct {
	teams         int
	seasons       int
	seed          uint64
	intercept     float64
	homeAdvantage float64
	spread        float64
	firstSeason   int
	kickoff       time.Weekday
}

// WithTeams sets the number of teams in the league.
func WithTeams(n int) Option {
	return func(c *config) {
		if n >= 2 {
			c.teams = n
		}
	}
}

// WithSeasons sets how many double round-robin seasons are played.
func WithSeasons(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.seasons = n
		}
	}
}

// WithSeed fixes the random source so the league is reproducible.
func WithSeed(seed uint64) Option {
	return func(c *config) { c.seed = seed }
}

// WithIntercept sets the true log goal rate of an average away side.
func WithIntercept(v float64) Option {
	return func(c *config) { c.intercept = v }
}

// WithHomeAdvantage sets the true home advantage on the log scale.
func WithHomeAdvantage(v float64) Option {
	return func(c *config) { c.homeAdvantage = v }
}

// WithSpread sets the standard deviation of the true attack and defense effects.
func WithSpread(sigma float64) Option {
	return func(c *config) {
		if sigma >= 0 {
			c.spread = sigma
		}
	}
}

// WithFirstSeason sets the year the first generated season starts in.
func WithFirstSeason(year int) Option {
	return func(c *config) { c.firstSeason = year }
}
