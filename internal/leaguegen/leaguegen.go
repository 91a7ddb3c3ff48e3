// Package leaguegen generates synthetic league histories with known team
// strengths. Scores are Poisson draws from the same log-linear model the
// estimator fits, which makes the output useful for seeding and testing.
package leaguegen

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/okian/matchodds/internal/domain/model"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const daysBetweenRounds = 7

// Team is a generated team with its true strength.
type Team struct {
	Name    string
	Attack  float64
	Defense float64
}

// League is a generated history.
type League struct {
	Teams         []Team
	Intercept     float64
	HomeAdvantage float64
	Matches       []model.HistoricalMatch
}

// Generate plays every configured season as a double round-robin.
func Generate(opts ...Option) *League {
	c := &config{
		teams:         defaultTeams,
		seasons:       defaultSeasons,
		seed:          defaultSeed,
		intercept:     defaultIntercept,
		homeAdvantage: defaultHomeAdvantage,
		spread:        defaultSpread,
		firstSeason:   defaultFirstSeason,
	}
	for _, opt := range opts {
		opt(c)
	}

	src := rand.NewSource(c.seed)
	normal := distuv.Normal{Mu: 0, Sigma: c.spread, Src: src}

	league := &League{
		Teams:         make([]Team, c.teams),
		Intercept:     c.intercept,
		HomeAdvantage: c.homeAdvantage,
	}
	for i := range league.Teams {
		t := Team{Name: TeamName(i)}
		if c.spread > 0 {
			t.Attack = normal.Rand()
			t.Defense = normal.Rand()
		}
		league.Teams[i] = t
	}

	goals := distuv.Poisson{Src: src}
	sample := func(lambda float64) int {
		goals.Lambda = lambda
		return int(goals.Rand())
	}

	for s := 0; s < c.seasons; s++ {
		year := c.firstSeason + s
		season := strconv.Itoa(year)
		rounds := schedule(c.teams)
		start := time.Date(year, time.August, 1, 0, 0, 0, 0, time.UTC)
		for r, pairs := range rounds {
			date := start.AddDate(0, 0, r*daysBetweenRounds)
			for _, p := range pairs {
				home, away := league.Teams[p[0]], league.Teams[p[1]]
				league.Matches = append(league.Matches, model.HistoricalMatch{
					Season:    season,
					Date:      date,
					HomeTeam:  home.Name,
					AwayTeam:  away.Name,
					HomeGoals: sample(math.Exp(c.intercept + c.homeAdvantage + home.Attack - away.Defense)),
					AwayGoals: sample(math.Exp(c.intercept + away.Attack - home.Defense)),
				})
			}
		}
	}
	return league
}

// TeamName returns the generated name of the i-th team: TeamA..TeamZ, then Team27 onwards.
func TeamName(i int) string {
	if i < 26 {
		return "Team" + string(rune('A'+i))
	}
	return fmt.Sprintf("Team%02d", i+1)
}

// schedule returns the rounds of a double round-robin using the circle
// method. Each round lists (home, away) index pairs. With an odd team count
// one team rests every round.
func schedule(n int) [][][2]int {
	slots := n
	if slots%2 == 1 {
		slots++
	}
	ring := make([]int, slots)
	for i := range ring {
		ring[i] = i
	}

	first := make([][][2]int, 0, slots-1)
	for r := 0; r < slots-1; r++ {
		var round [][2]int
		for k := 0; k < slots/2; k++ {
			a, b := ring[k], ring[slots-1-k]
			if a >= n || b >= n {
				continue
			}
			if (r+k)%2 == 1 {
				a, b = b, a
			}
			round = append(round, [2]int{a, b})
		}
		first = append(first, round)
		// keep ring[0] fixed and rotate the rest by one
		last := ring[slots-1]
		copy(ring[2:], ring[1:slots-1])
		ring[1] = last
	}

	rounds := make([][][2]int, 0, 2*len(first))
	rounds = append(rounds, first...)
	for _, round := range first {
		reversed := make([][2]int, len(round))
		for i, p := range round {
			reversed[i] = [2]int{p[1], p[0]}
		}
		rounds = append(rounds, reversed)
	}
	return rounds
}
