// Package simulation estimates win, draw and loss probabilities by sampling
// independent Poisson scorelines.
package simulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/pkg/logger"
	"github.com/okian/matchodds/pkg/metrics"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"
)

// ctxCheckEvery is how many trials a shard runs between context checks.
const ctxCheckEvery = 4096

// Simulator runs Monte Carlo match simulations. It is stateless between
// calls and safe for concurrent use.
type Simulator struct {
	trials      int
	workers     int
	seed        uint64
	minReliable int
	log         logger.Logger
}

// New creates a Simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		trials:      defaultTrials,
		workers:     defaultWorkers,
		minReliable: defaultMinReliable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trials returns the configured number of trials used by Run.
func (s *Simulator) Trials() int { return s.trials }

// Run simulates the configured number of matches.
func (s *Simulator) Run(ctx context.Context, eg model.ExpectedGoals) (model.OutcomeSummary, error) {
	return s.Simulate(ctx, eg, s.trials)
}

type tally struct {
	home, draw, away int
}

// Simulate draws n independent scorelines and counts the outcomes. Every
// trial lands in exactly one bucket, so the counts always sum to n.
func (s *Simulator) Simulate(ctx context.Context, eg model.ExpectedGoals, n int) (model.OutcomeSummary, error) {
	if n <= 0 {
		return model.OutcomeSummary{}, fmt.Errorf("%w: %d", ErrInvalidSimulations, n)
	}
	if err := checkRate(eg.HomeRate); err != nil {
		return model.OutcomeSummary{}, fmt.Errorf("home: %w", err)
	}
	if err := checkRate(eg.AwayRate); err != nil {
		return model.OutcomeSummary{}, fmt.Errorf("away: %w", err)
	}

	start := time.Now()
	base := s.seed
	if base == 0 {
		base = uint64(time.Now().UnixNano())
	}

	shards := s.workers
	if shards > n {
		shards = n
	}
	tallies := make([]tally, shards)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < shards; i++ {
		i := i
		size := n / shards
		if i < n%shards {
			size++
		}
		g.Go(func() error {
			return runShard(gctx, eg, size, base+uint64(i), &tallies[i])
		})
	}
	if err := g.Wait(); err != nil {
		return model.OutcomeSummary{}, fmt.Errorf("simulation aborted: %w", err)
	}

	var total tally
	for _, t := range tallies {
		total.home += t.home
		total.draw += t.draw
		total.away += t.away
	}

	out := model.OutcomeSummary{
		HomeWins:    total.home,
		Draws:       total.draw,
		AwayWins:    total.away,
		Simulations: n,
		HomeWin:     float64(total.home) / float64(n),
		Draw:        float64(total.draw) / float64(n),
		AwayWin:     float64(total.away) / float64(n),
		Reliable:    n >= s.minReliable,
	}
	if !out.Reliable {
		s.logger().Warn(ctx, "simulation count too small for reliable estimates",
			logger.Int("simulations", n),
			logger.Int("min_reliable", s.minReliable),
		)
	}
	metrics.RecordSimulation(n, float64(time.Since(start).Microseconds())/1000, out.Reliable)
	return out, nil
}

func runShard(ctx context.Context, eg model.ExpectedGoals, size int, seed uint64, out *tally) error {
	src := rand.NewSource(seed)
	home := distuv.Poisson{Lambda: eg.HomeRate, Src: src}
	away := distuv.Poisson{Lambda: eg.AwayRate, Src: src}

	var t tally
	for k := 0; k < size; k++ {
		if k%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		h, a := home.Rand(), away.Rand()
		switch {
		case h > a:
			t.home++
		case h < a:
			t.away++
		default:
			t.draw++
		}
	}
	*out = t
	return nil
}

func checkRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	return nil
}

func (s *Simulator) logger() logger.Logger {
	if s.log != nil {
		return s.log
	}
	return logger.Named("simulator")
}
