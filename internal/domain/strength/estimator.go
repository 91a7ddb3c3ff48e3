// Package strength fits per-team attack and defense coefficients from
// historical goal counts with a log-linear Poisson regression.
//
// For every match two observations are produced, one per side:
//
//	log E[goals] = intercept + home·is_home + attack[team] − defense[opponent]
//
// The lexicographically smallest team is the reference team. Its attack and
// defense are fixed at zero so the remaining effects are identifiable; every
// other team's coefficients are relative to it.
package strength

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/pkg/logger"
	"github.com/okian/matchodds/pkg/metrics"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Indices of the global parameters in the optimizer vector.
const (
	interceptIdx = 0
	homeIdx      = 1
	globalParams = 2
)

// Estimator fits TeamStrength models. It holds configuration only and is
// safe for concurrent use.
type Estimator struct {
	ridge             float64
	maxIterations     int
	gradientThreshold float64
	maxAbsCoefficient float64
	log               logger.Logger
}

// New creates an Estimator with the given options.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		maxIterations:     defaultMaxIterations,
		gradientThreshold: defaultGradientThreshold,
		maxAbsCoefficient: defaultMaxAbsCoefficient,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// observation is one side of one match with its sparse design row.
type observation struct {
	goals float64
	cols  []int
	signs []float64
}

// design is the unpivoted training table plus the team index.
type design struct {
	teams []string
	obs   []observation
	// lgammaSum is Σ log(y!) so the reported log-likelihood is the full one.
	lgammaSum float64
	meanGoals float64
}

func (d *design) params() int { return globalParams + 2*(len(d.teams)-1) }

// attackCol and defenseCol map team index t (t ≥ 1) to its parameter column.
func (d *design) attackCol(t int) int  { return globalParams + t - 1 }
func (d *design) defenseCol(t int) int { return globalParams + len(d.teams) - 1 + t - 1 }

func buildDesign(matches []model.HistoricalMatch) (*design, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no matches", ErrInsufficientData)
	}
	sorted := make([]model.HistoricalMatch, len(matches))
	copy(sorted, matches)
	model.SortMatches(sorted)

	for i := range sorted {
		if err := sorted[i].Validate(); err != nil {
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
	}

	teams := model.Teams(sorted)
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: %d distinct teams", ErrInsufficientData, len(teams))
	}
	index := make(map[string]int, len(teams))
	for i, t := range teams {
		index[t] = i
	}

	d := &design{teams: teams, obs: make([]observation, 0, 2*len(sorted))}
	var total float64
	add := func(team, opponent string, goals int, home bool) {
		o := observation{goals: float64(goals)}
		o.cols = append(o.cols, interceptIdx)
		o.signs = append(o.signs, 1)
		if home {
			o.cols = append(o.cols, homeIdx)
			o.signs = append(o.signs, 1)
		}
		if t := index[team]; t > 0 {
			o.cols = append(o.cols, d.attackCol(t))
			o.signs = append(o.signs, 1)
		}
		if t := index[opponent]; t > 0 {
			o.cols = append(o.cols, d.defenseCol(t))
			o.signs = append(o.signs, -1)
		}
		lg, _ := math.Lgamma(o.goals + 1)
		d.lgammaSum += lg
		total += o.goals
		d.obs = append(d.obs, o)
	}
	scored := make(map[string]int, len(teams))
	conceded := make(map[string]int, len(teams))
	for _, m := range sorted {
		add(m.HomeTeam, m.AwayTeam, m.HomeGoals, true)
		add(m.AwayTeam, m.HomeTeam, m.AwayGoals, false)
		scored[m.HomeTeam] += m.HomeGoals
		scored[m.AwayTeam] += m.AwayGoals
		conceded[m.HomeTeam] += m.AwayGoals
		conceded[m.AwayTeam] += m.HomeGoals
	}

	// A team that never scored (or never conceded) has an attack (defense)
	// estimate that diverges, so there is nothing finite to report.
	var uncovered []string
	for _, t := range teams {
		if scored[t] == 0 || conceded[t] == 0 {
			uncovered = append(uncovered, t)
		}
	}
	if len(uncovered) > 0 {
		return nil, fmt.Errorf("%w: no goals scored or conceded by %s",
			ErrIncompleteCoverage, strings.Join(uncovered, ", "))
	}

	d.meanGoals = total / float64(len(d.obs))
	return d, nil
}

func (o *observation) eta(x []float64) float64 {
	var v float64
	for k, c := range o.cols {
		v += o.signs[k] * x[c]
	}
	return v
}

// problem builds the mean negative log-likelihood (without the constant
// log(y!) term) plus the ridge penalty, with its gradient and Hessian.
func (e *Estimator) problem(ctx context.Context, d *design) optimize.Problem {
	n := float64(len(d.obs))
	p := d.params()
	return optimize.Problem{
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
		Func: func(x []float64) float64 {
			var f float64
			for i := range d.obs {
				eta := d.obs[i].eta(x)
				f += math.Exp(eta) - d.obs[i].goals*eta
			}
			f /= n
			for j := globalParams; j < p; j++ {
				f += 0.5 * e.ridge * x[j] * x[j]
			}
			return f
		},
		Grad: func(grad, x []float64) {
			for j := range grad {
				grad[j] = 0
			}
			for i := range d.obs {
				o := &d.obs[i]
				r := (math.Exp(o.eta(x)) - o.goals) / n
				for k, c := range o.cols {
					grad[c] += o.signs[k] * r
				}
			}
			for j := globalParams; j < p; j++ {
				grad[j] += e.ridge * x[j]
			}
		},
		Hess: func(hess *mat.SymDense, x []float64) {
			acc := make([]float64, p*p)
			for i := range d.obs {
				o := &d.obs[i]
				w := math.Exp(o.eta(x)) / n
				for a, ca := range o.cols {
					for b, cb := range o.cols {
						acc[ca*p+cb] += w * o.signs[a] * o.signs[b]
					}
				}
			}
			for j := globalParams; j < p; j++ {
				acc[j*p+j] += e.ridge
			}
			for i := 0; i < p; i++ {
				for j := i; j < p; j++ {
					hess.SetSym(i, j, acc[i*p+j])
				}
			}
		},
	}
}

// Fit estimates a TeamStrength from the given history. The input order does
// not affect the result.
func (e *Estimator) Fit(ctx context.Context, matches []model.HistoricalMatch) (*TeamStrength, error) {
	start := time.Now()
	ts, err := e.fit(ctx, matches)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordFit(status, float64(time.Since(start).Milliseconds()))
	if err == nil {
		metrics.UpdateFitSummary(ts.iterations, ts.logLikelihood)
	}
	return ts, err
}

func (e *Estimator) fit(ctx context.Context, matches []model.HistoricalMatch) (*TeamStrength, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fit cancelled: %w", err)
	}
	d, err := buildDesign(matches)
	if err != nil {
		return nil, err
	}

	x0 := make([]float64, d.params())
	if d.meanGoals > 0 {
		x0[interceptIdx] = math.Log(d.meanGoals)
	}
	settings := &optimize.Settings{
		GradientThreshold: e.gradientThreshold,
		MajorIterations:   e.maxIterations,
	}
	res, optErr := optimize.Minimize(e.problem(ctx, d), x0, settings, &optimize.Newton{})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fit cancelled: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConverged, optErr)
	}

	ts := e.assemble(d, res)
	if err := e.checkCoverage(ts); err != nil {
		return nil, err
	}
	if optErr != nil || !converged(res.Status) {
		return nil, fmt.Errorf("%w: status %v after %d iterations", ErrNotConverged, res.Status, res.MajorIterations)
	}

	e.logger().Info(ctx, "team strength fitted",
		logger.String("model_id", ts.id),
		logger.Int("matches", ts.matches),
		logger.Int("teams", len(d.teams)),
		logger.Int("iterations", ts.iterations),
		logger.Float64("log_likelihood", ts.logLikelihood),
		logger.Float64("home_advantage", ts.homeAdvantage),
		logger.String("reference_team", ts.reference),
	)
	return ts, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.StepConvergence:
		return true
	default:
		return false
	}
}

func (e *Estimator) assemble(d *design, res *optimize.Result) *TeamStrength {
	x := res.X
	teams := make(map[string]Coefficients, len(d.teams))
	teams[d.teams[0]] = Coefficients{}
	for t := 1; t < len(d.teams); t++ {
		teams[d.teams[t]] = Coefficients{Attack: x[d.attackCol(t)], Defense: x[d.defenseCol(t)]}
	}

	// Undo the mean scaling and penalty to report the plain log-likelihood.
	var nll float64
	for i := range d.obs {
		eta := d.obs[i].eta(x)
		nll += math.Exp(eta) - d.obs[i].goals*eta
	}

	return &TeamStrength{
		id:            uuid.NewString(),
		fittedAt:      time.Now().UTC(),
		intercept:     x[interceptIdx],
		homeAdvantage: x[homeIdx],
		reference:     d.teams[0],
		teams:         teams,
		matches:       len(d.obs) / 2,
		logLikelihood: -nll - d.lgammaSum,
		iterations:    res.MajorIterations,
	}
}

// checkCoverage rejects models where some coefficient ran off to infinity,
// which happens when a team never scored or never conceded.
func (e *Estimator) checkCoverage(ts *TeamStrength) error {
	bad := func(v float64) bool {
		return math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > e.maxAbsCoefficient
	}
	if bad(ts.intercept) || bad(ts.homeAdvantage) {
		return fmt.Errorf("%w: global terms undefined (intercept %v, home %v)",
			ErrIncompleteCoverage, ts.intercept, ts.homeAdvantage)
	}
	var uncovered []string
	for team, c := range ts.teams {
		if bad(c.Attack) || bad(c.Defense) {
			uncovered = append(uncovered, team)
		}
	}
	if len(uncovered) > 0 {
		sort.Strings(uncovered)
		return fmt.Errorf("%w: %s", ErrIncompleteCoverage, strings.Join(uncovered, ", "))
	}
	return nil
}

func (e *Estimator) logger() logger.Logger {
	if e.log != nil {
		return e.log
	}
	return logger.Named("estimator")
}
