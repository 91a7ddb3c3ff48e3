package smoketest

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/matchodds/internal/domain/types"
	"github.com/okian/matchodds/internal/leaguegen"
)

// pctSlack allows for each of the three percentages being rounded to 1dp.
const pctSlack = 0.2

// ErrInconsistent marks a prediction that breaks a basic invariant.
var ErrInconsistent = errors.New("inconsistent prediction")

// verifyPredictions checks every view on its own and then checks that the
// strongest true team is favoured at home against the weakest.
func verifyPredictions(league *leaguegen.League, views map[fixture]types.PredictionView) error {
	for f, v := range views {
		if err := checkView(v); err != nil {
			return fmt.Errorf("%s v %s: %w", f.home, f.away, err)
		}
	}

	// defense lowers the opponent's rate, so overall strength is the sum
	net := func(t leaguegen.Team) float64 { return t.Attack + t.Defense }
	strongest, weakest := league.Teams[0], league.Teams[0]
	for _, t := range league.Teams[1:] {
		if net(t) > net(strongest) {
			strongest = t
		}
		if net(t) < net(weakest) {
			weakest = t
		}
	}
	if strongest.Name == weakest.Name {
		return nil
	}
	if v, ok := views[fixture{strongest.Name, weakest.Name}]; ok && v.HomeWinPct <= v.AwayWinPct {
		return fmt.Errorf("%w: %s at home to %s is not favoured (%.1f%% v %.1f%%)",
			ErrInconsistent, strongest.Name, weakest.Name, v.HomeWinPct, v.AwayWinPct)
	}
	return nil
}

func checkView(v types.PredictionView) error {
	switch {
	case !(v.HomeExpectedGoals > 0) || !(v.AwayExpectedGoals > 0):
		return fmt.Errorf("%w: non-positive expected goals %.2f/%.2f", ErrInconsistent, v.HomeExpectedGoals, v.AwayExpectedGoals)
	case math.Abs(v.HomeWinPct+v.DrawPct+v.AwayWinPct-100) > pctSlack:
		return fmt.Errorf("%w: outcome percentages sum to %.1f", ErrInconsistent, v.HomeWinPct+v.DrawPct+v.AwayWinPct)
	case v.MostLikelyScore.Home < 0 || v.MostLikelyScore.Away < 0:
		return fmt.Errorf("%w: negative most likely score %s", ErrInconsistent, v.MostLikelyScore)
	case v.MostLikelyPct <= 0 || v.MostLikelyPct > 100:
		return fmt.Errorf("%w: most likely probability %.1f%%", ErrInconsistent, v.MostLikelyPct)
	case v.ModelID == "":
		return fmt.Errorf("%w: missing model id", ErrInconsistent)
	}
	return nil
}
