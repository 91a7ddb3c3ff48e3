package strength

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// documentVersion is bumped whenever the serialized layout changes.
const documentVersion = 1

// Coefficients are one team's strength parameters. Higher Attack means more
// goals scored; higher Defense means fewer goals conceded.
type Coefficients struct {
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
}

// TeamStrength is a fitted model. It is immutable: re-training produces a
// new value rather than patching an existing one.
type TeamStrength struct {
	id            string
	fittedAt      time.Time
	intercept     float64
	homeAdvantage float64
	reference     string
	teams         map[string]Coefficients

	matches       int
	logLikelihood float64
	iterations    int
}

// Build assembles a TeamStrength from known coefficients, for example ones
// produced outside this package. The lexicographically smallest team becomes
// the reference team.
func Build(intercept, homeAdvantage float64, teams map[string]Coefficients) (*TeamStrength, error) {
	ts := &TeamStrength{
		id:            uuid.NewString(),
		fittedAt:      time.Now().UTC(),
		intercept:     intercept,
		homeAdvantage: homeAdvantage,
		teams:         make(map[string]Coefficients, len(teams)),
	}
	for name, c := range teams {
		ts.teams[name] = c
	}
	if names := ts.Teams(); len(names) > 0 {
		ts.reference = names[0]
	}
	if err := ts.validate(); err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *TeamStrength) ID() string             { return ts.id }
func (ts *TeamStrength) FittedAt() time.Time    { return ts.fittedAt }
func (ts *TeamStrength) Intercept() float64     { return ts.intercept }
func (ts *TeamStrength) HomeAdvantage() float64 { return ts.homeAdvantage }
func (ts *TeamStrength) ReferenceTeam() string  { return ts.reference }
func (ts *TeamStrength) Matches() int           { return ts.matches }
func (ts *TeamStrength) LogLikelihood() float64 { return ts.logLikelihood }
func (ts *TeamStrength) Iterations() int        { return ts.iterations }
func (ts *TeamStrength) Len() int               { return len(ts.teams) }

// Coefficients returns the strength of team and whether the team is known.
func (ts *TeamStrength) Coefficients(team string) (Coefficients, bool) {
	c, ok := ts.teams[team]
	return c, ok
}

// Teams returns the known team names in sorted order.
func (ts *TeamStrength) Teams() []string {
	names := make([]string, 0, len(ts.teams))
	for name := range ts.teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithoutHomeAdvantage returns a copy whose home advantage is zero. The
// copy keeps the same ID so the two can be traced to one fit.
func (ts *TeamStrength) WithoutHomeAdvantage() *TeamStrength {
	cp := *ts
	cp.homeAdvantage = 0
	cp.teams = make(map[string]Coefficients, len(ts.teams))
	for name, c := range ts.teams {
		cp.teams[name] = c
	}
	return &cp
}

func (ts *TeamStrength) validate() error {
	if len(ts.teams) < 2 {
		return fmt.Errorf("%w: %d teams", ErrInvalidModel, len(ts.teams))
	}
	if !finite(ts.intercept) || !finite(ts.homeAdvantage) {
		return fmt.Errorf("%w: non-finite global terms", ErrInvalidModel)
	}
	ref, ok := ts.teams[ts.reference]
	if !ok {
		return fmt.Errorf("%w: reference team %q has no coefficients", ErrInvalidModel, ts.reference)
	}
	if ref != (Coefficients{}) {
		return fmt.Errorf("%w: reference team %q must have zero coefficients", ErrInvalidModel, ts.reference)
	}
	for name, c := range ts.teams {
		if name == "" {
			return fmt.Errorf("%w: empty team name", ErrInvalidModel)
		}
		if !finite(c.Attack) || !finite(c.Defense) {
			return fmt.Errorf("%w: non-finite coefficients for %q", ErrInvalidModel, name)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

type document struct {
	Version       int                     `json:"version"`
	ID            string                  `json:"id"`
	FittedAt      time.Time               `json:"fitted_at"`
	ReferenceTeam string                  `json:"reference_team"`
	Intercept     float64                 `json:"intercept"`
	HomeAdvantage float64                 `json:"home_advantage"`
	Teams         map[string]Coefficients `json:"teams"`
	Matches       int                     `json:"matches"`
	LogLikelihood float64                 `json:"log_likelihood"`
	Iterations    int                     `json:"iterations"`
}

// MarshalJSON encodes the model. encoding/json writes the shortest decimal
// that parses back to the same float64, so the round-trip is exact.
func (ts *TeamStrength) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		Version:       documentVersion,
		ID:            ts.id,
		FittedAt:      ts.fittedAt,
		ReferenceTeam: ts.reference,
		Intercept:     ts.intercept,
		HomeAdvantage: ts.homeAdvantage,
		Teams:         ts.teams,
		Matches:       ts.matches,
		LogLikelihood: ts.logLikelihood,
		Iterations:    ts.iterations,
	})
}

// UnmarshalJSON decodes and validates a model.
func (ts *TeamStrength) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if doc.Version != documentVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidModel, doc.Version)
	}
	decoded := TeamStrength{
		id:            doc.ID,
		fittedAt:      doc.FittedAt,
		intercept:     doc.Intercept,
		homeAdvantage: doc.HomeAdvantage,
		reference:     doc.ReferenceTeam,
		teams:         doc.Teams,
		matches:       doc.Matches,
		logLikelihood: doc.LogLikelihood,
		iterations:    doc.Iterations,
	}
	if err := decoded.validate(); err != nil {
		return err
	}
	*ts = decoded
	return nil
}
