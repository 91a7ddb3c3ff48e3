package rates

import "errors"

var (
	// ErrUnknownTeam is returned when a fixture names a team the model has never seen.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrIdenticalTeams is returned when a fixture pits a team against itself.
	ErrIdenticalTeams = errors.New("identical teams")
	// ErrDegenerateRate is returned when the model yields a rate that cannot parameterize a Poisson draw.
	ErrDegenerateRate = errors.New("degenerate rate")
)
