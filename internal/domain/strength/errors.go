package strength

import "errors"

var (
	// ErrInsufficientData is returned when the history has no matches or fewer than two teams.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrIncompleteCoverage is returned when a team's coefficients cannot be estimated.
	ErrIncompleteCoverage = errors.New("incomplete coverage")
	// ErrNotConverged is returned when the optimizer stops before reaching a minimum.
	ErrNotConverged = errors.New("fit did not converge")
	// ErrInvalidModel is returned when a serialized model cannot be used.
	ErrInvalidModel = errors.New("invalid model")
)
