package scoreline

import "errors"

var (
	// ErrInvalidRate is returned for a negative or non-finite rate.
	ErrInvalidRate = errors.New("invalid poisson rate")
	// ErrInvalidMaxGoals is returned when the grid would be empty.
	ErrInvalidMaxGoals = errors.New("max goals must be at least 1")
)
