package simulation

import "errors"

var (
	// ErrInvalidSimulations is returned for a non-positive trial count.
	ErrInvalidSimulations = errors.New("simulation count must be positive")
	// ErrInvalidRate is returned for a negative or non-finite Poisson rate.
	ErrInvalidRate = errors.New("invalid poisson rate")
)
