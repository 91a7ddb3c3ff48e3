package service

import "errors"

var (
	// ErrModelUnavailable is returned when no fitted model can be loaded.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrNotStarted is returned by operations that need a started service.
	ErrNotStarted = errors.New("service not started")
	// ErrTrainingThrottled is returned when training is requested too often.
	ErrTrainingThrottled = errors.New("training throttled")
	// ErrJobNotFound is returned for an unknown training job ID.
	ErrJobNotFound = errors.New("training job not found")
)
