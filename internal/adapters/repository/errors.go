package repository

import "errors"

// ErrNotFound is returned when a lookup has no matching row.
var ErrNotFound = errors.New("not found")
