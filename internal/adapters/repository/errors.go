package repository

import "errors"

// Sentinel kinds for fact store errors.
var (
	ErrInvalidFixture = errors.New("invalid fixture")
	ErrMissingDSN     = errors.New("mysql dsn or host is required")
)
