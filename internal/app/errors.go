package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoRoster = errors.New("no roster loaded")
	ErrNotFound = errors.New("engagement not found")
)
