package repository

import "errors"

var (
	// ErrCorrupt is returned when the persisted project list cannot be decoded
	ErrCorrupt = errors.New("corrupt project store")

	// ErrDuplicateID is returned when a saved list repeats a project ID
	ErrDuplicateID = errors.New("duplicate project id")
)
