package work

import "github.com/pkg/errors"

var (
	// ErrWorkNotFound indicates the work doesn't exist.
	ErrWorkNotFound = errors.New("work not found")
	// ErrInvalidInput indicates missing or malformed work input.
	ErrInvalidInput = errors.New("invalid work input")
	// ErrInvalidState indicates a status outside completed/doing/not_started.
	ErrInvalidState = errors.New("invalid work state")
	// ErrConflict indicates concurrent status writers kept winning the race.
	ErrConflict = errors.New("work modified concurrently")
)
