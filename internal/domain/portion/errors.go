package portion

import "github.com/pkg/errors"

var (
	// ErrInvalidInput indicates a blank subject, staff or topic.
	ErrInvalidInput = errors.New("subject, topic, and staff are required")
	// ErrPortionNotFound indicates the ledger vanished between lookup and append.
	ErrPortionNotFound = errors.New("portion not found")
)
