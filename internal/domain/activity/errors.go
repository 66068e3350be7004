package activity

import "github.com/pkg/errors"

// ErrInvalidInput indicates a missing or malformed activity entry.
var ErrInvalidInput = errors.New("invalid activity input")
