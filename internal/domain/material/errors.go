package material

import "github.com/pkg/errors"

// ErrInvalidInput indicates a missing or malformed link.
var ErrInvalidInput = errors.New("invalid material input")
