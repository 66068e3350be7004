package sqlite

import (
	"strings"

	"github.com/csbs/studyportal/internal/repository"
	"github.com/pkg/errors"
)

func isForeignKeyViolation(err error) bool {
	return hasConstraintFailure(err, "FOREIGN KEY")
}

func isUniqueViolation(err error) bool {
	return hasConstraintFailure(err, "UNIQUE")
}

func hasConstraintFailure(err error, kind string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), kind+" constraint failed")
}

// translateWriteErr maps constraint failures onto repository errors and
// wraps everything else with msg.
func translateWriteErr(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return repository.ErrDuplicate
	case isForeignKeyViolation(err):
		return repository.ErrNotFound
	default:
		return errors.Wrap(err, msg)
	}
}
