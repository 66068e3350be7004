package work

import (
	"context"

	"github.com/csbs/studyportal/internal/domain/activity"
)

// Repository provides persistence for works.
type Repository interface {
	Create(ctx context.Context, w *Work) error
	Get(ctx context.Context, id string) (*Work, error)
	// List returns every work, newest first.
	List(ctx context.Context) ([]Work, error)
	// Update replaces status and counts if the stored version equals
	// expectedVersion, storing w.Version.
	Update(ctx context.Context, w *Work, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}

// ActivityRepository logs work activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}
