package material

import (
	"context"

	"github.com/csbs/studyportal/internal/domain/activity"
)

// Repository provides persistence for materials.
type Repository interface {
	Create(ctx context.Context, m *Material) error
	// List returns every material, newest upload first.
	List(ctx context.Context) ([]Material, error)
}

// ActivityRepository logs material activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}
