package portion

import (
	"context"
	"time"

	"github.com/csbs/studyportal/internal/domain/activity"
)

// Repository provides persistence for portion ledgers.
type Repository interface {
	List(ctx context.Context) ([]Portion, error)
	// Find returns repository.ErrNotFound when no ledger exists for the pair.
	Find(ctx context.Context, subject, staff string) (*Portion, error)
	// Create returns repository.ErrDuplicate if the pair is already taken.
	Create(ctx context.Context, p *Portion) error
	// AppendTopic appends topic unless present and reports whether it did.
	AppendTopic(ctx context.Context, id, topic string, at time.Time) (bool, error)
}

// ActivityRepository logs portion activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}
