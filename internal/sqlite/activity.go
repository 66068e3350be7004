package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type activityRow struct {
	ID           string    `db:"id"`
	ActivityType string    `db:"activity_type"`
	SubjectID    string    `db:"subject_id"`
	Actor        string    `db:"actor"`
	Summary      string    `db:"summary"`
	Details      string    `db:"details"`
	CreatedAt    time.Time `db:"created_at"`
}

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO activity_log (id, activity_type, subject_id, actor, summary, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActivityType,
		entry.SubjectID,
		entry.Actor,
		entry.Summary,
		entry.Details,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to log activity")
	}
	return nil
}

// List returns activity entries matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	query := `
		SELECT id, activity_type, subject_id, actor, summary, details, created_at
		FROM activity_log
	`

	var args []any
	var conditions []string
	if opts.SubjectID != "" {
		conditions = append(conditions, "subject_id = ?")
		args = append(args, opts.SubjectID)
	}
	if opts.ActivityType != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, string(*opts.ActivityType))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, seq DESC"

	// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, opts.Offset)
	}

	var rows []activityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list activity")
	}

	entries := make([]activity.ActivityEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, activity.ActivityEntry{
			ID:           row.ID,
			ActivityType: activity.ActivityType(row.ActivityType),
			SubjectID:    row.SubjectID,
			Actor:        row.Actor,
			Summary:      row.Summary,
			Details:      row.Details,
			CreatedAt:    row.CreatedAt,
		})
	}
	return entries, nil
}
