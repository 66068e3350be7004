package mongostore

import (
	"context"
	"time"

	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type activityDoc struct {
	ID           string    `bson:"_id"`
	ActivityType string    `bson:"type"`
	SubjectID    string    `bson:"subjectId"`
	Actor        string    `bson:"actor"`
	Summary      string    `bson:"summary"`
	Details      string    `bson:"details"`
	CreatedAt    time.Time `bson:"createdAt"`
}

// ActivityRepository implements activity.Repository on a MongoDB collection.
type ActivityRepository struct {
	coll *mongo.Collection
}

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{coll: db.collection(activityCollection)}
}

func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	doc := activityDoc{
		ID:           entry.ID,
		ActivityType: string(entry.ActivityType),
		SubjectID:    entry.SubjectID,
		Actor:        entry.Actor,
		Summary:      entry.Summary,
		Details:      entry.Details,
		CreatedAt:    entry.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "failed to log activity")
	}
	return nil
}

func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	filter := bson.M{}
	if opts.SubjectID != "" {
		filter["subjectId"] = opts.SubjectID
	}
	if opts.ActivityType != nil {
		filter["type"] = string(*opts.ActivityType)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list activity")
	}

	var docs []activityDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode activity")
	}

	entries := make([]activity.ActivityEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, activity.ActivityEntry{
			ID:           doc.ID,
			ActivityType: activity.ActivityType(doc.ActivityType),
			SubjectID:    doc.SubjectID,
			Actor:        doc.Actor,
			Summary:      doc.Summary,
			Details:      doc.Details,
			CreatedAt:    doc.CreatedAt,
		})
	}
	return entries, nil
}
