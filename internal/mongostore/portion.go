package mongostore

import (
	"context"
	"time"

	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/repository"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type portionDoc struct {
	ID              string    `bson:"_id"`
	Subject         string    `bson:"subject"`
	Staff           string    `bson:"staff"`
	CompletedTopics []string  `bson:"completedTopics"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

func (d portionDoc) toPortion() portion.Portion {
	topics := d.CompletedTopics
	if topics == nil {
		topics = []string{}
	}
	return portion.Portion{
		ID:              d.ID,
		Subject:         d.Subject,
		Staff:           d.Staff,
		CompletedTopics: topics,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// PortionRepository implements portion.Repository on a MongoDB collection.
// Topic appends are a single conditional $push, so concurrent writers can
// never record the same topic twice.
type PortionRepository struct {
	coll *mongo.Collection
}

func NewPortionRepository(db *DB) *PortionRepository {
	return &PortionRepository{coll: db.collection(portionsCollection)}
}

func (r *PortionRepository) List(ctx context.Context) ([]portion.Portion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list portions")
	}

	var docs []portionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode portions")
	}

	portions := make([]portion.Portion, 0, len(docs))
	for _, doc := range docs {
		portions = append(portions, doc.toPortion())
	}
	return portions, nil
}

func (r *PortionRepository) Find(ctx context.Context, subject, staff string) (*portion.Portion, error) {
	var doc portionDoc
	err := r.coll.FindOne(ctx, bson.M{"subject": subject, "staff": staff}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find portion")
	}
	p := doc.toPortion()
	return &p, nil
}

func (r *PortionRepository) Create(ctx context.Context, p *portion.Portion) error {
	topics := p.CompletedTopics
	if topics == nil {
		topics = []string{}
	}
	doc := portionDoc{
		ID:              p.ID,
		Subject:         p.Subject,
		Staff:           p.Staff,
		CompletedTopics: topics,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return errors.Wrap(err, "failed to create portion")
	}
	return nil
}

func (r *PortionRepository) AppendTopic(ctx context.Context, id, topic string, at time.Time) (bool, error) {
	filter := bson.M{"_id": id, "completedTopics": bson.M{"$ne": topic}}
	update := bson.M{
		"$push": bson.M{"completedTopics": topic},
		"$set":  bson.M{"updatedAt": at},
	}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, errors.Wrap(err, "failed to append topic")
	}
	if result.ModifiedCount > 0 {
		return true, nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, errors.Wrap(err, "failed to check portion")
	}
	if n == 0 {
		return false, repository.ErrNotFound
	}
	return false, nil
}
