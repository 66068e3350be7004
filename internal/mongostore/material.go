package mongostore

import (
	"context"
	"time"

	"github.com/csbs/studyportal/internal/domain/material"
	"github.com/csbs/studyportal/internal/repository"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type materialDoc struct {
	ID          string    `bson:"_id"`
	Link        string    `bson:"link"`
	DisplayName string    `bson:"displayName"`
	Subject     string    `bson:"subject"`
	Format      string    `bson:"format"`
	UploadDate  time.Time `bson:"uploadDate"`
	UploadedBy  string    `bson:"uploadedBy"`
}

// MaterialRepository implements material.Repository on a MongoDB collection.
type MaterialRepository struct {
	coll *mongo.Collection
}

func NewMaterialRepository(db *DB) *MaterialRepository {
	return &MaterialRepository{coll: db.collection(materialsCollection)}
}

func (r *MaterialRepository) Create(ctx context.Context, m *material.Material) error {
	if _, err := r.coll.InsertOne(ctx, materialDoc(*m)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return errors.Wrap(err, "failed to create material")
	}
	return nil
}

func (r *MaterialRepository) List(ctx context.Context) ([]material.Material, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploadDate", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list materials")
	}

	var docs []materialDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode materials")
	}

	materials := make([]material.Material, 0, len(docs))
	for _, doc := range docs {
		materials = append(materials, material.Material(doc))
	}
	return materials, nil
}
