package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	worksCollection     = "works"
	portionsCollection  = "portions"
	materialsCollection = "materials"
	activityCollection  = "activity"
)

// DB holds a connected client and the database the portal lives in.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the server answers and selects database.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongodb is not reachable")
	}

	return &DB{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes creates the indexes the repositories rely on.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		worksCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		portionsCollection: {
			{
				Keys:    bson.D{{Key: "subject", Value: 1}, {Key: "staff", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		materialsCollection: {
			{Keys: bson.D{{Key: "uploadDate", Value: -1}}},
		},
		activityCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "subjectId", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := d.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "failed to create indexes on %s", name)
		}
	}
	return nil
}

// Drop removes the whole database. Used by tests.
func (d *DB) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *DB) collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}
