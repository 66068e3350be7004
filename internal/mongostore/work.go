package mongostore

import (
	"context"
	"time"

	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/csbs/studyportal/internal/repository"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type statusDoc struct {
	UserID    string    `bson:"userId"`
	Username  string    `bson:"username"`
	State     string    `bson:"state"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type countsDoc struct {
	Completed     int `bson:"completed"`
	Doing         int `bson:"doing"`
	NotYetStarted int `bson:"notYetStarted"`
}

type workDoc struct {
	ID          string      `bson:"_id"`
	Subject     string      `bson:"subject"`
	Description string      `bson:"work"`
	Deadline    string      `bson:"deadline"`
	AddedBy     string      `bson:"addedBy"`
	FileURL     string      `bson:"fileUrl"`
	CreatedAt   time.Time   `bson:"createdAt"`
	Status      []statusDoc `bson:"status"`
	Counts      countsDoc   `bson:"counts"`
	Version     int64       `bson:"version"`
}

func toStatusDocs(status []work.StatusEntry) []statusDoc {
	docs := make([]statusDoc, 0, len(status))
	for _, s := range status {
		docs = append(docs, statusDoc{
			UserID:    s.UserID,
			Username:  s.Username,
			State:     string(s.State),
			UpdatedAt: s.UpdatedAt,
		})
	}
	return docs
}

func newWorkDoc(w *work.Work) workDoc {
	return workDoc{
		ID:          w.ID,
		Subject:     w.Subject,
		Description: w.Description,
		Deadline:    w.Deadline,
		AddedBy:     w.AddedBy,
		FileURL:     w.FileURL,
		CreatedAt:   w.CreatedAt,
		Status:      toStatusDocs(w.Status),
		Counts:      countsDoc(w.Counts),
		Version:     w.Version,
	}
}

func (d workDoc) toWork() work.Work {
	status := make([]work.StatusEntry, 0, len(d.Status))
	for _, s := range d.Status {
		// rows written by older clients may carry the legacy spelling
		state, err := work.ParseState(s.State)
		if err != nil {
			state = work.State(s.State)
		}
		status = append(status, work.StatusEntry{
			UserID:    s.UserID,
			Username:  s.Username,
			State:     state,
			UpdatedAt: s.UpdatedAt,
		})
	}
	return work.Work{
		ID:          d.ID,
		Subject:     d.Subject,
		Description: d.Description,
		Deadline:    d.Deadline,
		AddedBy:     d.AddedBy,
		FileURL:     d.FileURL,
		CreatedAt:   d.CreatedAt,
		Status:      status,
		Counts:      work.Counts(d.Counts),
		Version:     d.Version,
	}
}

// WorkRepository implements work.Repository on a MongoDB collection.
type WorkRepository struct {
	coll *mongo.Collection
}

// NewWorkRepository creates a new WorkRepository.
func NewWorkRepository(db *DB) *WorkRepository {
	return &WorkRepository{coll: db.collection(worksCollection)}
}

func (r *WorkRepository) Create(ctx context.Context, w *work.Work) error {
	if _, err := r.coll.InsertOne(ctx, newWorkDoc(w)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return errors.Wrap(err, "failed to create work")
	}
	return nil
}

func (r *WorkRepository) Get(ctx context.Context, id string) (*work.Work, error) {
	var doc workDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get work")
	}
	w := doc.toWork()
	return &w, nil
}

func (r *WorkRepository) List(ctx context.Context) ([]work.Work, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list works")
	}

	var docs []workDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode works")
	}

	works := make([]work.Work, 0, len(docs))
	for _, doc := range docs {
		works = append(works, doc.toWork())
	}
	return works, nil
}

// Update swaps in the new status list and counts only while the stored
// version still equals expectedVersion.
func (r *WorkRepository) Update(ctx context.Context, w *work.Work, expectedVersion int64) error {
	filter := bson.M{"_id": w.ID, "version": expectedVersion}
	update := bson.M{"$set": bson.M{
		"status":  toStatusDocs(w.Status),
		"counts":  countsDoc(w.Counts),
		"version": w.Version,
	}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrap(err, "failed to update work")
	}
	if result.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": w.ID})
	if err != nil {
		return errors.Wrap(err, "failed to check work")
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *WorkRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "failed to delete work")
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
