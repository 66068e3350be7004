package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/repository"
	"github.com/pkg/errors"
)

type portionRow struct {
	ID        string    `db:"id"`
	Subject   string    `db:"subject"`
	Staff     string    `db:"staff"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type topicRow struct {
	PortionID string `db:"portion_id"`
	Topic     string `db:"topic"`
}

func (r portionRow) toPortion(topics []string) portion.Portion {
	if topics == nil {
		topics = []string{}
	}
	return portion.Portion{
		ID:              r.ID,
		Subject:         r.Subject,
		Staff:           r.Staff,
		CompletedTopics: topics,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// PortionRepository implements portion.Repository for SQLite
type PortionRepository struct {
	db *DB
}

// NewPortionRepository creates a new PortionRepository
func NewPortionRepository(db *DB) *PortionRepository {
	return &PortionRepository{db: db}
}

// List returns every portion in creation order with its topics
func (r *PortionRepository) List(ctx context.Context) ([]portion.Portion, error) {
	var rows []portionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, subject, staff, created_at, updated_at
		FROM portions
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list portions")
	}

	var topics []topicRow
	err = r.db.SelectContext(ctx, &topics, `SELECT portion_id, topic FROM portion_topics ORDER BY seq ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list portion topics")
	}

	byPortion := make(map[string][]string, len(rows))
	for _, t := range topics {
		byPortion[t.PortionID] = append(byPortion[t.PortionID], t.Topic)
	}

	portions := make([]portion.Portion, 0, len(rows))
	for _, row := range rows {
		portions = append(portions, row.toPortion(byPortion[row.ID]))
	}
	return portions, nil
}

// Find retrieves the portion for a (subject, staff) pair
func (r *PortionRepository) Find(ctx context.Context, subject, staff string) (*portion.Portion, error) {
	var row portionRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, subject, staff, created_at, updated_at
		FROM portions
		WHERE subject = ? AND staff = ?
	`, subject, staff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find portion")
	}

	var topics []string
	err = r.db.SelectContext(ctx, &topics,
		`SELECT topic FROM portion_topics WHERE portion_id = ? ORDER BY seq ASC`, row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load portion topics")
	}

	p := row.toPortion(topics)
	return &p, nil
}

// Create inserts an empty portion
func (r *PortionRepository) Create(ctx context.Context, p *portion.Portion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO portions (id, subject, staff, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Subject, p.Staff, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return translateWriteErr(err, "failed to create portion")
	}

	for _, topic := range p.CompletedTopics {
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO portion_topics (portion_id, topic, added_at)
			VALUES (?, ?, ?)
		`, p.ID, topic, p.CreatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "failed to seed portion topics")
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// AppendTopic appends topic to the portion unless it is already present
func (r *PortionRepository) AppendTopic(ctx context.Context, id, topic string, at time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO portion_topics (portion_id, topic, added_at)
		VALUES (?, ?, ?)
	`, id, topic, at.UTC())
	if err != nil {
		return false, translateWriteErr(err, "failed to append topic")
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to get rows affected")
	}
	if inserted == 0 {
		return false, nil
	}

	if _, err = tx.ExecContext(ctx, `UPDATE portions SET updated_at = ? WHERE id = ?`, at.UTC(), id); err != nil {
		return false, errors.Wrap(err, "failed to touch portion")
	}

	if err = tx.Commit(); err != nil {
		return false, errors.Wrap(err, "failed to commit transaction")
	}
	return true, nil
}
