package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/csbs/studyportal/internal/repository"
	"github.com/pkg/errors"
)

// statusColumn stores a work's status list as JSON text.
type statusColumn []work.StatusEntry

func (s statusColumn) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]work.StatusEntry(s))
	if err != nil {
		return nil, errors.Wrap(err, "encoding status list")
	}
	return string(b), nil
}

func (s *statusColumn) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = statusColumn{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.Errorf("unsupported status column type %T", src)
	}
	var entries []work.StatusEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return errors.Wrap(err, "decoding status list")
	}
	if entries == nil {
		entries = []work.StatusEntry{}
	}
	*s = entries
	return nil
}

type workRow struct {
	ID            string       `db:"id"`
	Subject       string       `db:"subject"`
	Description   string       `db:"description"`
	Deadline      string       `db:"deadline"`
	AddedBy       string       `db:"added_by"`
	FileURL       string       `db:"file_url"`
	Status        statusColumn `db:"status"`
	Completed     int          `db:"completed"`
	Doing         int          `db:"doing"`
	NotYetStarted int          `db:"not_yet_started"`
	Version       int64        `db:"version"`
	CreatedAt     time.Time    `db:"created_at"`
}

func newWorkRow(w *work.Work) workRow {
	return workRow{
		ID:            w.ID,
		Subject:       w.Subject,
		Description:   w.Description,
		Deadline:      w.Deadline,
		AddedBy:       w.AddedBy,
		FileURL:       w.FileURL,
		Status:        statusColumn(w.Status),
		Completed:     w.Counts.Completed,
		Doing:         w.Counts.Doing,
		NotYetStarted: w.Counts.NotYetStarted,
		Version:       w.Version,
		CreatedAt:     w.CreatedAt.UTC(),
	}
}

func (r workRow) toWork() work.Work {
	return work.Work{
		ID:          r.ID,
		Subject:     r.Subject,
		Description: r.Description,
		Deadline:    r.Deadline,
		AddedBy:     r.AddedBy,
		FileURL:     r.FileURL,
		CreatedAt:   r.CreatedAt,
		Status:      []work.StatusEntry(r.Status),
		Counts: work.Counts{
			Completed:     r.Completed,
			Doing:         r.Doing,
			NotYetStarted: r.NotYetStarted,
		},
		Version: r.Version,
	}
}

const workColumns = `id, subject, description, deadline, added_by, file_url,
	status, completed, doing, not_yet_started, version, created_at`

// WorkRepository implements work.Repository for SQLite
type WorkRepository struct {
	db *DB
}

// NewWorkRepository creates a new WorkRepository
func NewWorkRepository(db *DB) *WorkRepository {
	return &WorkRepository{db: db}
}

// Create inserts a new work
func (r *WorkRepository) Create(ctx context.Context, w *work.Work) error {
	query := `
		INSERT INTO works (` + workColumns + `)
		VALUES (:id, :subject, :description, :deadline, :added_by, :file_url,
			:status, :completed, :doing, :not_yet_started, :version, :created_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, newWorkRow(w))
	return translateWriteErr(err, "failed to create work")
}

// Get retrieves a work by ID
func (r *WorkRepository) Get(ctx context.Context, id string) (*work.Work, error) {
	var row workRow
	err := r.db.GetContext(ctx, &row, `SELECT `+workColumns+` FROM works WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get work")
	}
	w := row.toWork()
	return &w, nil
}

// List returns every work, newest first
func (r *WorkRepository) List(ctx context.Context) ([]work.Work, error) {
	var rows []workRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+workColumns+` FROM works ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list works")
	}

	works := make([]work.Work, 0, len(rows))
	for _, row := range rows {
		works = append(works, row.toWork())
	}
	return works, nil
}

// Update replaces the status list and counts when the stored version still
// equals expectedVersion.
func (r *WorkRepository) Update(ctx context.Context, w *work.Work, expectedVersion int64) error {
	query := `
		UPDATE works
		SET status = ?, completed = ?, doing = ?, not_yet_started = ?, version = ?
		WHERE id = ? AND version = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		statusColumn(w.Status),
		w.Counts.Completed,
		w.Counts.Doing,
		w.Counts.NotYetStarted,
		w.Version,
		w.ID,
		expectedVersion,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update work")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM works WHERE id = ?`, w.ID); err != nil {
		return errors.Wrap(err, "failed to check work")
	}
	if exists == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// Delete removes a work
func (r *WorkRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM works WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete work")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
