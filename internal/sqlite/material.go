package sqlite

import (
	"context"
	"time"

	"github.com/csbs/studyportal/internal/domain/material"
	"github.com/pkg/errors"
)

type materialRow struct {
	ID          string    `db:"id"`
	Link        string    `db:"link"`
	DisplayName string    `db:"display_name"`
	Subject     string    `db:"subject"`
	Format      string    `db:"format"`
	UploadDate  time.Time `db:"upload_date"`
	UploadedBy  string    `db:"uploaded_by"`
}

// MaterialRepository implements material.Repository for SQLite
type MaterialRepository struct {
	db *DB
}

// NewMaterialRepository creates a new MaterialRepository
func NewMaterialRepository(db *DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// Create inserts a material
func (r *MaterialRepository) Create(ctx context.Context, m *material.Material) error {
	row := materialRow(*m)
	row.UploadDate = row.UploadDate.UTC()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO materials (id, link, display_name, subject, format, upload_date, uploaded_by)
		VALUES (:id, :link, :display_name, :subject, :format, :upload_date, :uploaded_by)
	`, row)
	return translateWriteErr(err, "failed to create material")
}

// List returns every material, newest upload first
func (r *MaterialRepository) List(ctx context.Context) ([]material.Material, error) {
	var rows []materialRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, link, display_name, subject, format, upload_date, uploaded_by
		FROM materials
		ORDER BY upload_date DESC, rowid DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list materials")
	}

	materials := make([]material.Material, 0, len(rows))
	for _, row := range rows {
		materials = append(materials, material.Material(row))
	}
	return materials, nil
}
