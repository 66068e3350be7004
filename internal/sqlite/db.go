package sqlite

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sqlx.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sqlx.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// A single connection serialises writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema if it does not exist yet.
func (db *DB) RunMigrations() error {
	migration := `
-- Works with their embedded status list and derived counts
CREATE TABLE IF NOT EXISTS works (
    id TEXT PRIMARY KEY,
    subject TEXT NOT NULL,
    description TEXT NOT NULL,
    deadline TEXT NOT NULL,
    added_by TEXT NOT NULL,
    file_url TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '[]',
    completed INTEGER NOT NULL DEFAULT 0,
    doing INTEGER NOT NULL DEFAULT 0,
    not_yet_started INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_works_created_at ON works(created_at);

-- Portion ledgers, one per (subject, staff)
CREATE TABLE IF NOT EXISTS portions (
    id TEXT PRIMARY KEY,
    subject TEXT NOT NULL,
    staff TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (subject, staff)
);

-- Completed topics in append order
CREATE TABLE IF NOT EXISTS portion_topics (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    portion_id TEXT NOT NULL,
    topic TEXT NOT NULL,
    added_at TIMESTAMP NOT NULL,
    UNIQUE (portion_id, topic),
    FOREIGN KEY (portion_id) REFERENCES portions(id)
);

-- Study materials
CREATE TABLE IF NOT EXISTS materials (
    id TEXT PRIMARY KEY,
    link TEXT NOT NULL,
    display_name TEXT NOT NULL,
    subject TEXT NOT NULL,
    format TEXT NOT NULL,
    upload_date TIMESTAMP NOT NULL,
    uploaded_by TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_materials_upload_date ON materials(upload_date);

-- Activity log
CREATE TABLE IF NOT EXISTS activity_log (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    activity_type TEXT NOT NULL,
    subject_id TEXT NOT NULL DEFAULT '',
    actor TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_subject ON activity_log(subject_id);
CREATE INDEX IF NOT EXISTS idx_activity_created_at ON activity_log(created_at);
`

	if _, err := db.Exec(migration); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	return nil
}
