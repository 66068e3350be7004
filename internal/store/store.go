// Package store opens the configured persistence backend and hands out its
// repositories.
package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/csbs/studyportal/internal/config"
	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/csbs/studyportal/internal/domain/material"
	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/csbs/studyportal/internal/mongostore"
	"github.com/csbs/studyportal/internal/sqlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Store bundles the repositories of one backend.
type Store struct {
	Works     work.Repository
	Portions  portion.Repository
	Materials material.Repository
	Activity  activity.Repository

	close func(ctx context.Context) error
}

// Close releases the backend's connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the backend named by cfg.Driver and prepares its schema.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		if err := ensureDBDir(cfg.SQLitePath); err != nil {
			return nil, errors.Wrap(err, "failed to prepare database path")
		}
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("opened sqlite store", zap.String("path", cfg.SQLitePath))
		return NewSQLite(db), nil

	case config.DriverMongo:
		db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
		logger.Info("opened mongo store", zap.String("database", cfg.MongoDatabase))
		return NewMongo(db), nil

	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// NewSQLite wraps an already-migrated SQLite database.
func NewSQLite(db *sqlite.DB) *Store {
	return &Store{
		Works:     sqlite.NewWorkRepository(db),
		Portions:  sqlite.NewPortionRepository(db),
		Materials: sqlite.NewMaterialRepository(db),
		Activity:  sqlite.NewActivityRepository(db),
		close:     func(context.Context) error { return db.Close() },
	}
}

// NewMongo wraps a connected MongoDB database.
func NewMongo(db *mongostore.DB) *Store {
	return &Store{
		Works:     mongostore.NewWorkRepository(db),
		Portions:  mongostore.NewPortionRepository(db),
		Materials: mongostore.NewMaterialRepository(db),
		Activity:  mongostore.NewActivityRepository(db),
		close:     db.Close,
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
