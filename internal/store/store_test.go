package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/csbs/studyportal/internal/config"
	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteCreatesDirectory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "portal.db")

	s, err := Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: path}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, s.Works.Create(ctx, &work.Work{
		ID: "w1", Subject: "Math", Description: "HW1", Deadline: "2024-01-10",
		AddedBy: "Admin", CreatedAt: time.Now(), Status: []work.StatusEntry{},
	}))
	works, err := s.Works.List(ctx)
	require.NoError(t, err)
	require.Len(t, works, 1)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "portal.db")}

	s, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.Works.Create(ctx, &work.Work{
		ID: "w1", Subject: "Math", Description: "HW1", Deadline: "2024-01-10",
		AddedBy: "Admin", CreatedAt: time.Now(), Status: []work.StatusEntry{},
	}))
	require.NoError(t, s.Close(ctx))

	s, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	got, err := s.Works.Get(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, "HW1", got.Description)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "postgres"}, nil)
	require.Error(t, err)
}
