package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/csbs/studyportal/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestWork(id string, createdAt time.Time) *work.Work {
	return &work.Work{
		ID:          id,
		Subject:     "Math",
		Description: "HW " + id,
		Deadline:    "2024-01-10",
		AddedBy:     "Admin",
		CreatedAt:   createdAt,
		Status:      []work.StatusEntry{},
	}
}

func TestWorkRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWorkRepository(db)
	ctx := context.Background()

	w := newTestWork("w1", time.Now())
	w.FileURL = "https://example.com/hw1.pdf"
	require.NoError(t, repo.Create(ctx, w))

	retrieved, err := repo.Get(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, w.ID, retrieved.ID)
	require.Equal(t, w.Subject, retrieved.Subject)
	require.Equal(t, w.Description, retrieved.Description)
	require.Equal(t, "2024-01-10", retrieved.Deadline)
	require.Equal(t, w.FileURL, retrieved.FileURL)
	require.NotNil(t, retrieved.Status)
	require.Empty(t, retrieved.Status)
	require.Equal(t, work.Counts{}, retrieved.Counts)
	require.WithinDuration(t, w.CreatedAt, retrieved.CreatedAt, time.Millisecond)

	_, err = repo.Get(ctx, "nonexistent")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestWorkRepository_CreateDuplicateID(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWorkRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestWork("w1", time.Now())))
	require.ErrorIs(t, repo.Create(ctx, newTestWork("w1", time.Now())), repository.ErrDuplicate)
}

func TestWorkRepository_ListNewestFirst(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWorkRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newTestWork("old", base)))
	require.NoError(t, repo.Create(ctx, newTestWork("new", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newTestWork("mid", base.Add(time.Minute))))

	works, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, works, 3)
	require.Equal(t, []string{"new", "mid", "old"}, []string{works[0].ID, works[1].ID, works[2].ID})
}

func TestWorkRepository_UpdateVersionCheck(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWorkRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestWork("w1", time.Now())))

	updated := newTestWork("w1", time.Now())
	updated.Status = []work.StatusEntry{
		{UserID: "u1", Username: "Alice", State: work.StateDoing, UpdatedAt: time.Now().UTC()},
	}
	updated.Counts = work.Counts{Doing: 1}
	updated.Version = 1
	require.NoError(t, repo.Update(ctx, updated, 0))

	retrieved, err := repo.Get(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, int64(1), retrieved.Version)
	require.Equal(t, work.Counts{Doing: 1}, retrieved.Counts)
	require.Len(t, retrieved.Status, 1)
	require.Equal(t, "u1", retrieved.Status[0].UserID)
	require.Equal(t, work.StateDoing, retrieved.Status[0].State)

	// stale writer
	stale := *updated
	stale.Version = 1
	require.ErrorIs(t, repo.Update(ctx, &stale, 0), repository.ErrConflict)

	missing := newTestWork("missing", time.Now())
	require.ErrorIs(t, repo.Update(ctx, missing, 0), repository.ErrNotFound)
}

func TestWorkRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewWorkRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestWork("w1", time.Now())))
	require.NoError(t, repo.Delete(ctx, "w1"))

	_, err := repo.Get(ctx, "w1")
	require.Equal(t, repository.ErrNotFound, err)
	require.Equal(t, repository.ErrNotFound, repo.Delete(ctx, "w1"))
}

func TestWorkRepository_ServiceRoundTrip(t *testing.T) {
	db := NewTestDB(t)
	svc := work.NewService(NewWorkRepository(db), NewActivityRepository(db), nil)
	ctx := context.Background()

	w, err := svc.Create(ctx, work.CreateRequest{Subject: "Math", Description: "HW1", Deadline: "2024-01-10"})
	require.NoError(t, err)

	_, totals, err := svc.SetStatus(ctx, work.SetStatusRequest{WorkID: w.ID, UserID: "u1", Username: "Alice", State: "doing"})
	require.NoError(t, err)
	require.Equal(t, work.Totals{TotalWorks: 1, Doing: 1}, totals)

	updated, totals, err := svc.SetStatus(ctx, work.SetStatusRequest{WorkID: w.ID, UserID: "u1", Username: "Alice", State: "completed"})
	require.NoError(t, err)
	require.Equal(t, work.Counts{Completed: 1}, updated.Counts)
	require.Equal(t, work.Totals{TotalWorks: 1, Completed: 1}, totals)

	stored, err := svc.Get(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), stored.Version)
	require.Len(t, stored.Status, 1)
}
