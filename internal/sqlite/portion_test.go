package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestPortion(id, subject, staff string) *portion.Portion {
	now := time.Now()
	return &portion.Portion{
		ID:              id,
		Subject:         subject,
		Staff:           staff,
		CompletedTopics: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestPortionRepository_CreateFind(t *testing.T) {
	db := NewTestDB(t)
	repo := NewPortionRepository(db)
	ctx := context.Background()

	_, err := repo.Find(ctx, "Math", "Dr. K")
	require.Equal(t, repository.ErrNotFound, err)

	require.NoError(t, repo.Create(ctx, newTestPortion("p1", "Math", "Dr. K")))

	p, err := repo.Find(ctx, "Math", "Dr. K")
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
	require.NotNil(t, p.CompletedTopics)
	require.Empty(t, p.CompletedTopics)

	err = repo.Create(ctx, newTestPortion("p2", "Math", "Dr. K"))
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestPortionRepository_AppendTopic(t *testing.T) {
	db := NewTestDB(t)
	repo := NewPortionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestPortion("p1", "Math", "Dr. K")))

	appended, err := repo.AppendTopic(ctx, "p1", "Limits", time.Now())
	require.NoError(t, err)
	require.True(t, appended)

	appended, err = repo.AppendTopic(ctx, "p1", "Derivatives", time.Now())
	require.NoError(t, err)
	require.True(t, appended)

	appended, err = repo.AppendTopic(ctx, "p1", "Limits", time.Now())
	require.NoError(t, err)
	require.False(t, appended)

	p, err := repo.Find(ctx, "Math", "Dr. K")
	require.NoError(t, err)
	require.Equal(t, []string{"Limits", "Derivatives"}, p.CompletedTopics)

	_, err = repo.AppendTopic(ctx, "missing", "Limits", time.Now())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPortionRepository_ConcurrentAppendsAreDeduplicated(t *testing.T) {
	db := NewTestDB(t)
	repo := NewPortionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestPortion("p1", "Math", "Dr. K")))

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.AppendTopic(ctx, "p1", "Limits", time.Now())
			if err == nil {
				results[i] = ok
			}
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, ok := range results {
		if ok {
			wins++
		}
	}
	require.Equal(t, 1, wins)

	p, err := repo.Find(ctx, "Math", "Dr. K")
	require.NoError(t, err)
	require.Equal(t, []string{"Limits"}, p.CompletedTopics)
}

func TestPortionRepository_List(t *testing.T) {
	db := NewTestDB(t)
	repo := NewPortionRepository(db)
	ctx := context.Background()

	first := newTestPortion("p1", "Math", "Dr. K")
	second := newTestPortion("p2", "Physics", "Dr. R")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	_, err := repo.AppendTopic(ctx, "p2", "Optics", time.Now())
	require.NoError(t, err)

	portions, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, portions, 2)
	require.Equal(t, "p1", portions[0].ID)
	require.Empty(t, portions[0].CompletedTopics)
	require.Equal(t, "p2", portions[1].ID)
	require.Equal(t, []string{"Optics"}, portions[1].CompletedTopics)
}

func TestPortionRepository_ServiceScenario(t *testing.T) {
	db := NewTestDB(t)
	svc := portion.NewService(NewPortionRepository(db), NewActivityRepository(db), nil)
	ctx := context.Background()

	p, existed, err := svc.AddTopic(ctx, portion.AddTopicRequest{Subject: "Math", Staff: "Dr. K", Topic: "Limits"})
	require.NoError(t, err)
	require.False(t, existed)
	require.Equal(t, []string{"Limits"}, p.CompletedTopics)

	p, existed, err = svc.AddTopic(ctx, portion.AddTopicRequest{Subject: "Math", Staff: "Dr. K", Topic: "Limits"})
	require.NoError(t, err)
	require.True(t, existed)
	require.Equal(t, []string{"Limits"}, p.CompletedTopics)

	p, existed, err = svc.AddTopic(ctx, portion.AddTopicRequest{Subject: "Math", Staff: "Dr. K", Topic: "Derivatives"})
	require.NoError(t, err)
	require.False(t, existed)
	require.Equal(t, []string{"Limits", "Derivatives"}, p.CompletedTopics)

	portions, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, portions, 1)
}
