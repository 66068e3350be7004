package activity_test

import (
	"context"
	"testing"

	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/csbs/studyportal/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		ActivityType: activity.TypeWorkCreated,
		SubjectID:    "w1",
		Summary:      "created",
	}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, activity.ListActivityOptions{SubjectID: "w1", Limit: activity.DefaultLimit}).
		Return([]activity.ActivityEntry{*entry}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.LogActivity(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.GetRecentActivity(ctx, activity.ListActivityOptions{SubjectID: "w1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestActivityService_LogRejectsUntyped(t *testing.T) {
	repo := &mocks.ActivityRepository{}
	svc := activity.NewService(repo, nil)

	require.ErrorIs(t, svc.LogActivity(context.Background(), nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(context.Background(), &activity.ActivityEntry{}), activity.ErrInvalidInput)
	repo.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestActivityService_EmptyListIsNotNil(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	repo.On("List", ctx, mock.Anything).Return(nil, nil)

	svc := activity.NewService(repo, nil)
	entries, err := svc.GetRecentActivity(ctx, activity.ListActivityOptions{Limit: 5})
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}
