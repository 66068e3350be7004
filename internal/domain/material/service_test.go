package material_test

import (
	"context"
	"testing"

	"github.com/csbs/studyportal/internal/domain/material"
	"github.com/csbs/studyportal/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMaterialService_CreateDefaults(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MaterialRepository{}
	repo.On("Create", ctx, mock.Anything).Return(nil)

	svc := material.NewService(repo, nil, nil)
	m, err := svc.Create(ctx, material.CreateRequest{Link: "https://files.example.com/notes/Unit1.PDF"})
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)
	require.Equal(t, "Unit1.PDF", m.DisplayName)
	require.Equal(t, material.DefaultSubject, m.Subject)
	require.Equal(t, "pdf", m.Format)
	require.Equal(t, material.DefaultUploadedBy, m.UploadedBy)
	require.False(t, m.UploadDate.IsZero())
}

func TestMaterialService_CreateKeepsSuppliedFields(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MaterialRepository{}
	activities := &mocks.ActivityRepository{}
	repo.On("Create", ctx, mock.Anything).Return(nil)
	activities.On("Log", ctx, mock.Anything).Return(nil)

	svc := material.NewService(repo, activities, nil)
	m, err := svc.Create(ctx, material.CreateRequest{
		Link:        "https://example.com/slides",
		DisplayName: "Week 2 slides",
		Subject:     "Physics",
		Format:      "pptx",
		UploadedBy:  "Dr. K",
	})
	require.NoError(t, err)
	require.Equal(t, "Week 2 slides", m.DisplayName)
	require.Equal(t, "Physics", m.Subject)
	require.Equal(t, "pptx", m.Format)
	require.Equal(t, "Dr. K", m.UploadedBy)
	activities.AssertNumberOfCalls(t, "Log", 1)
}

func TestMaterialService_CreateRejectsBadLink(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MaterialRepository{}
	svc := material.NewService(repo, nil, nil)

	for _, link := range []string{"", "   ", "not a url", "/relative/path.pdf"} {
		_, err := svc.Create(ctx, material.CreateRequest{Link: link})
		require.ErrorIs(t, err, material.ErrInvalidInput, link)
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMaterialService_ListNeverNil(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MaterialRepository{}
	repo.On("List", ctx).Return(nil, nil)

	svc := material.NewService(repo, nil, nil)
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
}
