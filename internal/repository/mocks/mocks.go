package mocks

import (
	"context"
	"time"

	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/csbs/studyportal/internal/domain/material"
	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/stretchr/testify/mock"
)

// WorkRepository is a mock for work.Repository.
type WorkRepository struct {
	mock.Mock
}

func (m *WorkRepository) Create(ctx context.Context, w *work.Work) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *WorkRepository) Get(ctx context.Context, id string) (*work.Work, error) {
	args := m.Called(ctx, id)
	if w, ok := args.Get(0).(*work.Work); ok {
		return w, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkRepository) List(ctx context.Context) ([]work.Work, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]work.Work); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkRepository) Update(ctx context.Context, w *work.Work, expectedVersion int64) error {
	args := m.Called(ctx, w, expectedVersion)
	return args.Error(0)
}

func (m *WorkRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// PortionRepository is a mock for portion.Repository.
type PortionRepository struct {
	mock.Mock
}

func (m *PortionRepository) List(ctx context.Context) ([]portion.Portion, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]portion.Portion); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PortionRepository) Find(ctx context.Context, subject, staff string) (*portion.Portion, error) {
	args := m.Called(ctx, subject, staff)
	if p, ok := args.Get(0).(*portion.Portion); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PortionRepository) Create(ctx context.Context, p *portion.Portion) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PortionRepository) AppendTopic(ctx context.Context, id, topic string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, topic, at)
	return args.Bool(0), args.Error(1)
}

// MaterialRepository is a mock for material.Repository.
type MaterialRepository struct {
	mock.Mock
}

func (m *MaterialRepository) Create(ctx context.Context, mat *material.Material) error {
	args := m.Called(ctx, mat)
	return args.Error(0)
}

func (m *MaterialRepository) List(ctx context.Context) ([]material.Material, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]material.Material); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
