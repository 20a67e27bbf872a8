package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateJob(ctx context.Context, filename, targetLocale, mediaPath string) (DubJob, error) {
	args := m.Called(ctx, filename, targetLocale, mediaPath)
	return args.Get(0).(DubJob), args.Error(1)
}

func (m *MockStore) GetJob(ctx context.Context, id uuid.UUID) (DubJob, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(DubJob), args.Error(1)
}

func (m *MockStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status JobStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) SetMurfJobID(ctx context.Context, id uuid.UUID, murfJobID string) error {
	args := m.Called(ctx, id, murfJobID)
	return args.Error(0)
}

func (m *MockStore) SaveResult(ctx context.Context, id uuid.UUID, result Result) error {
	args := m.Called(ctx, id, result)
	return args.Error(0)
}

func (m *MockStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}
