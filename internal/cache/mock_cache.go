package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCache is a mock implementation of the Cache interface for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetJobView(ctx context.Context, jobID string) (*JobView, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*JobView), args.Error(1)
}

func (m *MockCache) SetJobView(ctx context.Context, jobID string, view *JobView, ttl time.Duration) error {
	args := m.Called(ctx, jobID, view, ttl)
	return args.Error(0)
}

func (m *MockCache) InvalidateJob(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
