package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing.
// Used as a fallback when Redis is unavailable - all operations succeed
// but no actual caching occurs (always cache miss).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetJobView always returns nil (cache miss)
func (c *NoOpCache) GetJobView(ctx context.Context, jobID string) (*JobView, error) {
	return nil, nil
}

// SetJobView does nothing and always succeeds
func (c *NoOpCache) SetJobView(ctx context.Context, jobID string, view *JobView, ttl time.Duration) error {
	return nil
}

// InvalidateJob does nothing and always succeeds
func (c *NoOpCache) InvalidateJob(ctx context.Context, jobID string) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
