package cache

import (
	"context"
	"testing"
	"time"
)

// TestNoOpCache verifies that NoOpCache implements the Cache interface correctly
func TestNoOpCache(t *testing.T) {
	cache := NewNoOpCache()
	ctx := context.Background()

	// GetJobView should always return nil (cache miss)
	view, err := cache.GetJobView(ctx, "job-123")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if view != nil {
		t.Errorf("Expected nil view (cache miss), got %v", view)
	}

	// SetJobView should succeed silently
	err = cache.SetJobView(ctx, "job-123", &JobView{
		Status:   "completed",
		VideoURL: "http://example.com/out.mp4",
		Notes:    []string{"note"},
	}, 5*time.Second)
	if err != nil {
		t.Errorf("Expected no error on SetJobView, got %v", err)
	}

	// Still a miss afterwards (nothing was actually cached)
	view, err = cache.GetJobView(ctx, "job-123")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if view != nil {
		t.Errorf("Expected nil view (no-op cache doesn't store), got %v", view)
	}

	if err := cache.InvalidateJob(ctx, "job-123"); err != nil {
		t.Errorf("Expected no error on InvalidateJob, got %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("Expected no error on Close, got %v", err)
	}
}
