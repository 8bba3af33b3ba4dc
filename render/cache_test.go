// ABOUTME: Tests for the report cache covering cache hits, TTL-based expiry, and concurrent access.
// ABOUTME: Validates that reports build once per run ID and that errors are never cached.
package render

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeReportBuilder is a test double that counts invocations and returns fixed output.
type fakeReportBuilder struct {
	callCount atomic.Int64
	report    string
	err       error
}

func (f *fakeReportBuilder) build(runID string) (string, error) {
	f.callCount.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.report, nil
}

func TestReportCacheReturnsCachedResult(t *testing.T) {
	builder := &fakeReportBuilder{report: "# Run A"}
	cache := NewReportCache(builder.build, 5*time.Minute)

	// First call should invoke the builder
	got1, err := cache.Report("RUNA")
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if got1 != "# Run A" {
		t.Errorf("expected '# Run A', got %q", got1)
	}
	if builder.callCount.Load() != 1 {
		t.Errorf("expected 1 builder call, got %d", builder.callCount.Load())
	}

	// Second call for the same run should use the cache
	got2, err := cache.Report("RUNA")
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if got2 != "# Run A" {
		t.Errorf("expected cached result, got %q", got2)
	}
	if builder.callCount.Load() != 1 {
		t.Errorf("expected still 1 builder call (cached), got %d", builder.callCount.Load())
	}
}

func TestReportCacheDifferentRunsDifferentEntries(t *testing.T) {
	builder := &fakeReportBuilder{report: "report"}
	cache := NewReportCache(builder.build, 5*time.Minute)

	cache.Report("RUNA")
	cache.Report("RUNB")

	// Different run IDs should result in separate cache entries and separate builds
	if builder.callCount.Load() != 2 {
		t.Errorf("expected 2 builder calls for different runs, got %d", builder.callCount.Load())
	}
	if cache.Len() != 2 {
		t.Errorf("expected 2 cache entries, got %d", cache.Len())
	}
}

func TestReportCacheTTLExpiry(t *testing.T) {
	builder := &fakeReportBuilder{report: "report"}
	// Use a very short TTL for testing
	cache := NewReportCache(builder.build, 50*time.Millisecond)

	cache.Report("RUNA")
	if builder.callCount.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", builder.callCount.Load())
	}

	// Wait for TTL to expire
	time.Sleep(100 * time.Millisecond)

	// Should rebuild after expiry
	cache.Report("RUNA")
	if builder.callCount.Load() != 2 {
		t.Errorf("expected 2 calls after TTL expiry, got %d", builder.callCount.Load())
	}
}

func TestReportCacheDoesNotCacheErrors(t *testing.T) {
	builder := &fakeReportBuilder{err: fmt.Errorf("run is corrupt")}
	cache := NewReportCache(builder.build, 5*time.Minute)

	if _, err := cache.Report("RUNA"); err == nil {
		t.Fatal("expected error, got nil")
	}

	// Fix the builder
	builder.err = nil
	builder.report = "fixed report"

	// Should rebuild (not serve a cached error)
	got, err := cache.Report("RUNA")
	if err != nil {
		t.Fatalf("expected success after fix, got: %v", err)
	}
	if got != "fixed report" {
		t.Errorf("expected 'fixed report', got %q", got)
	}
}

func TestReportCacheConcurrentAccess(t *testing.T) {
	builder := &fakeReportBuilder{report: "concurrent report"}
	cache := NewReportCache(builder.build, 5*time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.Report("RUNA")
			if err != nil {
				t.Errorf("concurrent call failed: %v", err)
				return
			}
			if got != "concurrent report" {
				t.Errorf("expected 'concurrent report', got %q", got)
			}
		}()
	}
	wg.Wait()

	// Racing misses may each build, but once an entry lands the rest hit
	// the cache, so the count stays far below the goroutine count.
	if builder.callCount.Load() > 5 {
		t.Errorf("expected much fewer than 20 builder calls with caching, got %d", builder.callCount.Load())
	}
}

func TestReportCacheClear(t *testing.T) {
	builder := &fakeReportBuilder{report: "report"}
	cache := NewReportCache(builder.build, 5*time.Minute)

	cache.Report("RUNA")
	cache.Report("RUNB")
	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d entries", cache.Len())
	}

	// A cleared entry rebuilds on the next request
	cache.Report("RUNA")
	if builder.callCount.Load() != 3 {
		t.Errorf("expected 3 builder calls after clear, got %d", builder.callCount.Load())
	}
}
