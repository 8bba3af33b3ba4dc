// ABOUTME: In-memory cache for rendered run reports keyed by run ID.
// ABOUTME: Supports TTL-based expiry, concurrent access, and manual cache clearing.
package render

import (
	"sync"
	"time"
)

// ReportFunc is the signature for a report builder that the cache wraps.
type ReportFunc func(runID string) (string, error)

// reportEntry holds a single cached report with its creation timestamp.
type reportEntry struct {
	report    string
	createdAt time.Time
}

// ReportCache wraps a report builder with an in-memory cache keyed by run
// ID. Stored runs are write-once, so a cached report never goes stale;
// the TTL only bounds how long an entry occupies memory.
type ReportCache struct {
	buildFn ReportFunc
	ttl     time.Duration
	entries map[string]*reportEntry
	mu      sync.RWMutex
}

// NewReportCache creates a ReportCache wrapping the given builder function.
// Cached entries expire after the specified TTL duration.
func NewReportCache(buildFn ReportFunc, ttl time.Duration) *ReportCache {
	return &ReportCache{
		buildFn: buildFn,
		ttl:     ttl,
		entries: make(map[string]*reportEntry),
	}
}

// Report returns the rendered report for runID, returning cached results
// when available and not expired. Errors are never cached.
func (c *ReportCache) Report(runID string) (string, error) {
	// Check cache under read lock
	c.mu.RLock()
	if entry, ok := c.entries[runID]; ok {
		if time.Since(entry.createdAt) < c.ttl {
			report := entry.report
			c.mu.RUnlock()
			return report, nil
		}
	}
	c.mu.RUnlock()

	// Cache miss or expired: build
	report, err := c.buildFn(runID)
	if err != nil {
		return "", err
	}

	// Store result in cache
	c.mu.Lock()
	c.entries[runID] = &reportEntry{
		report:    report,
		createdAt: time.Now(),
	}
	c.mu.Unlock()

	return report, nil
}

// Len returns the number of entries currently in the cache (including expired ones).
func (c *ReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries from the cache.
func (c *ReportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*reportEntry)
}
