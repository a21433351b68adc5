package profile

import (
	"context"
	"log/slog"
	"sync"
)

// Cache keeps the last report built for each uploaded file so switching back
// to the profile tab does not re-run DuckDB.
type Cache struct {
	mu      sync.RWMutex
	reports map[string]*Report
	logger  *slog.Logger
}

// NewCache returns an empty cache.
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{reports: make(map[string]*Report), logger: logger}
}

// Get returns the cached report for fileID.
func (c *Cache) Get(fileID string) (*Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.reports[fileID]
	return r, ok
}

// GetOrProfile returns the cached report or profiles csvPath and caches it.
func (c *Cache) GetOrProfile(ctx context.Context, p *Profiler, fileID, csvPath string) (*Report, error) {
	if r, ok := c.Get(fileID); ok {
		return r, nil
	}
	r, err := p.Profile(ctx, csvPath)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.reports[fileID] = r
	c.mu.Unlock()
	return r, nil
}

// Delete drops the report for a file (call when the file is deleted).
func (c *Cache) Delete(fileID string) {
	c.mu.Lock()
	delete(c.reports, fileID)
	c.mu.Unlock()
}

// Len returns the number of cached reports.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.reports)
}

// CleanupOrphaned removes reports whose file no longer exists. liveFileIDs
// should be the IDs currently held by file storage.
func (c *Cache) CleanupOrphaned(liveFileIDs []string) int {
	valid := make(map[string]bool, len(liveFileIDs))
	for _, id := range liveFileIDs {
		valid[id] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for fileID := range c.reports {
		if !valid[fileID] {
			delete(c.reports, fileID)
			removed++
			c.logger.Debug("dropped orphaned profile report", "file", fileID)
		}
	}
	return removed
}
