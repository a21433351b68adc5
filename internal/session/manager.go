package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/insight-studio/backend/internal/insight"
	"github.com/insight-studio/backend/internal/models"
	"github.com/insight-studio/backend/internal/slides"
	"github.com/insight-studio/backend/internal/table"
)

// DefaultMaxSessions limits concurrent sessions to prevent memory exhaustion.
const DefaultMaxSessions = 100

// SessionMaxAge is how long an idle session is kept before cleanup.
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used.
const SessionKeepAliveWindow = 5 * time.Minute

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// ErrStale is returned when a result belongs to a dataset that has since
// been replaced.
var ErrStale = errors.New("dataset was replaced")

// Dataset is the loaded table and the upload it came from.
type Dataset struct {
	FileID string
	Name   string
	Table  *table.Table
}

// Context is the per-user dashboard state. Values returned by the manager
// are snapshots; mutate through the manager.
type Context struct {
	ID             string
	Dataset        *Dataset
	Generation     uint64
	Insights       *insight.InsightSet
	InsightsErr    error
	ActiveView     models.View
	Visualizations []slides.Visualization
	LastAccessed   time.Time
}

func (c *Context) snapshot() *Context {
	cp := *c
	cp.Visualizations = slices.Clone(c.Visualizations)
	return &cp
}

// Summary returns the frontend view of the context.
func (c *Context) Summary() models.SessionSummary {
	s := models.SessionSummary{
		ID:             c.ID,
		ActiveView:     c.ActiveView,
		HasInsights:    c.Insights != nil,
		Visualizations: len(c.Visualizations),
		LastAccessed:   c.LastAccessed,
	}
	if c.InsightsErr != nil {
		s.InsightsError = c.InsightsErr.Error()
	}
	if c.Dataset != nil && c.Dataset.Table != nil {
		t := c.Dataset.Table
		s.Dataset = &models.DatasetSummary{
			FileID:             c.Dataset.FileID,
			Name:               c.Dataset.Name,
			Rows:               t.NumRows(),
			Columns:            t.Columns(),
			NumericColumns:     t.NumericColumns(),
			CategoricalColumns: t.CategoricalColumns(),
			DateColumns:        t.DateColumns(),
		}
	}
	return s
}

// Manager holds the active dashboard sessions.
type Manager struct {
	sessions    map[string]*Context
	mu          sync.RWMutex
	maxSessions int
	logger      *slog.Logger
}

// NewManager creates a session manager. maxSessions <= 0 uses DefaultMaxSessions.
func NewManager(maxSessions int, logger *slog.Logger) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:    make(map[string]*Context),
		maxSessions: maxSessions,
		logger:      logger,
	}
}

// Create starts a new empty session on the default view.
func (m *Manager) Create() *Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(uuid.New().String()).snapshot()
}

func (m *Manager) createLocked(id string) *Context {
	m.evictIfNeededLocked()
	c := &Context{
		ID:           id,
		ActiveView:   models.ViewVisualization,
		LastAccessed: time.Now(),
	}
	m.sessions[id] = c
	return c
}

// GetOrCreate returns the session for id, creating a fresh one when id is
// empty or unknown. The bool reports whether a session was created.
func (m *Manager) GetOrCreate(id string) (*Context, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.sessions[id]; ok && id != "" {
		c.LastAccessed = time.Now()
		return c.snapshot(), false
	}
	return m.createLocked(uuid.New().String()).snapshot(), true
}

// Get returns a snapshot of a session.
func (m *Manager) Get(id string) (*Context, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return c.snapshot(), true
}

// TouchSession updates the LastAccessed timestamp for a session.
func (m *Manager) TouchSession(id string) bool {
	return m.update(id, func(c *Context) {}) == nil
}

func (m *Manager) update(id string, fn func(c *Context)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(c)
	c.LastAccessed = time.Now()
	return nil
}

// Replace installs a new dataset. It is the only way a dataset changes:
// insights, their error and the visualization list are cleared. It returns
// the new generation and the dataset it replaced, if any.
func (m *Manager) Replace(id string, ds *Dataset) (uint64, *Dataset, error) {
	var (
		gen  uint64
		prev *Dataset
	)
	err := m.update(id, func(c *Context) {
		prev = c.Dataset
		c.Dataset = ds
		c.Generation++
		c.Insights = nil
		c.InsightsErr = nil
		c.Visualizations = nil
		gen = c.Generation
	})
	if err == nil {
		m.logger.Info("dataset replaced", "session", id, "file", ds.FileID, "name", ds.Name)
	}
	return gen, prev, err
}

// SetInsights records the outcome of an insight request made against
// generation gen. Results for a replaced dataset are dropped with ErrStale.
func (m *Manager) SetInsights(id string, gen uint64, set *insight.InsightSet, insightErr error) error {
	var stale bool
	err := m.update(id, func(c *Context) {
		if c.Generation != gen {
			stale = true
			return
		}
		c.Insights = set
		c.InsightsErr = insightErr
	})
	if err != nil {
		return err
	}
	if stale {
		return ErrStale
	}
	return nil
}

// SetActiveView selects the dashboard tab.
func (m *Manager) SetActiveView(id string, view models.View) error {
	if !view.Valid() {
		return fmt.Errorf("unknown view %q", view)
	}
	return m.update(id, func(c *Context) { c.ActiveView = view })
}

// SetVisualizations replaces the presentation's visualization list.
func (m *Manager) SetVisualizations(id string, vis []slides.Visualization) error {
	vis = slices.Clone(vis)
	return m.update(id, func(c *Context) { c.Visualizations = vis })
}

// Reset clears the session back to its initial state and returns the
// dataset it held, if any.
func (m *Manager) Reset(id string) (*Dataset, error) {
	var prev *Dataset
	err := m.update(id, func(c *Context) {
		prev = c.Dataset
		c.Dataset = nil
		c.Generation++
		c.Insights = nil
		c.InsightsErr = nil
		c.Visualizations = nil
		c.ActiveView = models.ViewVisualization
	})
	return prev, err
}

// Delete removes a session.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// evictIfNeededLocked removes the least recently used sessions when at capacity.
func (m *Manager) evictIfNeededLocked() {
	if len(m.sessions) < m.maxSessions {
		return
	}

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.sessions[ids[i]].LastAccessed.Before(m.sessions[ids[j]].LastAccessed)
	})

	toFree := len(m.sessions) - m.maxSessions + 1
	for _, id := range ids[:toFree] {
		delete(m.sessions, id)
		m.logger.Info("evicted session to free memory", "session", id)
	}
}

// CleanupOldSessions removes sessions idle for longer than maxAge, but keeps
// sessions accessed within SessionKeepAliveWindow. It returns how many were
// removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	removed := 0
	for id, c := range m.sessions {
		if c.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if c.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
			m.logger.Info("cleaned up aged session", "session", id,
				"idle", now.Sub(c.LastAccessed).Round(time.Second))
		}
	}
	return removed
}
