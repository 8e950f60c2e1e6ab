package client

import (
	"sync"

	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/pkg/models"
)

// Entry is one cached analysis snapshot plus the live progress reported by
// its stream. Progress and Message only move while the status is processing.
type Entry struct {
	Analysis models.Analysis
	Progress int
	Message  string
	Err      string
}

// Patch is a partial update applied to a cached entry. Zero-value fields
// leave the existing values in place.
type Patch struct {
	Status   string
	Progress int
	Message  string
	Report   *models.Report
	Err      string
}

// AnalysisCache is a concurrency-safe local cache of analysis snapshots,
// keyed by analysis id. Subscriptions patch it as stream events arrive so
// views can be composed without re-fetching.
type AnalysisCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Entry
}

// NewAnalysisCache creates an empty cache.
func NewAnalysisCache() *AnalysisCache {
	return &AnalysisCache{entries: make(map[uuid.UUID]Entry)}
}

// Put stores a full analysis snapshot, resetting progress state.
func (c *AnalysisCache) Put(a models.Analysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[a.ID] = Entry{Analysis: a}
}

// Get returns the cached entry for id.
func (c *AnalysisCache) Get(id uuid.UUID) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Apply patches the entry for id. Patching an id that was never Put is a
// no-op: the cache only tracks analyses this client knows about.
func (c *AnalysisCache) Apply(id uuid.UUID, p Patch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return
	}
	if p.Status != "" {
		e.Analysis.Status = p.Status
	}
	if p.Progress != 0 {
		e.Progress = p.Progress
	}
	if p.Message != "" {
		e.Message = p.Message
	}
	if p.Report != nil {
		e.Analysis.Report = p.Report
	}
	if p.Err != "" {
		e.Err = p.Err
	}
	c.entries[id] = e
}

// Delete evicts an entry.
func (c *AnalysisCache) Delete(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}
