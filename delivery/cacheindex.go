package delivery

import (
	"context"
	"sync"
	"time"
)

// CacheIndex tracks which content identifiers are cached at which nodes.
// Implementations must be safe for concurrent use: multiple retrievals can
// race on the same (contentID, nodeID) pair.
type CacheIndex interface {
	// Lookup returns the non-expired entry for the pair, if any.
	Lookup(ctx context.Context, contentID string, nodeID string) (*CacheEntry, bool, error)

	// Put creates or overwrites the entry for the pair.
	Put(ctx context.Context, entry CacheEntry) error

	// RecordAccess bumps the access counters of an existing entry and
	// recomputes its popularity.
	RecordAccess(ctx context.Context, contentID string, nodeID string) (*CacheEntry, error)

	// Invalidate removes every entry for the content identifier across all
	// nodes, returning how many were removed.
	Invalidate(ctx context.Context, contentID string) (int, error)

	// EntriesFor lists the non-expired entries for a content identifier.
	EntriesFor(ctx context.Context, contentID string) ([]CacheEntry, error)
}

// MemoryCacheIndex is the default process-local index. State is rebuildable,
// so there is nothing to persist; expired entries are dropped lazily.
type MemoryCacheIndex struct {
	mu      sync.RWMutex
	entries map[string]map[string]CacheEntry
	now     func() time.Time
}

func NewMemoryCacheIndex() *MemoryCacheIndex {
	return &MemoryCacheIndex{
		entries: make(map[string]map[string]CacheEntry),
		now:     time.Now,
	}
}

func (m *MemoryCacheIndex) Lookup(_ context.Context, contentID string, nodeID string) (*CacheEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byNode, ok := m.entries[contentID]
	if !ok {
		return nil, false, nil
	}

	entry, ok := byNode[nodeID]
	if !ok {
		return nil, false, nil
	}

	if entry.expired(m.now()) {
		delete(byNode, nodeID)
		return nil, false, nil
	}

	return &entry, true, nil
}

func (m *MemoryCacheIndex) Put(_ context.Context, entry CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byNode, ok := m.entries[entry.ContentID]
	if !ok {
		byNode = make(map[string]CacheEntry)
		m.entries[entry.ContentID] = byNode
	}

	byNode[entry.NodeID] = entry

	return nil
}

func (m *MemoryCacheIndex) RecordAccess(_ context.Context, contentID string, nodeID string) (*CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byNode, ok := m.entries[contentID]
	if !ok {
		return nil, ErrContentNotFound
	}

	entry, ok := byNode[nodeID]
	if !ok {
		return nil, ErrContentNotFound
	}

	now := m.now()
	entry.AccessCount++
	entry.LastAccessedAt = now
	entry.Popularity = entry.popularity(now)
	byNode[nodeID] = entry

	return &entry, nil
}

func (m *MemoryCacheIndex) Invalidate(_ context.Context, contentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := len(m.entries[contentID])
	delete(m.entries, contentID)

	return removed, nil
}

func (m *MemoryCacheIndex) EntriesFor(_ context.Context, contentID string) ([]CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	entries := make([]CacheEntry, 0, len(m.entries[contentID]))

	for _, entry := range m.entries[contentID] {
		if !entry.expired(now) {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
