package delivery

import (
	"context"
	"sync"
)

// MemoryOrigin is an in-process origin store used by tests and by the
// default bootstrap when no external store is configured.
type MemoryOrigin struct {
	mu        sync.RWMutex
	objects   map[string][]byte
	encrypted map[string]bool
}

func NewMemoryOrigin() *MemoryOrigin {
	return &MemoryOrigin{
		objects:   make(map[string][]byte),
		encrypted: make(map[string]bool),
	}
}

// Store registers content bytes under a content identifier.
func (m *MemoryOrigin) Store(contentID string, data []byte, encrypted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[contentID] = data
	m.encrypted[contentID] = encrypted
}

func (m *MemoryOrigin) Retrieve(_ context.Context, contentID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[contentID]
	if !ok {
		return nil, ErrContentNotFound
	}

	return data, nil
}

func (m *MemoryOrigin) IsEncrypted(_ context.Context, contentID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.encrypted[contentID], nil
}
