package weights

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store, used by tests and offline deploys
// that don't have a Nexus endpoint to talk to.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[uuid.UUID][]byte{}}
}

func (m *MemoryStore) Load(_ context.Context, runID uuid.UUID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[runID]
	if !ok {
		return nil, ErrWeightsNotFound
	}
	return data, nil
}

func (m *MemoryStore) Store(_ context.Context, runID uuid.UUID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[runID] = data
	return nil
}
