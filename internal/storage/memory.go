package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps state in process memory. Used when no backend is configured and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]FeedState
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]FeedState)}
}

// GetState implements StateStore.
func (m *MemoryStore) GetState(ctx context.Context, feed string) (FeedState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[feed]
	if !ok {
		return FeedState{}, ErrNotFound
	}
	return state, nil
}

// PutState implements StateStore.
func (m *MemoryStore) PutState(ctx context.Context, feed string, state FeedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[feed] = state
	return nil
}

var _ StateStore = (*MemoryStore)(nil)
