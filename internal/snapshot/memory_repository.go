package snapshot

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It holds only the latest snapshot and is the default store when no
// database is configured.
type InMemoryRepository struct {
	mu     sync.RWMutex
	latest *Snapshot
}

// NewInMemoryRepository creates a new in-memory snapshot repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// SaveLatest stores a snapshot as the current one.
func (r *InMemoryRepository) SaveLatest(_ context.Context, snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *snap
	r.latest = &cpy

	return nil
}

// Latest retrieves the most recent snapshot.
func (r *InMemoryRepository) Latest(_ context.Context) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.latest == nil {
		return nil, ErrNoSnapshot
	}

	// Return a copy
	cpy := *r.latest
	return &cpy, nil
}
