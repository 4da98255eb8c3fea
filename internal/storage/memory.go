package storage

import (
	"context"
	"sync"

	"github.com/reportkit/dashboard/internal/schema"
)

// MemoryStore keeps snapshots in a process-lifetime map: no eviction, no
// durability. The RWMutex serializes writes per the contract so a read never
// interleaves with a partial write.
type MemoryStore struct {
	mu         sync.RWMutex
	dashboards map[string]schema.DashboardState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		dashboards: make(map[string]schema.DashboardState),
	}
}

func (s *MemoryStore) Save(ctx context.Context, id string, state schema.DashboardState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboards[id] = state
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (schema.DashboardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.dashboards[id]
	if !ok {
		return schema.DashboardState{}, ErrNotFound
	}
	return state, nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]schema.DashboardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]schema.DashboardState, 0, len(s.dashboards))
	for _, state := range s.dashboards {
		all = append(all, state)
	}
	return all, nil
}
