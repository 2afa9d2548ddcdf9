package store

import (
	"context"
	"sort"
	"sync"

	"peopleops/internal/backup"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// InMemory keeps backup runs in process, used by tests and the dev server.
type InMemory struct {
	mu   sync.RWMutex
	runs map[id.BackupID]backup.Run
}

func NewInMemory() *InMemory {
	return &InMemory{runs: make(map[id.BackupID]backup.Run)}
}

func (s *InMemory) Create(_ context.Context, r *backup.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[r.ID]; ok {
		return sentinel.ErrConflict
	}
	s.runs[r.ID] = *r
	return nil
}

func (s *InMemory) Get(_ context.Context, backupID id.BackupID) (*backup.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[backupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}

func (s *InMemory) Update(_ context.Context, r *backup.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[r.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.runs[r.ID] = *r
	return nil
}

// List returns a tenant's backup runs, most recently requested first.
func (s *InMemory) List(_ context.Context, tenantID string) ([]backup.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []backup.Run
	for _, r := range s.runs {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}
