// Package store persists resigned-employee records. Implementations
// satisfy the Store interface declared in the resignation package.
package store

import (
	"context"
	"sort"
	"sync"

	"peopleops/internal/resignation"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// InMemory keys records by employee; Execute runs its validate/mutate
// callbacks under the store lock, mirroring what the postgres store does
// with SELECT ... FOR UPDATE.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.EmployeeID]resignation.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.EmployeeID]resignation.Record)}
}

func (s *InMemory) Create(_ context.Context, record *resignation.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.EmployeeID]; exists {
		return sentinel.ErrConflict
	}
	s.records[record.EmployeeID] = cloneRecord(*record)
	return nil
}

func (s *InMemory) FindByEmployee(_ context.Context, employeeID id.EmployeeID) (*resignation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[employeeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneRecord(r)
	return &out, nil
}

func (s *InMemory) List(_ context.Context, tenantID string) ([]resignation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []resignation.Record
	for _, r := range s.records {
		if r.TenantID == tenantID {
			out = append(out, cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EmployeeID.String() < out[j].EmployeeID.String()
	})
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, employeeID id.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[employeeID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, employeeID)
	return nil
}

func (s *InMemory) Execute(_ context.Context, employeeID id.EmployeeID, validate func(*resignation.Record) error, mutate func(*resignation.Record) error) (*resignation.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[employeeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := cloneRecord(r)
	if err := validate(&working); err != nil {
		// Lock evaluation may have flipped IsLocked; persist that even
		// when the mutation is rejected.
		s.records[employeeID] = cloneRecord(working)
		return nil, err
	}
	if err := mutate(&working); err != nil {
		return nil, err
	}
	s.records[employeeID] = cloneRecord(working)
	out := cloneRecord(working)
	return &out, nil
}

func cloneRecord(r resignation.Record) resignation.Record {
	out := r
	out.Penalties = make([]resignation.Penalty, len(r.Penalties))
	copy(out.Penalties, r.Penalties)
	return out
}
