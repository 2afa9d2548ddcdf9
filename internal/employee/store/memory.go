// Package store persists employee records. Implementations satisfy the
// Store interface declared in the employee package.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"peopleops/internal/employee"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

type InMemory struct {
	mu        sync.RWMutex
	employees map[id.EmployeeID]employee.Employee
}

func NewInMemory() *InMemory {
	return &InMemory{employees: make(map[id.EmployeeID]employee.Employee)}
}

func (s *InMemory) Create(_ context.Context, e *employee.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.employees[e.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.employees {
		if existing.TenantID == e.TenantID && strings.EqualFold(existing.Email, e.Email) {
			return sentinel.ErrConflict
		}
	}
	s.employees[e.ID] = *e
	return nil
}

func (s *InMemory) Get(_ context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[employeeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}

func (s *InMemory) FindByEmail(_ context.Context, tenantID, email string) (*employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if e.TenantID == tenantID && strings.EqualFold(e.Email, email) {
			return &e, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, e *employee.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.employees[e.ID] = *e
	return nil
}

func (s *InMemory) Delete(_ context.Context, employeeID id.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[employeeID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.employees, employeeID)
	return nil
}

func (s *InMemory) List(_ context.Context, tenantID string) ([]employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []employee.Employee
	for _, e := range s.employees {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *InMemory) ListActive(_ context.Context, tenantID string) ([]employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []employee.Employee
	for _, e := range s.employees {
		if e.TenantID == tenantID && e.Status == employee.StatusActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
