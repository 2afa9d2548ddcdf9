package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"peopleops/internal/org"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// InMemory keeps org reference data in process, used by tests and the
// dev server.
type InMemory struct {
	mu          sync.RWMutex
	departments map[id.DepartmentID]org.Department
	positions   map[id.PositionID]org.Position
	schools     map[id.SchoolID]org.School
}

func NewInMemory() *InMemory {
	return &InMemory{
		departments: make(map[id.DepartmentID]org.Department),
		positions:   make(map[id.PositionID]org.Position),
		schools:     make(map[id.SchoolID]org.School),
	}
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *InMemory) CreateDepartment(_ context.Context, d *org.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.departments {
		if existing.TenantID == d.TenantID && sameName(existing.Name, d.Name) {
			return sentinel.ErrConflict
		}
	}
	s.departments[d.ID] = *d
	return nil
}

func (s *InMemory) GetDepartment(_ context.Context, departmentID id.DepartmentID) (*org.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[departmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &d, nil
}

func (s *InMemory) UpdateDepartment(_ context.Context, d *org.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.departments {
		if existing.ID != d.ID && existing.TenantID == d.TenantID && sameName(existing.Name, d.Name) {
			return sentinel.ErrConflict
		}
	}
	s.departments[d.ID] = *d
	return nil
}

func (s *InMemory) DeleteDepartment(_ context.Context, departmentID id.DepartmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[departmentID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.departments, departmentID)
	return nil
}

func (s *InMemory) ListDepartments(_ context.Context, tenantID string) ([]org.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []org.Department
	for _, d := range s.departments {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) CreatePosition(_ context.Context, p *org.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.positions {
		if existing.TenantID == p.TenantID && sameName(existing.Title, p.Title) {
			return sentinel.ErrConflict
		}
	}
	s.positions[p.ID] = *p
	return nil
}

func (s *InMemory) GetPosition(_ context.Context, positionID id.PositionID) (*org.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[positionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemory) UpdatePosition(_ context.Context, p *org.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.positions[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.positions {
		if existing.ID != p.ID && existing.TenantID == p.TenantID && sameName(existing.Title, p.Title) {
			return sentinel.ErrConflict
		}
	}
	s.positions[p.ID] = *p
	return nil
}

func (s *InMemory) DeletePosition(_ context.Context, positionID id.PositionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.positions[positionID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.positions, positionID)
	return nil
}

func (s *InMemory) ListPositions(_ context.Context, tenantID string) ([]org.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []org.Position
	for _, p := range s.positions {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *InMemory) CreateSchool(_ context.Context, sc *org.School) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.schools {
		if existing.TenantID == sc.TenantID && sameName(existing.Name, sc.Name) {
			return sentinel.ErrConflict
		}
	}
	s.schools[sc.ID] = *sc
	return nil
}

func (s *InMemory) GetSchool(_ context.Context, schoolID id.SchoolID) (*org.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schools[schoolID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &sc, nil
}

func (s *InMemory) UpdateSchool(_ context.Context, sc *org.School) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schools[sc.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.schools {
		if existing.ID != sc.ID && existing.TenantID == sc.TenantID && sameName(existing.Name, sc.Name) {
			return sentinel.ErrConflict
		}
	}
	s.schools[sc.ID] = *sc
	return nil
}

func (s *InMemory) DeleteSchool(_ context.Context, schoolID id.SchoolID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schools[schoolID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.schools, schoolID)
	return nil
}

func (s *InMemory) ListSchools(_ context.Context, tenantID string) ([]org.School, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []org.School
	for _, sc := range s.schools {
		if sc.TenantID == tenantID {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
