package store

import (
	"context"
	"sort"
	"sync"

	"peopleops/internal/holiday"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// InMemory keeps holidays in process, used by tests and the dev server.
type InMemory struct {
	mu       sync.RWMutex
	holidays map[id.HolidayID]holiday.Holiday
}

func NewInMemory() *InMemory {
	return &InMemory{holidays: make(map[id.HolidayID]holiday.Holiday)}
}

func (s *InMemory) Create(_ context.Context, h *holiday.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holidays[h.ID]; ok {
		return sentinel.ErrConflict
	}
	s.holidays[h.ID] = *h
	return nil
}

func (s *InMemory) Get(_ context.Context, holidayID id.HolidayID) (*holiday.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holidays[holidayID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &h, nil
}

func (s *InMemory) Update(_ context.Context, h *holiday.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holidays[h.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.holidays[h.ID] = *h
	return nil
}

func (s *InMemory) Delete(_ context.Context, holidayID id.HolidayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holidays[holidayID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.holidays, holidayID)
	return nil
}

// List returns a tenant's holidays, optionally narrowed to one campus
// (tenant-wide holidays are always included).
func (s *InMemory) List(_ context.Context, tenantID string, schoolID id.SchoolID) ([]holiday.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []holiday.Holiday
	for _, h := range s.holidays {
		if h.TenantID != tenantID {
			continue
		}
		if !schoolID.IsNil() && !h.SchoolID.IsNil() && h.SchoolID != schoolID {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
