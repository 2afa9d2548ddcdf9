// Package store persists per-tenant security settings. Implementations
// satisfy the Store interface declared in the security package.
package store

import (
	"context"
	"sync"

	"peopleops/internal/security"
	"peopleops/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	settings map[string]security.Settings
}

func NewInMemory() *InMemory {
	return &InMemory{settings: make(map[string]security.Settings)}
}

func (s *InMemory) Create(_ context.Context, settings *security.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.settings[settings.TenantID]; exists {
		return sentinel.ErrConflict
	}
	s.settings[settings.TenantID] = cloneSettings(*settings)
	return nil
}

func (s *InMemory) Get(_ context.Context, tenantID string) (*security.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings, ok := s.settings[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneSettings(settings)
	return &out, nil
}

func (s *InMemory) Save(_ context.Context, settings *security.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.settings[settings.TenantID]; !ok {
		return sentinel.ErrNotFound
	}
	s.settings[settings.TenantID] = cloneSettings(*settings)
	return nil
}

func cloneSettings(s security.Settings) security.Settings {
	out := s
	out.IPWhitelist.Entries = make([]string, len(s.IPWhitelist.Entries))
	copy(out.IPWhitelist.Entries, s.IPWhitelist.Entries)
	return out
}
