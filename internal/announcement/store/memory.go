package store

import (
	"context"
	"sort"
	"sync"

	"peopleops/internal/announcement"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// InMemory keeps announcements in process, used by tests and the dev
// server.
type InMemory struct {
	mu            sync.RWMutex
	announcements map[id.AnnouncementID]announcement.Announcement
}

func NewInMemory() *InMemory {
	return &InMemory{announcements: make(map[id.AnnouncementID]announcement.Announcement)}
}

func (s *InMemory) Create(_ context.Context, a *announcement.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announcements[a.ID]; ok {
		return sentinel.ErrConflict
	}
	s.announcements[a.ID] = *a
	return nil
}

func (s *InMemory) Get(_ context.Context, announcementID id.AnnouncementID) (*announcement.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.announcements[announcementID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &a, nil
}

func (s *InMemory) Update(_ context.Context, a *announcement.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announcements[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.announcements[a.ID] = *a
	return nil
}

func (s *InMemory) Delete(_ context.Context, announcementID id.AnnouncementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announcements[announcementID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.announcements, announcementID)
	return nil
}

// List returns a tenant's announcements, newest publish date first.
func (s *InMemory) List(_ context.Context, tenantID string) ([]announcement.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []announcement.Announcement
	for _, a := range s.announcements {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishAt.After(out[j].PublishAt) })
	return out, nil
}
