package store

import (
	"context"
	"sort"
	"sync"

	"peopleops/internal/notification"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// InMemory keeps notifications in process, used by tests and the dev
// server.
type InMemory struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]notification.Notification
}

func NewInMemory() *InMemory {
	return &InMemory{notifications: make(map[id.NotificationID]notification.Notification)}
}

func (s *InMemory) Create(_ context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.ID]; ok {
		return sentinel.ErrConflict
	}
	s.notifications[n.ID] = *n
	return nil
}

func (s *InMemory) Get(_ context.Context, notificationID id.NotificationID) (*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[notificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &n, nil
}

func (s *InMemory) Update(_ context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.notifications[n.ID] = *n
	return nil
}

func (s *InMemory) Delete(_ context.Context, notificationID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[notificationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.notifications, notificationID)
	return nil
}

// ListByRecipient returns a recipient's inbox, newest first.
func (s *InMemory) ListByRecipient(_ context.Context, tenantID string, recipientID id.EmployeeID) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []notification.Notification
	for _, n := range s.notifications {
		if n.TenantID == tenantID && n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) CountUnread(_ context.Context, tenantID string, recipientID id.EmployeeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.TenantID == tenantID && n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}
