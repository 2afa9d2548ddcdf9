// Package store persists audit ledger entries. The contract is append-only:
// no implementation exposes an update path, and reads return copies so
// callers cannot reach the stored entry. DeleteOlderThan is the single
// destruction path and always spares permanent-retention entries.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"peopleops/internal/audit"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// InMemory is the non-postgres Store used in dev and tests. Reads hand out
// deep copies so nothing outside the store can mutate a persisted entry.
type InMemory struct {
	mu      sync.RWMutex
	entries []audit.Entry
	byID    map[id.EntryID]int
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.EntryID]int)}
}

func (s *InMemory) Append(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[entry.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[entry.ID] = len(s.entries)
	s.entries = append(s.entries, cloneEntry(*entry))
	return nil
}

func (s *InMemory) FindByID(_ context.Context, entryID id.EntryID) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	e := cloneEntry(s.entries[idx])
	return &e, nil
}

func (s *InMemory) FindByCorrelation(_ context.Context, correlationID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Entry
	for i := range s.entries {
		if s.entries[i].CorrelationID == correlationID {
			out = append(out, cloneEntry(s.entries[i]))
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (s *InMemory) FindByTenantAndSeverity(_ context.Context, tenantID string, severity audit.Severity) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Entry
	for i := range s.entries {
		if s.entries[i].TenantID == tenantID && s.entries[i].Severity == severity {
			out = append(out, cloneEntry(s.entries[i]))
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (s *InMemory) List(_ context.Context, filter audit.Filter) ([]audit.Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []audit.Entry
	for i := range s.entries {
		if matches(&s.entries[i], filter) {
			matched = append(matched, cloneEntry(s.entries[i]))
		}
	}
	sortByCreatedDesc(matched)
	total := len(matched)

	page, pageSize := filter.Page, filter.PageSize
	if pageSize <= 0 {
		return matched, total, nil
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []audit.Entry{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *InMemory) FindExpiredByRetention(_ context.Context, now time.Time, days int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Entry
	for i := range s.entries {
		if expired(&s.entries[i], now, days) {
			out = append(out, cloneEntry(s.entries[i]))
		}
	}
	return out, nil
}

func (s *InMemory) DeleteOlderThan(_ context.Context, now time.Time, days int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	deleted := 0
	for i := range s.entries {
		if expired(&s.entries[i], now, days) {
			deleted++
			continue
		}
		kept = append(kept, s.entries[i])
	}
	s.entries = kept
	s.byID = make(map[id.EntryID]int, len(s.entries))
	for i := range s.entries {
		s.byID[s.entries[i].ID] = i
	}
	return deleted, nil
}

func expired(e *audit.Entry, now time.Time, days int) bool {
	switch e.RetentionPolicy {
	case audit.RetentionPermanent:
		return false
	case audit.RetentionExtended:
		days *= audit.ExtendedRetentionMultiplier
	}
	cutoff := now.AddDate(0, 0, -days)
	return e.CreatedAt.Before(cutoff)
}

func matches(e *audit.Entry, f audit.Filter) bool {
	if f.TenantID != "" && e.TenantID != f.TenantID {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if f.MinSeverity != "" && !e.Severity.AtLeast(f.MinSeverity) {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.CreatedAt.After(f.To) {
		return false
	}
	return true
}

func sortByCreatedDesc(entries []audit.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

func cloneEntry(e audit.Entry) audit.Entry {
	e.Changes = audit.Changes{
		Before: cloneMap(e.Changes.Before),
		After:  cloneMap(e.Changes.After),
		Fields: append([]string(nil), e.Changes.Fields...),
	}
	e.ComplianceFlags = append([]string(nil), e.ComplianceFlags...)
	return e
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
