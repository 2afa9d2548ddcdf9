package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"peopleops/internal/audit"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newEntry(mutate func(*audit.Entry)) *audit.Entry {
	e := &audit.Entry{
		ID:              id.EntryID(uuid.New()),
		Action:          "employee_updated",
		Resource:        "employee",
		ResourceID:      "emp-1",
		UserID:          "admin-1",
		TenantID:        "tenant-1",
		Category:        audit.CategoryDataChange,
		Severity:        audit.SeverityInfo,
		CorrelationID:   "corr-1",
		Hash:            "abc",
		RetentionPolicy: audit.RetentionStandard,
		CreatedAt:       time.Now().UTC(),
	}
	if mutate != nil {
		mutate(e)
	}
	return e
}

func (s *MemoryStoreSuite) TestAppendAndFind() {
	s.Run("round-trips an entry", func() {
		e := s.newEntry(nil)
		s.Require().NoError(s.store.Append(s.ctx, e))
		found, err := s.store.FindByID(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(e.Action, found.Action)
	})

	s.Run("duplicate ID conflicts", func() {
		e := s.newEntry(nil)
		s.Require().NoError(s.store.Append(s.ctx, e))
		s.Require().ErrorIs(s.store.Append(s.ctx, e), sentinel.ErrConflict)
	})

	s.Run("unknown ID is not found", func() {
		_, err := s.store.FindByID(s.ctx, id.EntryID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestListFiltering() {
	base := time.Now().UTC()
	for i, sev := range []audit.Severity{audit.SeverityInfo, audit.SeverityWarning, audit.SeverityCritical} {
		e := s.newEntry(func(e *audit.Entry) {
			e.ID = id.EntryID(uuid.New())
			e.Severity = sev
			e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		})
		s.Require().NoError(s.store.Append(s.ctx, e))
	}

	s.Run("min severity", func() {
		entries, total, err := s.store.List(s.ctx, audit.Filter{MinSeverity: audit.SeverityWarning})
		s.Require().NoError(err)
		s.Equal(2, total)
		s.Len(entries, 2)
	})

	s.Run("newest first", func() {
		entries, _, err := s.store.List(s.ctx, audit.Filter{})
		s.Require().NoError(err)
		s.Require().Len(entries, 3)
		s.Equal(audit.SeverityCritical, entries[0].Severity)
	})

	s.Run("pagination windows", func() {
		entries, total, err := s.store.List(s.ctx, audit.Filter{Page: 2, PageSize: 2})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Len(entries, 1)

		entries, total, err = s.store.List(s.ctx, audit.Filter{Page: 5, PageSize: 2})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Empty(entries)
	})
}

func (s *MemoryStoreSuite) TestRetention() {
	now := time.Now().UTC()
	old := func(days int) time.Time { return now.AddDate(0, 0, -days) }

	standardOld := s.newEntry(func(e *audit.Entry) { e.CreatedAt = old(40) })
	extendedOld := s.newEntry(func(e *audit.Entry) {
		e.ID = id.EntryID(uuid.New())
		e.RetentionPolicy = audit.RetentionExtended
		e.CreatedAt = old(40)
	})
	extendedVeryOld := s.newEntry(func(e *audit.Entry) {
		e.ID = id.EntryID(uuid.New())
		e.RetentionPolicy = audit.RetentionExtended
		e.CreatedAt = old(30*audit.ExtendedRetentionMultiplier + 1)
	})
	permanent := s.newEntry(func(e *audit.Entry) {
		e.ID = id.EntryID(uuid.New())
		e.RetentionPolicy = audit.RetentionPermanent
		e.CreatedAt = old(4000)
	})
	for _, e := range []*audit.Entry{standardOld, extendedOld, extendedVeryOld, permanent} {
		s.Require().NoError(s.store.Append(s.ctx, e))
	}

	expired, err := s.store.FindExpiredByRetention(s.ctx, now, 30)
	s.Require().NoError(err)
	s.Len(expired, 2, "standard past 30d and extended past the multiplied horizon")

	deleted, err := s.store.DeleteOlderThan(s.ctx, now, 30)
	s.Require().NoError(err)
	s.Equal(2, deleted)

	_, err = s.store.FindByID(s.ctx, permanent.ID)
	s.Require().NoError(err, "permanent entries survive any sweep")
	_, err = s.store.FindByID(s.ctx, extendedOld.ID)
	s.Require().NoError(err, "extended entry inside its horizon survives")
}

func (s *MemoryStoreSuite) TestDefensiveCopies() {
	e := s.newEntry(func(e *audit.Entry) {
		e.Changes = audit.Changes{After: map[string]any{"x": 1}}
	})
	s.Require().NoError(s.store.Append(s.ctx, e))

	// Mutating the appended value after the fact must not reach the store.
	e.Changes.After["x"] = 99
	found, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(1, found.Changes.After["x"])

	// Mutating a read result must not reach the store either.
	found.Changes.After["x"] = 42
	again, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(1, again.Changes.After["x"])
}
