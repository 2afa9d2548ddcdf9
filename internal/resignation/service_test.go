package resignation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"peopleops/internal/audit"
	auditstore "peopleops/internal/audit/store"
	"peopleops/internal/resignation"
	"peopleops/internal/resignation/store"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	svc        *resignation.Service
	store      *store.InMemory
	auditStore *auditstore.InMemory
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	s.store = store.NewInMemory()
	s.auditStore = auditstore.NewInMemory()
	s.svc = resignation.NewService(s.store,
		resignation.WithAuditor(audit.NewLedger(s.auditStore)))
}

// at returns a context pinned to a moment relative to the suite clock.
func (s *ServiceSuite) at(offset time.Duration) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now.Add(offset))
	return requestcontext.WithTenantID(ctx, "tenant-1")
}

func (s *ServiceSuite) create() *resignation.Record {
	record, err := s.svc.Create(s.at(0), "tenant-1", resignation.CreateInput{
		EmployeeID:      id.EmployeeID(uuid.New()),
		ResignationType: resignation.TypeResignationLetter,
		ResignationDate: s.now,
		LastWorkingDay:  s.now.AddDate(0, 1, 0),
	}, "admin-1")
	s.Require().NoError(err)
	return record
}

func (s *ServiceSuite) TestCreateIsUniquePerEmployee() {
	record := s.create()

	_, err := s.svc.Create(s.at(0), "tenant-1", resignation.CreateInput{
		EmployeeID:      record.EmployeeID,
		ResignationType: resignation.TypeTermination,
		ResignationDate: s.now,
		LastWorkingDay:  s.now.AddDate(0, 1, 0),
	}, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestPenaltyLifecycleWithLock() {
	record := s.create()

	// One hour in: the penalty lands and totals update.
	updated, err := s.svc.AddPenalty(s.at(time.Hour), record.EmployeeID,
		resignation.Penalty{Description: "unreturned laptop", Amount: 100, Currency: "USD"},
		"admin-1")
	s.Require().NoError(err)
	s.Equal(100.0, updated.TotalPenalties)
	s.Equal("admin-1", updated.Penalties[0].AddedBy)

	// Twenty-five hours in: the record has aged past the window.
	_, err = s.svc.AddPenalty(s.at(25*time.Hour), record.EmployeeID,
		resignation.Penalty{Description: "late filing", Amount: 50, Currency: "USD"},
		"admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeLocked))

	// The rejection left the record unchanged except for the lock itself.
	current, err := s.svc.Get(s.at(25*time.Hour), record.EmployeeID)
	s.Require().NoError(err)
	s.Equal(100.0, current.TotalPenalties)
	s.Len(current.Penalties, 1)
	s.True(current.IsLocked)
}

func (s *ServiceSuite) TestLockPersistsAfterRejectedMutation() {
	record := s.create()

	_, err := s.svc.UpdateResignationType(s.at(30*time.Hour), record.EmployeeID,
		resignation.TypeTermination, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeLocked))

	// The store saw the lock evaluation even though the mutation failed.
	stored, err := s.store.FindByEmployee(context.Background(), record.EmployeeID)
	s.Require().NoError(err)
	s.True(stored.IsLocked)
	s.Equal(resignation.TypeResignationLetter, stored.ResignationType)
}

func (s *ServiceSuite) TestRemovePenalty() {
	record := s.create()
	_, err := s.svc.AddPenalty(s.at(time.Hour), record.EmployeeID,
		resignation.Penalty{Description: "unreturned laptop", Amount: 100, Currency: "USD"},
		"admin-1")
	s.Require().NoError(err)

	updated, err := s.svc.RemovePenalty(s.at(2*time.Hour), record.EmployeeID, 0, "admin-1")
	s.Require().NoError(err)
	s.Empty(updated.Penalties)
	s.Zero(updated.TotalPenalties)
}

func (s *ServiceSuite) TestUpdateType() {
	record := s.create()

	updated, err := s.svc.UpdateResignationType(s.at(time.Hour), record.EmployeeID,
		resignation.TypeTermination, "admin-1")
	s.Require().NoError(err)
	s.Equal(resignation.TypeTermination, updated.ResignationType)

	_, err = s.svc.UpdateResignationType(s.at(2*time.Hour), record.EmployeeID,
		"golden-handshake", "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestStatusChangeWorksOnLockedRecord() {
	record := s.create()

	updated, err := s.svc.UpdateStatus(s.at(48*time.Hour), record.EmployeeID,
		resignation.StatusProcessed, "admin-1")
	s.Require().NoError(err)
	s.Equal(resignation.StatusProcessed, updated.Status)
	s.True(updated.IsLocked)
}

func (s *ServiceSuite) TestMutationsLeaveAuditTrail() {
	record := s.create()
	_, err := s.svc.AddPenalty(s.at(time.Hour), record.EmployeeID,
		resignation.Penalty{Description: "unreturned laptop", Amount: 100, Currency: "USD"},
		"admin-1")
	s.Require().NoError(err)

	entries, _, err := s.auditStore.List(context.Background(),
		audit.Filter{TenantID: "tenant-1", Resource: "resigned_employee"})
	s.Require().NoError(err)
	s.Len(entries, 2) // creation + penalty

	actions := map[string]bool{}
	for _, e := range entries {
		actions[e.Action] = true
	}
	s.True(actions["resignation_created"])
	s.True(actions["penalty_added"])
}

func (s *ServiceSuite) TestGetUnknownEmployee() {
	_, err := s.svc.Get(s.at(0), id.EmployeeID(uuid.New()))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListEvaluatesLocks() {
	record := s.create()

	records, err := s.svc.List(s.at(30*time.Hour), "tenant-1")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(record.EmployeeID, records[0].EmployeeID)
	s.True(records[0].IsLocked)
}
