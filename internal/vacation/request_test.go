package vacation_test

import (
	"time"

	"github.com/google/uuid"

	"peopleops/internal/audit"
	"peopleops/internal/vacation"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

// submitRequest files a Monday-to-Thursday annual request (4 working days).
func (s *EngineSuite) submitRequest(employeeID id.EmployeeID) *vacation.LeaveRequest {
	req, err := s.svc.SubmitRequest(s.ctx, "tenant-1", vacation.SubmitRequestInput{
		EmployeeID: employeeID,
		Category:   vacation.CategoryAnnual,
		StartDate:  s.now,
		EndDate:    s.now.AddDate(0, 0, 3),
		Reason:     "family visit",
	}, "admin-1")
	s.Require().NoError(err)
	return req
}

func (s *EngineSuite) TestSubmitRequestHoldsPending() {
	employeeID := s.addEmployee(12)
	req := s.submitRequest(employeeID)

	s.Equal(vacation.RequestPending, req.Status)
	s.Equal(4, req.Days)

	balance, err := s.balances.Get(s.ctx, employeeID, s.now.Year())
	s.Require().NoError(err)
	s.Equal(4, balance.Annual.Pending)
	s.Equal(0, balance.Annual.Used)
	s.Equal(vacation.DefaultAnnualDays-4, balance.Annual.Available)

	entries, _, err := s.auditStore.List(s.ctx, audit.Filter{Action: "leave_requested"})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(req.ID.String(), entries[0].ResourceID)
}

func (s *EngineSuite) TestSubmitRequestSkipsWeekend() {
	employeeID := s.addEmployee(12)

	// Monday through Sunday: Friday and Saturday do not count.
	req, err := s.svc.SubmitRequest(s.ctx, "tenant-1", vacation.SubmitRequestInput{
		EmployeeID: employeeID,
		Category:   vacation.CategoryCasual,
		StartDate:  s.now,
		EndDate:    s.now.AddDate(0, 0, 6),
	}, "admin-1")
	s.Require().NoError(err)
	s.Equal(5, req.Days)
}

func (s *EngineSuite) TestSubmitRequestValidation() {
	s.Run("collects violations", func() {
		_, err := s.svc.SubmitRequest(s.ctx, "tenant-1", vacation.SubmitRequestInput{
			Category: "sabbatical",
		}, "admin-1")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.GreaterOrEqual(len(dErrors.ViolationsOf(err)), 3)
	})

	s.Run("rejects a window spanning calendar years", func() {
		employeeID := s.addEmployee(12)
		_, err := s.svc.SubmitRequest(s.ctx, "tenant-1", vacation.SubmitRequestInput{
			EmployeeID: employeeID,
			Category:   vacation.CategoryAnnual,
			StartDate:  time.Date(2026, 12, 30, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2027, 1, 3, 0, 0, 0, 0, time.UTC),
		}, "admin-1")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects unknown employee", func() {
		_, err := s.svc.SubmitRequest(s.ctx, "tenant-1", vacation.SubmitRequestInput{
			EmployeeID: id.EmployeeID(uuid.New()),
			Category:   vacation.CategoryAnnual,
			StartDate:  s.now,
			EndDate:    s.now.AddDate(0, 0, 1),
		}, "admin-1")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngineSuite) TestSubmitRequestRejectsInsufficientBalance() {
	employeeID := s.addEmployee(12)

	// A month-long window holds more working days than the annual allocation.
	_, err := s.svc.SubmitRequest(s.ctx, "tenant-1", vacation.SubmitRequestInput{
		EmployeeID: employeeID,
		Category:   vacation.CategoryAnnual,
		StartDate:  s.now,
		EndDate:    s.now.AddDate(0, 0, 30),
	}, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))

	balance, err := s.balances.Get(s.ctx, employeeID, s.now.Year())
	s.Require().NoError(err)
	s.Equal(0, balance.Annual.Pending)
}

func (s *EngineSuite) TestSubmitRequestRejectsProbation() {
	employeeID := s.addEmployee(1)
	_, err := s.svc.SubmitRequest(s.ctx, "tenant-1", vacation.SubmitRequestInput{
		EmployeeID: employeeID,
		Category:   vacation.CategoryAnnual,
		StartDate:  s.now,
		EndDate:    s.now.AddDate(0, 0, 1),
	}, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *EngineSuite) TestApproveRequestMovesPendingToUsed() {
	employeeID := s.addEmployee(12)
	req := s.submitRequest(employeeID)

	approved, err := s.svc.ApproveRequest(s.ctx, req.ID, "manager-1")
	s.Require().NoError(err)
	s.Equal(vacation.RequestApproved, approved.Status)
	s.Equal("manager-1", approved.DecidedBy)
	s.False(approved.DecidedAt.IsZero())

	balance, err := s.balances.Get(s.ctx, employeeID, s.now.Year())
	s.Require().NoError(err)
	s.Equal(0, balance.Annual.Pending)
	s.Equal(4, balance.Annual.Used)
	s.Equal(vacation.DefaultAnnualDays-4, balance.Annual.Available)

	// A decided request cannot be decided again.
	_, err = s.svc.RejectRequest(s.ctx, req.ID, "manager-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	entries, _, err := s.auditStore.List(s.ctx, audit.Filter{Action: "leave_approved"})
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *EngineSuite) TestRejectRequestReleasesHold() {
	employeeID := s.addEmployee(12)
	req := s.submitRequest(employeeID)

	rejected, err := s.svc.RejectRequest(s.ctx, req.ID, "manager-1")
	s.Require().NoError(err)
	s.Equal(vacation.RequestRejected, rejected.Status)

	balance, err := s.balances.Get(s.ctx, employeeID, s.now.Year())
	s.Require().NoError(err)
	s.Equal(0, balance.Annual.Pending)
	s.Equal(0, balance.Annual.Used)
	s.Equal(vacation.DefaultAnnualDays, balance.Annual.Available)
}

func (s *EngineSuite) TestUpdateRequestReholds() {
	employeeID := s.addEmployee(12)
	req := s.submitRequest(employeeID)

	s.Run("shrinking the window shrinks the hold", func() {
		updated, err := s.svc.UpdateRequest(s.ctx, req.ID, vacation.SubmitRequestInput{
			Category:  vacation.CategoryAnnual,
			StartDate: s.now,
			EndDate:   s.now.AddDate(0, 0, 1),
		}, "admin-1")
		s.Require().NoError(err)
		s.Equal(2, updated.Days)

		balance, err := s.balances.Get(s.ctx, employeeID, s.now.Year())
		s.Require().NoError(err)
		s.Equal(2, balance.Annual.Pending)
	})

	s.Run("an edit that does not fit restores the old hold", func() {
		_, err := s.svc.UpdateRequest(s.ctx, req.ID, vacation.SubmitRequestInput{
			Category:  vacation.CategoryAnnual,
			StartDate: s.now,
			EndDate:   s.now.AddDate(0, 0, 30),
		}, "admin-1")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))

		balance, err := s.balances.Get(s.ctx, employeeID, s.now.Year())
		s.Require().NoError(err)
		s.Equal(2, balance.Annual.Pending, "previous hold must survive a failed edit")

		current, err := s.svc.GetRequest(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(2, current.Days)
	})

	s.Run("decided requests reject edits", func() {
		_, err := s.svc.ApproveRequest(s.ctx, req.ID, "manager-1")
		s.Require().NoError(err)
		_, err = s.svc.UpdateRequest(s.ctx, req.ID, vacation.SubmitRequestInput{
			Category:  vacation.CategoryAnnual,
			StartDate: s.now,
			EndDate:   s.now.AddDate(0, 0, 1),
		}, "admin-1")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *EngineSuite) TestDeleteRequest() {
	s.Run("deleting a pending request releases the hold", func() {
		employeeID := s.addEmployee(12)
		req := s.submitRequest(employeeID)

		s.Require().NoError(s.svc.DeleteRequest(s.ctx, req.ID))

		balance, err := s.balances.Get(s.ctx, employeeID, s.now.Year())
		s.Require().NoError(err)
		s.Equal(0, balance.Annual.Pending)

		_, err = s.svc.GetRequest(s.ctx, req.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("approved requests cannot be deleted", func() {
		employeeID := s.addEmployee(12)
		req := s.submitRequest(employeeID)
		_, err := s.svc.ApproveRequest(s.ctx, req.ID, "manager-1")
		s.Require().NoError(err)

		err = s.svc.DeleteRequest(s.ctx, req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejected requests can be deleted", func() {
		employeeID := s.addEmployee(12)
		req := s.submitRequest(employeeID)
		_, err := s.svc.RejectRequest(s.ctx, req.ID, "manager-1")
		s.Require().NoError(err)

		s.Require().NoError(s.svc.DeleteRequest(s.ctx, req.ID))
	})
}

func (s *EngineSuite) TestListRequests() {
	first := s.addEmployee(12)
	second := s.addEmployee(24)
	s.submitRequest(first)
	s.submitRequest(second)

	all, err := s.svc.ListRequests(s.ctx, "tenant-1")
	s.Require().NoError(err)
	s.Len(all, 2)

	mine, err := s.svc.ListRequestsByEmployee(s.ctx, first)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(first, mine[0].EmployeeID)
}
