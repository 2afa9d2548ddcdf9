package employee_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"peopleops/internal/audit"
	auditstore "peopleops/internal/audit/store"
	"peopleops/internal/employee"
	"peopleops/internal/employee/store"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
	"peopleops/pkg/testutil"
)

type staticOrg struct {
	departments map[id.DepartmentID]string
	positions   map[id.PositionID]string
	schools     map[id.SchoolID]string
}

func (o staticOrg) DepartmentName(_ context.Context, departmentID id.DepartmentID) (string, error) {
	return o.departments[departmentID], nil
}

func (o staticOrg) PositionTitle(_ context.Context, positionID id.PositionID) (string, error) {
	return o.positions[positionID], nil
}

func (o staticOrg) SchoolName(_ context.Context, schoolID id.SchoolID) (string, error) {
	return o.schools[schoolID], nil
}

type rejectingValidator struct{ err error }

func (v rejectingValidator) ValidatePassword(context.Context, string, string) error {
	return v.err
}

type DirectorySuite struct {
	suite.Suite
	svc        *employee.Service
	store      *store.InMemory
	auditStore *auditstore.InMemory
	org        staticOrg
	now        time.Time
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	s.store = store.NewInMemory()
	s.auditStore = auditstore.NewInMemory()
	s.org = staticOrg{
		departments: map[id.DepartmentID]string{},
		positions:   map[id.PositionID]string{},
		schools:     map[id.SchoolID]string{},
	}
	s.svc = employee.NewService(s.store,
		employee.WithOrgResolver(s.org),
		employee.WithAuditor(audit.NewLedger(s.auditStore)))
}

func (s *DirectorySuite) ctx() context.Context {
	ctx := requestcontext.WithTime(testutil.AuthContext("admin-1", "tenant-1"), s.now)
	return ctx
}

func (s *DirectorySuite) create(email string) *employee.Employee {
	e, err := s.svc.Create(s.ctx(), "tenant-1", employee.CreateInput{
		FirstName: "Amira",
		LastName:  "Hassan",
		Email:     email,
		Password:  "Correct-Horse-9",
		HireDate:  s.now.AddDate(-1, 0, 0),
		Role:      employee.RoleEmployee,
	}, "admin-1")
	s.Require().NoError(err)
	return e
}

func (s *DirectorySuite) TestCreateAndGet() {
	created := s.create("amira@example.com")
	s.True(created.CheckPassword("Correct-Horse-9"))

	detail, err := s.svc.Get(s.ctx(), created.ID)
	s.Require().NoError(err)
	s.Equal("amira@example.com", detail.Email)
	s.Equal(employee.StatusActive, detail.Status)

	entries, _, err := audit.NewLedger(s.auditStore).List(s.ctx(), audit.Filter{
		TenantID: "tenant-1",
		Action:   "employee_created",
	})
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *DirectorySuite) TestDuplicateEmailConflicts() {
	s.create("amira@example.com")

	_, err := s.svc.Create(s.ctx(), "tenant-1", employee.CreateInput{
		FirstName: "Another",
		LastName:  "Person",
		Email:     "AMIRA@example.com",
		HireDate:  s.now.AddDate(-1, 0, 0),
	}, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *DirectorySuite) TestPasswordPolicyGatesCreation() {
	svc := employee.NewService(s.store,
		employee.WithPasswordValidator(rejectingValidator{
			err: dErrors.NewValidation("password does not meet the security policy",
				[]string{"Password must be at least 8 characters"}),
		}))

	_, err := svc.Create(s.ctx(), "tenant-1", employee.CreateInput{
		FirstName: "Amira",
		LastName:  "Hassan",
		Email:     "amira@example.com",
		Password:  "short",
		HireDate:  s.now.AddDate(-1, 0, 0),
	}, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *DirectorySuite) TestGetResolvesOrgReferences() {
	created := s.create("amira@example.com")

	departmentID := id.DepartmentID(uuid.New())
	positionID := id.PositionID(uuid.New())
	s.org.departments[departmentID] = "Engineering"
	s.org.positions[positionID] = "Staff Engineer"

	_, err := s.svc.Update(s.ctx(), created.ID, employee.UpdateInput{
		DepartmentID: departmentID,
		PositionID:   positionID,
	}, "admin-1")
	s.Require().NoError(err)

	detail, err := s.svc.Get(s.ctx(), created.ID)
	s.Require().NoError(err)
	s.Equal("Engineering", detail.DepartmentName)
	s.Equal("Staff Engineer", detail.PositionTitle)
	s.Empty(detail.SchoolName)
}

func (s *DirectorySuite) TestUpdateStatusAndRole() {
	created := s.create("amira@example.com")

	updated, err := s.svc.Update(s.ctx(), created.ID, employee.UpdateInput{
		Status: employee.StatusInactive,
	}, "admin-1")
	s.Require().NoError(err)
	s.Equal(employee.StatusInactive, updated.Status)

	_, err = s.svc.Update(s.ctx(), created.ID, employee.UpdateInput{
		Status: "fired",
	}, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	promoted, err := s.svc.ChangeRole(s.ctx(), created.ID, employee.RoleManager, "admin-1")
	s.Require().NoError(err)
	s.Equal(employee.RoleManager, promoted.Role)

	entries, _, err := audit.NewLedger(s.auditStore).List(s.ctx(), audit.Filter{
		TenantID: "tenant-1",
		Category: audit.CategoryPermission,
	})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("role_changed", entries[0].Action)
	s.Equal(audit.RetentionExtended, entries[0].RetentionPolicy)
}

func (s *DirectorySuite) TestDelete() {
	created := s.create("amira@example.com")

	s.Require().NoError(s.svc.Delete(s.ctx(), created.ID, "admin-1"))

	_, err := s.svc.Get(s.ctx(), created.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *DirectorySuite) TestVacationDirectoryView() {
	active := s.create("active@example.com")
	inactive := s.create("inactive@example.com")
	_, err := s.svc.Update(s.ctx(), inactive.ID, employee.UpdateInput{
		Status: employee.StatusResigned,
	}, "admin-1")
	s.Require().NoError(err)

	dir := employee.NewDirectory(s.store)

	got, err := dir.Get(s.ctx(), active.ID)
	s.Require().NoError(err)
	s.True(got.Active)
	s.Equal(active.HireDate, got.HireDate)

	listed, err := dir.ListActive(s.ctx(), "tenant-1")
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(active.ID, listed[0].ID)
}
