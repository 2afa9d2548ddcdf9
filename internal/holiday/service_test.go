package holiday_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"peopleops/internal/holiday"
	"peopleops/internal/holiday/store"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
	"peopleops/pkg/testutil"
)

type CalendarSuite struct {
	suite.Suite
	svc    *holiday.Service
	campus id.SchoolID
	now    time.Time
}

func TestCalendarSuite(t *testing.T) {
	suite.Run(t, new(CalendarSuite))
}

func (s *CalendarSuite) SetupTest() {
	s.now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	s.campus = id.SchoolID(uuid.New())
	s.svc = holiday.NewService(store.NewInMemory())
}

func (s *CalendarSuite) ctx() context.Context {
	return requestcontext.WithTime(testutil.AuthContext("admin-1", "tenant-1"), s.now)
}

func (s *CalendarSuite) TestCRUD() {
	created, err := s.svc.Create(s.ctx(), "tenant-1", holiday.CreateInput{
		SchoolID: s.campus,
		Name:     "Founding Day",
		Date:     time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC),
	}, "admin-1")
	s.Require().NoError(err)

	updated, err := s.svc.Update(s.ctx(), created.ID, holiday.CreateInput{
		Name: "Founders' Day",
	}, "admin-1")
	s.Require().NoError(err)
	s.Equal("Founders' Day", updated.Name)
	s.Equal(created.Date, updated.Date)

	listed, err := s.svc.List(s.ctx(), "tenant-1", s.campus)
	s.Require().NoError(err)
	s.Len(listed, 1)

	s.Require().NoError(s.svc.Delete(s.ctx(), created.ID, "admin-1"))
	_, err = s.svc.Get(s.ctx(), created.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CalendarSuite) TestCheckWorkingDay() {
	_, err := s.svc.Create(s.ctx(), "tenant-1", holiday.CreateInput{
		SchoolID: s.campus,
		Name:     "Founding Day",
		Date:     time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC),
	}, "admin-1")
	s.Require().NoError(err)

	// A Wednesday holiday on this campus.
	check, err := s.svc.CheckWorkingDay(s.ctx(), "tenant-1",
		time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC), s.campus)
	s.Require().NoError(err)
	s.False(check.IsWorkingDay)
	s.Equal("Founding Day", check.Reason)

	// The same day on another campus is a working day.
	check, err = s.svc.CheckWorkingDay(s.ctx(), "tenant-1",
		time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC), id.SchoolID(uuid.New()))
	s.Require().NoError(err)
	s.True(check.IsWorkingDay)

	// Friday is a weekend regardless of the calendar.
	check, err = s.svc.CheckWorkingDay(s.ctx(), "tenant-1",
		time.Date(2026, 6, 19, 0, 0, 0, 0, time.UTC), s.campus)
	s.Require().NoError(err)
	s.False(check.IsWorkingDay)
	s.Equal("weekend", check.Reason)

	// An ordinary Tuesday.
	check, err = s.svc.CheckWorkingDay(s.ctx(), "tenant-1",
		time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC), s.campus)
	s.Require().NoError(err)
	s.True(check.IsWorkingDay)
}
