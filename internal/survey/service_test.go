package survey_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"peopleops/internal/notification"
	notificationstore "peopleops/internal/notification/store"
	"peopleops/internal/survey"
	"peopleops/internal/survey/store"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
	"peopleops/pkg/testutil"
)

type SurveySuite struct {
	suite.Suite
	svc       *survey.Service
	notifier  *notification.Service
	notifyDB  *notificationstore.InMemory
	now       time.Time
	questions []survey.Question
}

func TestSurveySuite(t *testing.T) {
	suite.Run(t, new(SurveySuite))
}

func (s *SurveySuite) SetupTest() {
	s.now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	s.notifyDB = notificationstore.NewInMemory()
	s.notifier = notification.NewService(s.notifyDB)
	s.svc = survey.NewService(store.NewInMemory(),
		survey.WithNotifier(s.notifier))
	s.questions = []survey.Question{
		{Text: "How satisfied are you?", Kind: "rating", Required: true},
		{Text: "Anything else?", Kind: "free_text"},
	}
}

func (s *SurveySuite) TearDownTest() {
	s.notifier.Close()
}

func (s *SurveySuite) ctx() context.Context {
	return requestcontext.WithTime(testutil.AuthContext("admin-1", "tenant-1"), s.now)
}

func (s *SurveySuite) create() *survey.Survey {
	sv, err := s.svc.Create(s.ctx(), "tenant-1", survey.Input{
		Title:     "Quarterly pulse",
		Questions: s.questions,
	}, "admin-1")
	s.Require().NoError(err)
	return sv
}

func (s *SurveySuite) TestLifecycle() {
	sv := s.create()
	s.Equal(survey.StatusDraft, sv.Status)

	opened, err := s.svc.Open(s.ctx(), sv.ID, "admin-1")
	s.Require().NoError(err)
	s.Equal(survey.StatusOpen, opened.Status)

	// Open surveys are immutable.
	_, err = s.svc.Update(s.ctx(), sv.ID, survey.Input{Title: "Renamed"}, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	closed, err := s.svc.CloseSurvey(s.ctx(), sv.ID, "admin-1")
	s.Require().NoError(err)
	s.Equal(survey.StatusClosed, closed.Status)

	_, err = s.svc.Open(s.ctx(), sv.ID, "admin-1")
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *SurveySuite) TestValidation() {
	_, err := s.svc.Create(s.ctx(), "tenant-1", survey.Input{}, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Len(dErrors.ViolationsOf(err), 2)
}

func (s *SurveySuite) TestAssignDispatchesNotifications() {
	sv := s.create()
	recipients := []id.EmployeeID{
		id.EmployeeID(uuid.New()),
		id.EmployeeID(uuid.New()),
	}

	// Draft surveys cannot be assigned.
	_, err := s.svc.Assign(s.ctx(), sv.ID, recipients, "admin-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = s.svc.Open(s.ctx(), sv.ID, "admin-1")
	s.Require().NoError(err)

	sent, err := s.svc.Assign(s.ctx(), sv.ID, recipients, "admin-1")
	s.Require().NoError(err)
	s.Len(sent, 2)

	for _, recipientID := range recipients {
		s.Require().Eventually(func() bool {
			inbox, err := s.notifyDB.ListByRecipient(context.Background(), "tenant-1", recipientID)
			return err == nil && len(inbox) == 1
		}, time.Second, 5*time.Millisecond)

		inbox, err := s.notifyDB.ListByRecipient(context.Background(), "tenant-1", recipientID)
		s.Require().NoError(err)
		s.Equal(notification.KindSurveyAssignment, inbox[0].Kind)
		s.Equal(sv.ID.String(), inbox[0].RelatedID)
	}
}

func (s *SurveySuite) TestAssignRequiresRecipients() {
	sv := s.create()
	_, err := s.svc.Assign(s.ctx(), sv.ID, nil, "admin-1")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
