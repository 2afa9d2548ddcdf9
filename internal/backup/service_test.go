package backup_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"peopleops/internal/audit"
	auditstore "peopleops/internal/audit/store"
	"peopleops/internal/backup"
	"peopleops/internal/backup/store"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
	"peopleops/pkg/testutil"
)

type RunSuite struct {
	suite.Suite
	svc        *backup.Service
	auditStore *auditstore.InMemory
	now        time.Time
}

func TestRunSuite(t *testing.T) {
	suite.Run(t, new(RunSuite))
}

func (s *RunSuite) SetupTest() {
	s.now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	s.auditStore = auditstore.NewInMemory()
	s.svc = backup.NewService(store.NewInMemory(),
		backup.WithAuditor(audit.NewLedger(s.auditStore)))
}

func (s *RunSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(testutil.AuthContext("admin-1", "tenant-1"), s.now.Add(offset))
}

func (s *RunSuite) TestRequestAndComplete() {
	run, err := s.svc.Request(s.at(0), "tenant-1", "admin-1")
	s.Require().NoError(err)
	s.Equal(backup.StatusRequested, run.Status)
	s.True(run.FinishedAt.IsZero())

	done, err := s.svc.MarkCompleted(s.at(time.Minute), run.ID, 1<<20, "s3://backups/t1/run.tgz", "runner-1")
	s.Require().NoError(err)
	s.Equal(backup.StatusCompleted, done.Status)
	s.Equal(s.now.Add(time.Minute), done.FinishedAt)

	// Terminal states are final.
	_, err = s.svc.MarkFailed(s.at(2*time.Minute), run.ID, "late failure", "runner-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	entries, _, err := audit.NewLedger(s.auditStore).List(s.at(0), audit.Filter{
		TenantID: "tenant-1",
		Resource: "backup",
	})
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *RunSuite) TestFailure() {
	run, err := s.svc.Request(s.at(0), "tenant-1", "admin-1")
	s.Require().NoError(err)

	failed, err := s.svc.MarkFailed(s.at(time.Minute), run.ID, "disk full", "runner-1")
	s.Require().NoError(err)
	s.Equal(backup.StatusFailed, failed.Status)
	s.Equal("disk full", failed.Error)

	listed, err := s.svc.List(s.at(time.Minute), "tenant-1")
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(backup.StatusFailed, listed[0].Status)
}
