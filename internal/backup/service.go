package backup

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"peopleops/internal/audit"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/platform/sentinel"
	"peopleops/pkg/requestcontext"
)

// Store persists backup runs.
type Store interface {
	Create(ctx context.Context, r *Run) error
	Get(ctx context.Context, backupID id.BackupID) (*Run, error)
	Update(ctx context.Context, r *Run) error
	List(ctx context.Context, tenantID string) ([]Run, error)
}

// Auditor is the slice of the audit ledger the service emits into.
type Auditor interface {
	Append(ctx context.Context, in audit.Input) (*audit.Entry, error)
}

type Service struct {
	store   Store
	auditor Auditor
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request records a new backup run. Runs are operator actions, so they go
// to the audit trail with warning severity.
func (s *Service) Request(ctx context.Context, tenantID, requestedBy string) (*Run, error) {
	r := NewRun(id.BackupID(uuid.New()), tenantID, requestedBy, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, r); err != nil {
		return nil, wrapBackupErr(err)
	}
	s.audit(ctx, "backup_requested", r.ID.String(), requestedBy, tenantID)
	return r, nil
}

func (s *Service) Get(ctx context.Context, backupID id.BackupID) (*Run, error) {
	r, err := s.store.Get(ctx, backupID)
	if err != nil {
		return nil, wrapBackupErr(err)
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Run, error) {
	out, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, wrapBackupErr(err)
	}
	return out, nil
}

// MarkCompleted finishes a run successfully with the archive size and
// location the runner reported.
func (s *Service) MarkCompleted(ctx context.Context, backupID id.BackupID, sizeBytes int64, location, reportedBy string) (*Run, error) {
	r, err := s.store.Get(ctx, backupID)
	if err != nil {
		return nil, wrapBackupErr(err)
	}
	if err := r.ApplyCompleted(sizeBytes, location, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, r); err != nil {
		return nil, wrapBackupErr(err)
	}
	s.audit(ctx, "backup_completed", r.ID.String(), reportedBy, r.TenantID)
	return r, nil
}

// MarkFailed finishes a run with the runner's error.
func (s *Service) MarkFailed(ctx context.Context, backupID id.BackupID, reason, reportedBy string) (*Run, error) {
	r, err := s.store.Get(ctx, backupID)
	if err != nil {
		return nil, wrapBackupErr(err)
	}
	if err := r.ApplyFailed(reason, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, r); err != nil {
		return nil, wrapBackupErr(err)
	}
	s.audit(ctx, "backup_failed", r.ID.String(), reportedBy, r.TenantID)
	return r, nil
}

func (s *Service) audit(ctx context.Context, action, resourceID, userID, tenantID string) {
	if s.auditor == nil {
		return
	}
	correlationID := requestcontext.RequestID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	if _, err := s.auditor.Append(ctx, audit.Input{
		Action:        action,
		Resource:      "backup",
		ResourceID:    resourceID,
		UserID:        userID,
		TenantID:      tenantID,
		Category:      audit.CategoryConfiguration,
		Severity:      audit.SeverityWarning,
		CorrelationID: correlationID,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to append audit entry",
			"action", action, "error", err)
	}
}

func wrapBackupErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "backup run not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "backup run already exists")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "backup store failure")
	}
}
