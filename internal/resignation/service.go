package resignation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"peopleops/internal/audit"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/platform/sentinel"
	"peopleops/pkg/requestcontext"
)

// Store persists resigned-employee records.
type Store interface {
	Create(ctx context.Context, record *Record) error
	FindByEmployee(ctx context.Context, employeeID id.EmployeeID) (*Record, error)
	List(ctx context.Context, tenantID string) ([]Record, error)
	Delete(ctx context.Context, employeeID id.EmployeeID) error
	// Execute atomically validates then mutates a record under the store's
	// lock. The record is persisted even when validation fails so lock
	// evaluation sticks.
	Execute(ctx context.Context, employeeID id.EmployeeID, validate func(*Record) error, mutate func(*Record) error) (*Record, error)
}

// Auditor is the slice of the audit ledger the service emits into.
type Auditor interface {
	Append(ctx context.Context, in audit.Input) (*audit.Entry, error)
}

// Service owns resigned-employee records and the penalty edit rules.
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

// CreateInput carries the request to open a resignation record.
type CreateInput struct {
	EmployeeID      id.EmployeeID
	ResignationType Type
	ResignationDate time.Time
	LastWorkingDay  time.Time
}

func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput, createdBy string) (*Record, error) {
	now := requestcontext.Now(ctx)
	record, err := NewRecord(in.EmployeeID, tenantID, in.ResignationType,
		in.ResignationDate, in.LastWorkingDay, createdBy, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "employee already has a resignation record")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resignation record")
	}
	s.audit(ctx, audit.Input{
		Action:     "resignation_created",
		Resource:   "resigned_employee",
		ResourceID: record.EmployeeID.String(),
		UserID:     createdBy,
		TenantID:   tenantID,
		Category:   audit.CategoryDataChange,
		Changes: audit.Changes{
			After: map[string]any{
				"resignationType": string(record.ResignationType),
				"lastWorkingDay":  record.LastWorkingDay,
			},
		},
	})
	return record, nil
}

// Get returns a record with its lock state evaluated as of now.
func (s *Service) Get(ctx context.Context, employeeID id.EmployeeID) (*Record, error) {
	record, err := s.store.FindByEmployee(ctx, employeeID)
	if err != nil {
		return nil, wrapRecordErr(err)
	}
	record.EvaluateLock(requestcontext.Now(ctx))
	return record, nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Record, error) {
	records, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list resignation records")
	}
	now := requestcontext.Now(ctx)
	for i := range records {
		records[i].EvaluateLock(now)
	}
	return records, nil
}

func (s *Service) Delete(ctx context.Context, employeeID id.EmployeeID, deletedBy string) error {
	record, err := s.Get(ctx, employeeID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, employeeID); err != nil {
		return wrapRecordErr(err)
	}
	s.audit(ctx, audit.Input{
		Action:     "resignation_deleted",
		Resource:   "resigned_employee",
		ResourceID: employeeID.String(),
		UserID:     deletedBy,
		TenantID:   record.TenantID,
		Category:   audit.CategoryDataChange,
		Severity:   audit.SeverityWarning,
	})
	return nil
}

// AddPenalty appends a penalty to an unlocked record.
func (s *Service) AddPenalty(ctx context.Context, employeeID id.EmployeeID, penalty Penalty, addedBy string) (*Record, error) {
	now := requestcontext.Now(ctx)
	penalty.AddedBy = addedBy
	record, err := s.store.Execute(ctx, employeeID,
		func(r *Record) error { return r.CanMutate(now) },
		func(r *Record) error { return r.ApplyAddPenalty(penalty, now) },
	)
	if err != nil {
		return nil, wrapRecordErr(err)
	}
	s.audit(ctx, audit.Input{
		Action:     "penalty_added",
		Resource:   "resigned_employee",
		ResourceID: employeeID.String(),
		UserID:     addedBy,
		TenantID:   record.TenantID,
		Category:   audit.CategoryDataChange,
		Changes: audit.Changes{
			After: map[string]any{
				"amount":         penalty.Amount,
				"description":    penalty.Description,
				"totalPenalties": record.TotalPenalties,
			},
			Fields: []string{"penalties", "totalPenalties"},
		},
	})
	return record, nil
}

// RemovePenalty removes the penalty at index from an unlocked record.
func (s *Service) RemovePenalty(ctx context.Context, employeeID id.EmployeeID, index int, removedBy string) (*Record, error) {
	now := requestcontext.Now(ctx)
	record, err := s.store.Execute(ctx, employeeID,
		func(r *Record) error { return r.CanMutate(now) },
		func(r *Record) error { return r.ApplyRemovePenalty(index, now) },
	)
	if err != nil {
		return nil, wrapRecordErr(err)
	}
	s.audit(ctx, audit.Input{
		Action:     "penalty_removed",
		Resource:   "resigned_employee",
		ResourceID: employeeID.String(),
		UserID:     removedBy,
		TenantID:   record.TenantID,
		Category:   audit.CategoryDataChange,
		Changes: audit.Changes{
			After:  map[string]any{"totalPenalties": record.TotalPenalties},
			Fields: []string{"penalties", "totalPenalties"},
		},
	})
	return record, nil
}

// UpdateResignationType changes the type on an unlocked record.
func (s *Service) UpdateResignationType(ctx context.Context, employeeID id.EmployeeID, t Type, updatedBy string) (*Record, error) {
	now := requestcontext.Now(ctx)
	var before Type
	record, err := s.store.Execute(ctx, employeeID,
		func(r *Record) error {
			before = r.ResignationType
			return r.CanMutate(now)
		},
		func(r *Record) error { return r.ApplyTypeChange(t, now) },
	)
	if err != nil {
		return nil, wrapRecordErr(err)
	}
	s.audit(ctx, audit.Input{
		Action:     "resignation_type_changed",
		Resource:   "resigned_employee",
		ResourceID: employeeID.String(),
		UserID:     updatedBy,
		TenantID:   record.TenantID,
		Category:   audit.CategoryDataChange,
		Changes: audit.Changes{
			Before: map[string]any{"resignationType": string(before)},
			After:  map[string]any{"resignationType": string(t)},
			Fields: []string{"resignationType"},
		},
	})
	return record, nil
}

// UpdateStatus advances offboarding status; not subject to the edit lock.
func (s *Service) UpdateStatus(ctx context.Context, employeeID id.EmployeeID, status Status, updatedBy string) (*Record, error) {
	now := requestcontext.Now(ctx)
	record, err := s.store.Execute(ctx, employeeID,
		func(r *Record) error {
			r.EvaluateLock(now)
			return nil
		},
		func(r *Record) error { return r.ApplyStatusChange(status, now) },
	)
	if err != nil {
		return nil, wrapRecordErr(err)
	}
	s.audit(ctx, audit.Input{
		Action:     "resignation_status_changed",
		Resource:   "resigned_employee",
		ResourceID: employeeID.String(),
		UserID:     updatedBy,
		TenantID:   record.TenantID,
		Category:   audit.CategoryDataChange,
		Changes: audit.Changes{
			After:  map[string]any{"status": string(status)},
			Fields: []string{"status"},
		},
	})
	return record, nil
}

func (s *Service) audit(ctx context.Context, in audit.Input) {
	if s.auditor == nil {
		return
	}
	if in.CorrelationID == "" {
		in.CorrelationID = requestcontext.RequestID(ctx)
	}
	if in.CorrelationID == "" {
		in.CorrelationID = uuid.New().String()
	}
	if _, err := s.auditor.Append(ctx, in); err != nil {
		s.logger.WarnContext(ctx, "failed to append audit entry",
			"action", in.Action, "error", err)
	}
}

func wrapRecordErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "resignation record not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "resignation record conflict")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "resignation store failure")
	}
}
