package employee

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

// Store persists employee records.
type Store interface {
	Create(ctx context.Context, e *Employee) error
	Get(ctx context.Context, employeeID id.EmployeeID) (*Employee, error)
	FindByEmail(ctx context.Context, tenantID, email string) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, employeeID id.EmployeeID) error
	List(ctx context.Context, tenantID string) ([]Employee, error)
	ListActive(ctx context.Context, tenantID string) ([]Employee, error)
}

// OrgResolver resolves org references into display names, the explicit
// join fetch behind the Detail read model.
type OrgResolver interface {
	DepartmentName(ctx context.Context, departmentID id.DepartmentID) (string, error)
	PositionTitle(ctx context.Context, positionID id.PositionID) (string, error)
	SchoolName(ctx context.Context, schoolID id.SchoolID) (string, error)
}

// PasswordValidator checks a candidate credential against the tenant's
// security policy; the security package provides it.
type PasswordValidator interface {
	ValidatePassword(ctx context.Context, tenantID, candidate string) error
}

// Auditor is the slice of the audit ledger the service emits into.
type Auditor interface {
	Append(ctx context.Context, in audit.Input) (*audit.Entry, error)
}

// Service owns the employee directory.
type Service struct {
	store     Store
	org       OrgResolver
	passwords PasswordValidator
	auditor   Auditor
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithOrgResolver(r OrgResolver) Option {
	return func(s *Service) { s.org = r }
}

func WithPasswordValidator(v PasswordValidator) Option {
	return func(s *Service) { s.passwords = v }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the request to register an employee with a user
// account.
type CreateInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	DepartmentID id.DepartmentID
	PositionID   id.PositionID
	SchoolID     id.SchoolID
	HireDate     time.Time
	Role         Role
}

func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput, createdBy string) (*Employee, error) {
	now := requestcontext.Now(ctx)
	e, err := NewEmployee(id.EmployeeID(uuid.New()), tenantID,
		in.FirstName, in.LastName, in.Email, in.HireDate, in.Role, now)
	if err != nil {
		return nil, err
	}
	e.DepartmentID = in.DepartmentID
	e.PositionID = in.PositionID
	e.SchoolID = in.SchoolID

	if in.Password != "" {
		if s.passwords != nil {
			if err := s.passwords.ValidatePassword(ctx, tenantID, in.Password); err != nil {
				return nil, err
			}
		}
		if err := e.SetPassword(in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.store.Create(ctx, e); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an employee with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create employee")
	}
	s.audit(ctx, audit.Input{
		Action:     "employee_created",
		Resource:   "employee",
		ResourceID: e.ID.String(),
		UserID:     createdBy,
		TenantID:   tenantID,
		Category:   audit.CategoryDataChange,
		Changes: audit.Changes{
			After: map[string]any{"email": e.Email, "role": string(e.Role)},
		},
	})
	return e, nil
}

// Get returns an employee with its org references resolved.
func (s *Service) Get(ctx context.Context, employeeID id.EmployeeID) (*Detail, error) {
	e, err := s.store.Get(ctx, employeeID)
	if err != nil {
		return nil, wrapEmployeeErr(err)
	}
	return s.resolve(ctx, e), nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Detail, error) {
	employees, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list employees")
	}
	out := make([]Detail, 0, len(employees))
	for i := range employees {
		out = append(out, *s.resolve(ctx, &employees[i]))
	}
	return out, nil
}

// resolve performs the explicit join fetch; missing references degrade to
// empty names rather than failing the read.
func (s *Service) resolve(ctx context.Context, e *Employee) *Detail {
	d := &Detail{Employee: *e}
	if s.org == nil {
		return d
	}
	if !e.DepartmentID.IsNil() {
		if name, err := s.org.DepartmentName(ctx, e.DepartmentID); err == nil {
			d.DepartmentName = name
		}
	}
	if !e.PositionID.IsNil() {
		if title, err := s.org.PositionTitle(ctx, e.PositionID); err == nil {
			d.PositionTitle = title
		}
	}
	if !e.SchoolID.IsNil() {
		if name, err := s.org.SchoolName(ctx, e.SchoolID); err == nil {
			d.SchoolName = name
		}
	}
	return d
}

// UpdateInput carries a partial employee update; zero values are left
// untouched except Status and Role which are applied when set.
type UpdateInput struct {
	FirstName    string
	LastName     string
	DepartmentID id.DepartmentID
	PositionID   id.PositionID
	SchoolID     id.SchoolID
	Status       Status
	Role         Role
}

func (s *Service) Update(ctx context.Context, employeeID id.EmployeeID, in UpdateInput, updatedBy string) (*Employee, error) {
	e, err := s.store.Get(ctx, employeeID)
	if err != nil {
		return nil, wrapEmployeeErr(err)
	}
	before := map[string]any{"status": string(e.Status), "role": string(e.Role)}

	if in.FirstName != "" {
		e.FirstName = in.FirstName
	}
	if in.LastName != "" {
		e.LastName = in.LastName
	}
	if !in.DepartmentID.IsNil() {
		e.DepartmentID = in.DepartmentID
	}
	if !in.PositionID.IsNil() {
		e.PositionID = in.PositionID
	}
	if !in.SchoolID.IsNil() {
		e.SchoolID = in.SchoolID
	}
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "status must be active, inactive or resigned")
		}
		e.Status = in.Status
	}
	if in.Role != "" {
		if !in.Role.Valid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "role must be admin, manager or employee")
		}
		e.Role = in.Role
	}
	e.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, e); err != nil {
		return nil, wrapEmployeeErr(err)
	}
	s.audit(ctx, audit.Input{
		Action:     "employee_updated",
		Resource:   "employee",
		ResourceID: e.ID.String(),
		UserID:     updatedBy,
		TenantID:   e.TenantID,
		Category:   audit.CategoryDataChange,
		Changes: audit.Changes{
			Before: before,
			After:  map[string]any{"status": string(e.Status), "role": string(e.Role)},
		},
	})
	return e, nil
}

func (s *Service) Delete(ctx context.Context, employeeID id.EmployeeID, deletedBy string) error {
	e, err := s.store.Get(ctx, employeeID)
	if err != nil {
		return wrapEmployeeErr(err)
	}
	if err := s.store.Delete(ctx, employeeID); err != nil {
		return wrapEmployeeErr(err)
	}
	s.audit(ctx, audit.Input{
		Action:     "employee_deleted",
		Resource:   "employee",
		ResourceID: employeeID.String(),
		UserID:     deletedBy,
		TenantID:   e.TenantID,
		Category:   audit.CategoryDataChange,
		Severity:   audit.SeverityWarning,
	})
	return nil
}

// ChangeRole records role changes to the permission trail with extended
// retention.
func (s *Service) ChangeRole(ctx context.Context, employeeID id.EmployeeID, role Role, changedBy string) (*Employee, error) {
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "role must be admin, manager or employee")
	}
	e, err := s.store.Get(ctx, employeeID)
	if err != nil {
		return nil, wrapEmployeeErr(err)
	}
	before := e.Role
	e.Role = role
	e.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, e); err != nil {
		return nil, wrapEmployeeErr(err)
	}
	s.audit(ctx, audit.Input{
		Action:          "role_changed",
		Resource:        "employee",
		ResourceID:      employeeID.String(),
		UserID:          changedBy,
		TenantID:        e.TenantID,
		Category:        audit.CategoryPermission,
		Severity:        audit.SeverityWarning,
		RetentionPolicy: audit.RetentionExtended,
		Changes: audit.Changes{
			Before: map[string]any{"role": string(before)},
			After:  map[string]any{"role": string(role)},
			Fields: []string{"role"},
		},
	})
	return e, nil
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

func wrapEmployeeErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "employee not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "employee conflict")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "employee store failure")
	}
}
