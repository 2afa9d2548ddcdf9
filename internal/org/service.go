package org

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

// Store persists org reference data.
type Store interface {
	CreateDepartment(ctx context.Context, d *Department) error
	GetDepartment(ctx context.Context, departmentID id.DepartmentID) (*Department, error)
	UpdateDepartment(ctx context.Context, d *Department) error
	DeleteDepartment(ctx context.Context, departmentID id.DepartmentID) error
	ListDepartments(ctx context.Context, tenantID string) ([]Department, error)

	CreatePosition(ctx context.Context, p *Position) error
	GetPosition(ctx context.Context, positionID id.PositionID) (*Position, error)
	UpdatePosition(ctx context.Context, p *Position) error
	DeletePosition(ctx context.Context, positionID id.PositionID) error
	ListPositions(ctx context.Context, tenantID string) ([]Position, error)

	CreateSchool(ctx context.Context, sc *School) error
	GetSchool(ctx context.Context, schoolID id.SchoolID) (*School, error)
	UpdateSchool(ctx context.Context, sc *School) error
	DeleteSchool(ctx context.Context, schoolID id.SchoolID) error
	ListSchools(ctx context.Context, tenantID string) ([]School, error)
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

func (s *Service) CreateDepartment(ctx context.Context, tenantID, name, description, createdBy string) (*Department, error) {
	d, err := NewDepartment(id.DepartmentID(uuid.New()), tenantID, name, description, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateDepartment(ctx, d); err != nil {
		return nil, wrapOrgErr(err, "department")
	}
	s.audit(ctx, "department_created", "department", d.ID.String(), createdBy, tenantID)
	return d, nil
}

func (s *Service) GetDepartment(ctx context.Context, departmentID id.DepartmentID) (*Department, error) {
	d, err := s.store.GetDepartment(ctx, departmentID)
	if err != nil {
		return nil, wrapOrgErr(err, "department")
	}
	return d, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, departmentID id.DepartmentID, name, description, updatedBy string) (*Department, error) {
	d, err := s.store.GetDepartment(ctx, departmentID)
	if err != nil {
		return nil, wrapOrgErr(err, "department")
	}
	if name != "" {
		d.Name = name
	}
	if description != "" {
		d.Description = description
	}
	d.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.UpdateDepartment(ctx, d); err != nil {
		return nil, wrapOrgErr(err, "department")
	}
	s.audit(ctx, "department_updated", "department", d.ID.String(), updatedBy, d.TenantID)
	return d, nil
}

func (s *Service) DeleteDepartment(ctx context.Context, departmentID id.DepartmentID, deletedBy string) error {
	d, err := s.store.GetDepartment(ctx, departmentID)
	if err != nil {
		return wrapOrgErr(err, "department")
	}
	if err := s.store.DeleteDepartment(ctx, departmentID); err != nil {
		return wrapOrgErr(err, "department")
	}
	s.audit(ctx, "department_deleted", "department", departmentID.String(), deletedBy, d.TenantID)
	return nil
}

func (s *Service) ListDepartments(ctx context.Context, tenantID string) ([]Department, error) {
	out, err := s.store.ListDepartments(ctx, tenantID)
	if err != nil {
		return nil, wrapOrgErr(err, "department")
	}
	return out, nil
}

func (s *Service) CreatePosition(ctx context.Context, tenantID, title, description string, departmentID id.DepartmentID, createdBy string) (*Position, error) {
	if !departmentID.IsNil() {
		if _, err := s.store.GetDepartment(ctx, departmentID); err != nil {
			return nil, wrapOrgErr(err, "department")
		}
	}
	p, err := NewPosition(id.PositionID(uuid.New()), tenantID, title, description, departmentID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePosition(ctx, p); err != nil {
		return nil, wrapOrgErr(err, "position")
	}
	s.audit(ctx, "position_created", "position", p.ID.String(), createdBy, tenantID)
	return p, nil
}

func (s *Service) GetPosition(ctx context.Context, positionID id.PositionID) (*Position, error) {
	p, err := s.store.GetPosition(ctx, positionID)
	if err != nil {
		return nil, wrapOrgErr(err, "position")
	}
	return p, nil
}

func (s *Service) UpdatePosition(ctx context.Context, positionID id.PositionID, title, description string, departmentID id.DepartmentID, updatedBy string) (*Position, error) {
	p, err := s.store.GetPosition(ctx, positionID)
	if err != nil {
		return nil, wrapOrgErr(err, "position")
	}
	if title != "" {
		p.Title = title
	}
	if description != "" {
		p.Description = description
	}
	if !departmentID.IsNil() {
		if _, err := s.store.GetDepartment(ctx, departmentID); err != nil {
			return nil, wrapOrgErr(err, "department")
		}
		p.DepartmentID = departmentID
	}
	p.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.UpdatePosition(ctx, p); err != nil {
		return nil, wrapOrgErr(err, "position")
	}
	s.audit(ctx, "position_updated", "position", p.ID.String(), updatedBy, p.TenantID)
	return p, nil
}

func (s *Service) DeletePosition(ctx context.Context, positionID id.PositionID, deletedBy string) error {
	p, err := s.store.GetPosition(ctx, positionID)
	if err != nil {
		return wrapOrgErr(err, "position")
	}
	if err := s.store.DeletePosition(ctx, positionID); err != nil {
		return wrapOrgErr(err, "position")
	}
	s.audit(ctx, "position_deleted", "position", positionID.String(), deletedBy, p.TenantID)
	return nil
}

func (s *Service) ListPositions(ctx context.Context, tenantID string) ([]Position, error) {
	out, err := s.store.ListPositions(ctx, tenantID)
	if err != nil {
		return nil, wrapOrgErr(err, "position")
	}
	return out, nil
}

func (s *Service) CreateSchool(ctx context.Context, tenantID, name, address, createdBy string) (*School, error) {
	sc, err := NewSchool(id.SchoolID(uuid.New()), tenantID, name, address, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateSchool(ctx, sc); err != nil {
		return nil, wrapOrgErr(err, "school")
	}
	s.audit(ctx, "school_created", "school", sc.ID.String(), createdBy, tenantID)
	return sc, nil
}

func (s *Service) GetSchool(ctx context.Context, schoolID id.SchoolID) (*School, error) {
	sc, err := s.store.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, wrapOrgErr(err, "school")
	}
	return sc, nil
}

func (s *Service) UpdateSchool(ctx context.Context, schoolID id.SchoolID, name, address, updatedBy string) (*School, error) {
	sc, err := s.store.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, wrapOrgErr(err, "school")
	}
	if name != "" {
		sc.Name = name
	}
	if address != "" {
		sc.Address = address
	}
	sc.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.UpdateSchool(ctx, sc); err != nil {
		return nil, wrapOrgErr(err, "school")
	}
	s.audit(ctx, "school_updated", "school", sc.ID.String(), updatedBy, sc.TenantID)
	return sc, nil
}

func (s *Service) DeleteSchool(ctx context.Context, schoolID id.SchoolID, deletedBy string) error {
	sc, err := s.store.GetSchool(ctx, schoolID)
	if err != nil {
		return wrapOrgErr(err, "school")
	}
	if err := s.store.DeleteSchool(ctx, schoolID); err != nil {
		return wrapOrgErr(err, "school")
	}
	s.audit(ctx, "school_deleted", "school", schoolID.String(), deletedBy, sc.TenantID)
	return nil
}

func (s *Service) ListSchools(ctx context.Context, tenantID string) ([]School, error) {
	out, err := s.store.ListSchools(ctx, tenantID)
	if err != nil {
		return nil, wrapOrgErr(err, "school")
	}
	return out, nil
}

// DepartmentName, PositionTitle and SchoolName make the service usable as
// the employee read model's reference resolver.
func (s *Service) DepartmentName(ctx context.Context, departmentID id.DepartmentID) (string, error) {
	d, err := s.GetDepartment(ctx, departmentID)
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

func (s *Service) PositionTitle(ctx context.Context, positionID id.PositionID) (string, error) {
	p, err := s.GetPosition(ctx, positionID)
	if err != nil {
		return "", err
	}
	return p.Title, nil
}

func (s *Service) SchoolName(ctx context.Context, schoolID id.SchoolID) (string, error) {
	sc, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return "", err
	}
	return sc.Name, nil
}

func (s *Service) audit(ctx context.Context, action, resource, resourceID, userID, tenantID string) {
	if s.auditor == nil {
		return
	}
	correlationID := requestcontext.RequestID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	if _, err := s.auditor.Append(ctx, audit.Input{
		Action:        action,
		Resource:      resource,
		ResourceID:    resourceID,
		UserID:        userID,
		TenantID:      tenantID,
		Category:      audit.CategoryDataChange,
		CorrelationID: correlationID,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to append audit entry",
			"action", action, "error", err)
	}
}

func wrapOrgErr(err error, kind string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", kind)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Newf(dErrors.CodeConflict, "a %s with this name already exists", kind)
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "org store failure")
	}
}
