package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/platform/sentinel"
)

// Store computes report aggregates. The service never writes through it.
type Store interface {
	HeadcountByDepartment(ctx context.Context, tenantID string) ([]HeadcountRow, error)
	LeaveUsageByYear(ctx context.Context, tenantID string, year int) ([]LeaveUsageRow, error)
	AuditVolumeBySeverity(ctx context.Context, tenantID string, from, to time.Time) ([]AuditVolumeRow, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) Headcount(ctx context.Context, tenantID string) ([]HeadcountRow, error) {
	rows, err := s.store.HeadcountByDepartment(ctx, tenantID)
	if err != nil {
		return nil, wrapReportErr(err)
	}
	return rows, nil
}

func (s *Service) LeaveUsage(ctx context.Context, tenantID string, year int) ([]LeaveUsageRow, error) {
	if year <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "year must be a positive number")
	}
	rows, err := s.store.LeaveUsageByYear(ctx, tenantID, year)
	if err != nil {
		return nil, wrapReportErr(err)
	}
	return rows, nil
}

func (s *Service) AuditVolume(ctx context.Context, tenantID string, from, to time.Time) ([]AuditVolumeRow, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "report range end must not precede its start")
	}
	rows, err := s.store.AuditVolumeBySeverity(ctx, tenantID, from, to)
	if err != nil {
		return nil, wrapReportErr(err)
	}
	return rows, nil
}

func wrapReportErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "report source not found")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "report query failed")
	}
}
