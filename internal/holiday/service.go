package holiday

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

// Store persists holiday records.
type Store interface {
	Create(ctx context.Context, h *Holiday) error
	Get(ctx context.Context, holidayID id.HolidayID) (*Holiday, error)
	Update(ctx context.Context, h *Holiday) error
	Delete(ctx context.Context, holidayID id.HolidayID) error
	List(ctx context.Context, tenantID string, schoolID id.SchoolID) ([]Holiday, error)
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

// CreateInput carries the request to add a calendar entry.
type CreateInput struct {
	SchoolID    id.SchoolID
	Name        string
	Date        time.Time
	Recurring   bool
	Description string
}

func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput, createdBy string) (*Holiday, error) {
	h, err := NewHoliday(id.HolidayID(uuid.New()), tenantID, in.SchoolID,
		in.Name, in.Date, in.Recurring, in.Description, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, h); err != nil {
		return nil, wrapHolidayErr(err)
	}
	s.audit(ctx, "holiday_created", h.ID.String(), createdBy, tenantID)
	return h, nil
}

func (s *Service) Get(ctx context.Context, holidayID id.HolidayID) (*Holiday, error) {
	h, err := s.store.Get(ctx, holidayID)
	if err != nil {
		return nil, wrapHolidayErr(err)
	}
	return h, nil
}

func (s *Service) Update(ctx context.Context, holidayID id.HolidayID, in CreateInput, updatedBy string) (*Holiday, error) {
	h, err := s.store.Get(ctx, holidayID)
	if err != nil {
		return nil, wrapHolidayErr(err)
	}
	if in.Name != "" {
		h.Name = in.Name
	}
	if !in.Date.IsZero() {
		h.Date = in.Date.UTC().Truncate(24 * time.Hour)
	}
	if !in.SchoolID.IsNil() {
		h.SchoolID = in.SchoolID
	}
	if in.Description != "" {
		h.Description = in.Description
	}
	h.Recurring = in.Recurring
	h.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, h); err != nil {
		return nil, wrapHolidayErr(err)
	}
	s.audit(ctx, "holiday_updated", h.ID.String(), updatedBy, h.TenantID)
	return h, nil
}

func (s *Service) Delete(ctx context.Context, holidayID id.HolidayID, deletedBy string) error {
	h, err := s.store.Get(ctx, holidayID)
	if err != nil {
		return wrapHolidayErr(err)
	}
	if err := s.store.Delete(ctx, holidayID); err != nil {
		return wrapHolidayErr(err)
	}
	s.audit(ctx, "holiday_deleted", holidayID.String(), deletedBy, h.TenantID)
	return nil
}

func (s *Service) List(ctx context.Context, tenantID string, schoolID id.SchoolID) ([]Holiday, error) {
	out, err := s.store.List(ctx, tenantID, schoolID)
	if err != nil {
		return nil, wrapHolidayErr(err)
	}
	return out, nil
}

// WorkingDayCheck is the answer to a working-day query.
type WorkingDayCheck struct {
	Date         time.Time `json:"date"`
	IsWorkingDay bool      `json:"isWorkingDay"`
	Reason       string    `json:"reason,omitempty"`
}

// CheckWorkingDay reports whether a date is a working day for a campus:
// false on the Friday/Saturday weekend and on any matching holiday.
func (s *Service) CheckWorkingDay(ctx context.Context, tenantID string, date time.Time, schoolID id.SchoolID) (*WorkingDayCheck, error) {
	check := &WorkingDayCheck{Date: date, IsWorkingDay: true}
	if IsWeekend(date) {
		check.IsWorkingDay = false
		check.Reason = "weekend"
		return check, nil
	}
	holidays, err := s.store.List(ctx, tenantID, schoolID)
	if err != nil {
		return nil, wrapHolidayErr(err)
	}
	for i := range holidays {
		if holidays[i].Matches(date, schoolID) {
			check.IsWorkingDay = false
			check.Reason = holidays[i].Name
			return check, nil
		}
	}
	return check, nil
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
		Resource:      "holiday",
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

func wrapHolidayErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "holiday not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "holiday already exists")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "holiday store failure")
	}
}
