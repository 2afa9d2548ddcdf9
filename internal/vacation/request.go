package vacation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"peopleops/internal/audit"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/platform/sentinel"
	"peopleops/pkg/requestcontext"
)

// RequestStatus is a leave request lifecycle state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// LeaveRequest is one employee's ask for days off in a category.
//
// Invariants:
//   - While pending, Days are held against the balance's pending pool.
//   - Approval settles the hold into used days; rejection releases it.
//   - Only pending requests may be edited or decided.
type LeaveRequest struct {
	ID          id.LeaveRequestID `json:"id"`
	TenantID    string            `json:"tenantId"`
	EmployeeID  id.EmployeeID     `json:"employeeId"`
	Category    LeaveCategory     `json:"category"`
	StartDate   time.Time         `json:"startDate"`
	EndDate     time.Time         `json:"endDate"`
	Days        int               `json:"days"`
	Reason      string            `json:"reason"`
	Status      RequestStatus     `json:"status"`
	RequestedBy string            `json:"requestedBy"`
	DecidedBy   string            `json:"decidedBy,omitempty"`
	DecidedAt   time.Time         `json:"decidedAt,omitzero"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// SubmitRequestInput carries a leave request submission or edit.
type SubmitRequestInput struct {
	EmployeeID id.EmployeeID
	Category   LeaveCategory
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// NewLeaveRequest validates and builds a pending request, collecting every
// violation rather than stopping at the first. Days are counted from the
// requested window, skipping the Friday/Saturday weekend.
func NewLeaveRequest(requestID id.LeaveRequestID, tenantID string, in SubmitRequestInput, requestedBy string, now time.Time) (*LeaveRequest, error) {
	var violations []string
	if in.EmployeeID.IsNil() {
		violations = append(violations, "employeeId is required")
	}
	switch in.Category {
	case CategoryAnnual, CategoryCasual, CategorySick:
	default:
		violations = append(violations, "category must be one of annual, casual, sick")
	}
	days := 0
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		violations = append(violations, "startDate and endDate are required")
	} else if in.EndDate.Before(in.StartDate) {
		violations = append(violations, "endDate must not be before startDate")
	} else if in.StartDate.Year() != in.EndDate.Year() {
		// Balances are kept per calendar year; a spanning request would need
		// two holds.
		violations = append(violations, "request must not span calendar years")
	} else {
		days = workingDaysBetween(in.StartDate, in.EndDate)
		if days == 0 {
			violations = append(violations, "requested window contains no working days")
		}
	}
	if len(violations) > 0 {
		return nil, dErrors.NewValidation("invalid leave request", violations)
	}
	return &LeaveRequest{
		ID:          requestID,
		TenantID:    tenantID,
		EmployeeID:  in.EmployeeID,
		Category:    in.Category,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Days:        days,
		Reason:      in.Reason,
		Status:      RequestPending,
		RequestedBy: requestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// workingDaysBetween counts days in [start, end] that are not Friday or
// Saturday, the weekend in this deployment's region.
func workingDaysBetween(start, end time.Time) int {
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Friday && wd != time.Saturday {
			days++
		}
	}
	return days
}

func (r *LeaveRequest) CanDecide() error {
	if r.Status != RequestPending {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"only pending requests can be decided, current status is %s", r.Status)
	}
	return nil
}

func (r *LeaveRequest) CanEdit() error {
	if r.Status != RequestPending {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"only pending requests can be edited, current status is %s", r.Status)
	}
	return nil
}

func (r *LeaveRequest) CanDelete() error {
	if r.Status == RequestApproved {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"approved requests cannot be deleted, the days are already consumed")
	}
	return nil
}

func (r *LeaveRequest) ApplyDecision(status RequestStatus, decidedBy string, now time.Time) {
	r.Status = status
	r.DecidedBy = decidedBy
	r.DecidedAt = now
	r.UpdatedAt = now
}

// RequestStore persists leave requests.
type RequestStore interface {
	Create(ctx context.Context, req *LeaveRequest) error
	FindByID(ctx context.Context, requestID id.LeaveRequestID) (*LeaveRequest, error)
	Update(ctx context.Context, req *LeaveRequest) error
	Delete(ctx context.Context, requestID id.LeaveRequestID) error
	List(ctx context.Context, tenantID string) ([]LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID id.EmployeeID) ([]LeaveRequest, error)
}

// SubmitRequest validates the request, places a pending hold on the
// employee's balance for the start date's year, then persists the request.
// If persistence fails the hold is released again.
func (s *Service) SubmitRequest(ctx context.Context, tenantID string, in SubmitRequestInput, requestedBy string) (*LeaveRequest, error) {
	now := requestcontext.Now(ctx)
	req, err := NewLeaveRequest(id.LeaveRequestID(uuid.New()), tenantID, in, requestedBy, now)
	if err != nil {
		return nil, err
	}

	balance, err := s.GetOrCreateBalance(ctx, req.EmployeeID, req.StartDate.Year())
	if err != nil {
		return nil, err
	}
	if !balance.Eligibility.IsEligible {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "employee is not yet eligible for leave")
	}
	if err := balance.ApplyHold(req.Category, req.Days, now); err != nil {
		return nil, err
	}
	if err := s.balances.Save(ctx, balance); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vacation balance")
	}

	if err := s.requests.Create(ctx, req); err != nil {
		s.releaseHold(ctx, req, now)
		return nil, wrapRequestErr(err)
	}

	s.audit(ctx, audit.Input{
		Action:     "leave_requested",
		Resource:   "leave_request",
		ResourceID: req.ID.String(),
		UserID:     requestedBy,
		TenantID:   tenantID,
		Category:   audit.CategoryDataChange,
		Changes: audit.Changes{
			After: map[string]any{
				"employeeId": req.EmployeeID.String(),
				"category":   string(req.Category),
				"days":       req.Days,
			},
		},
	})
	return req, nil
}

func (s *Service) GetRequest(ctx context.Context, requestID id.LeaveRequestID) (*LeaveRequest, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err)
	}
	return req, nil
}

func (s *Service) ListRequests(ctx context.Context, tenantID string) ([]LeaveRequest, error) {
	requests, err := s.requests.List(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list leave requests")
	}
	return requests, nil
}

func (s *Service) ListRequestsByEmployee(ctx context.Context, employeeID id.EmployeeID) ([]LeaveRequest, error) {
	requests, err := s.requests.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list leave requests")
	}
	return requests, nil
}

// UpdateRequest edits a pending request: the old hold is released and a
// fresh one placed for the new window and category. If the new hold does
// not fit the balance, the old hold is restored and the edit rejected.
func (s *Service) UpdateRequest(ctx context.Context, requestID id.LeaveRequestID, in SubmitRequestInput, updatedBy string) (*LeaveRequest, error) {
	now := requestcontext.Now(ctx)
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err)
	}
	if err := req.CanEdit(); err != nil {
		return nil, err
	}
	if in.EmployeeID.IsNil() {
		in.EmployeeID = req.EmployeeID
	}
	if in.EmployeeID != req.EmployeeID {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a leave request cannot be moved to another employee")
	}
	edited, err := NewLeaveRequest(requestID, req.TenantID, in, req.RequestedBy, now)
	if err != nil {
		return nil, err
	}
	edited.CreatedAt = req.CreatedAt

	oldBalance, err := s.GetOrCreateBalance(ctx, req.EmployeeID, req.StartDate.Year())
	if err != nil {
		return nil, err
	}
	if err := oldBalance.ReleaseHold(req.Category, req.Days, now); err != nil {
		return nil, err
	}
	if err := s.balances.Save(ctx, oldBalance); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vacation balance")
	}

	newBalance, err := s.GetOrCreateBalance(ctx, edited.EmployeeID, edited.StartDate.Year())
	if err != nil {
		s.reholdRequest(ctx, req, now)
		return nil, err
	}
	if err := newBalance.ApplyHold(edited.Category, edited.Days, now); err != nil {
		s.reholdRequest(ctx, req, now)
		return nil, err
	}
	if err := s.balances.Save(ctx, newBalance); err != nil {
		s.reholdRequest(ctx, req, now)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vacation balance")
	}

	if err := s.requests.Update(ctx, edited); err != nil {
		return nil, wrapRequestErr(err)
	}

	s.audit(ctx, audit.Input{
		Action:     "leave_request_updated",
		Resource:   "leave_request",
		ResourceID: edited.ID.String(),
		UserID:     updatedBy,
		TenantID:   edited.TenantID,
		Category:   audit.CategoryDataChange,
		Changes: audit.Changes{
			Before: map[string]any{"category": string(req.Category), "days": req.Days},
			After:  map[string]any{"category": string(edited.Category), "days": edited.Days},
			Fields: []string{"category", "startDate", "endDate", "days"},
		},
	})
	return edited, nil
}

// ApproveRequest settles the pending hold into used days.
func (s *Service) ApproveRequest(ctx context.Context, requestID id.LeaveRequestID, decidedBy string) (*LeaveRequest, error) {
	return s.decideRequest(ctx, requestID, decidedBy, RequestApproved, "leave_approved",
		func(b *Balance, r *LeaveRequest, now time.Time) error {
			return b.SettleHold(r.Category, r.Days, now)
		})
}

// RejectRequest releases the pending hold back to the available pool.
func (s *Service) RejectRequest(ctx context.Context, requestID id.LeaveRequestID, decidedBy string) (*LeaveRequest, error) {
	return s.decideRequest(ctx, requestID, decidedBy, RequestRejected, "leave_rejected",
		func(b *Balance, r *LeaveRequest, now time.Time) error {
			return b.ReleaseHold(r.Category, r.Days, now)
		})
}

func (s *Service) decideRequest(ctx context.Context, requestID id.LeaveRequestID, decidedBy string, status RequestStatus, action string, settle func(*Balance, *LeaveRequest, time.Time) error) (*LeaveRequest, error) {
	now := requestcontext.Now(ctx)
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err)
	}
	if err := req.CanDecide(); err != nil {
		return nil, err
	}

	balance, err := s.GetOrCreateBalance(ctx, req.EmployeeID, req.StartDate.Year())
	if err != nil {
		return nil, err
	}
	if err := settle(balance, req, now); err != nil {
		return nil, err
	}
	if err := s.balances.Save(ctx, balance); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vacation balance")
	}

	req.ApplyDecision(status, decidedBy, now)
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, wrapRequestErr(err)
	}

	s.audit(ctx, audit.Input{
		Action:     action,
		Resource:   "leave_request",
		ResourceID: req.ID.String(),
		UserID:     decidedBy,
		TenantID:   req.TenantID,
		Category:   audit.CategoryDataChange,
		Changes: audit.Changes{
			Before: map[string]any{"status": string(RequestPending)},
			After:  map[string]any{"status": string(status)},
			Fields: []string{"status"},
		},
	})
	return req, nil
}

// DeleteRequest removes a request. Deleting a pending request releases its
// hold; approved requests are immutable history and cannot be deleted.
func (s *Service) DeleteRequest(ctx context.Context, requestID id.LeaveRequestID) error {
	now := requestcontext.Now(ctx)
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return wrapRequestErr(err)
	}
	if err := req.CanDelete(); err != nil {
		return err
	}
	if req.Status == RequestPending {
		s.releaseHold(ctx, req, now)
	}
	if err := s.requests.Delete(ctx, requestID); err != nil {
		return wrapRequestErr(err)
	}
	return nil
}

// releaseHold is the compensation path for a pending hold whose request no
// longer exists. Failure is logged; there is nothing further to unwind.
func (s *Service) releaseHold(ctx context.Context, req *LeaveRequest, now time.Time) {
	balance, err := s.balances.Get(ctx, req.EmployeeID, req.StartDate.Year())
	if err == nil {
		if relErr := balance.ReleaseHold(req.Category, req.Days, now); relErr == nil {
			err = s.balances.Save(ctx, balance)
		} else {
			err = relErr
		}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to release leave hold",
			"request_id", req.ID.String(),
			"employee_id", req.EmployeeID.String(),
			"error", err)
	}
}

// reholdRequest reinstates a hold that was released during a failed edit.
func (s *Service) reholdRequest(ctx context.Context, req *LeaveRequest, now time.Time) {
	balance, err := s.balances.Get(ctx, req.EmployeeID, req.StartDate.Year())
	if err == nil {
		if holdErr := balance.ApplyHold(req.Category, req.Days, now); holdErr == nil {
			err = s.balances.Save(ctx, balance)
		} else {
			err = holdErr
		}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to reinstate leave hold",
			"request_id", req.ID.String(),
			"employee_id", req.EmployeeID.String(),
			"error", err)
	}
}

func wrapRequestErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "leave request not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "leave request conflict")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "leave request store failure")
	}
}
