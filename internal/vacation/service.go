package vacation

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"peopleops/internal/audit"
	"peopleops/internal/platform/metrics"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/platform/sentinel"
	"peopleops/pkg/requestcontext"
)

// applyToAllConcurrency bounds the per-employee fan-out of ApplyToAll.
const applyToAllConcurrency = 8

// DirectoryEmployee is the read model the engine consumes from the
// employee directory.
type DirectoryEmployee struct {
	ID       id.EmployeeID
	TenantID string
	HireDate time.Time
	Active   bool
}

// Directory resolves employees; the employee package provides the adapter.
type Directory interface {
	Get(ctx context.Context, employeeID id.EmployeeID) (*DirectoryEmployee, error)
	ListActive(ctx context.Context, tenantID string) ([]DirectoryEmployee, error)
}

// Auditor is the slice of the audit ledger the engine emits into.
type Auditor interface {
	Append(ctx context.Context, in audit.Input) (*audit.Entry, error)
	RecordDiscrepancy(ctx context.Context, in audit.Input, cause error)
}

type BalanceStore interface {
	Get(ctx context.Context, employeeID id.EmployeeID, year int) (*Balance, error)
	Save(ctx context.Context, balance *Balance) error
	ListByTenantYear(ctx context.Context, tenantID string, year int) ([]Balance, error)
}

type PolicyStore interface {
	Create(ctx context.Context, policy *Policy) error
	FindByID(ctx context.Context, policyID id.PolicyID) (*Policy, error)
	Update(ctx context.Context, policy *Policy) error
	Delete(ctx context.Context, policyID id.PolicyID) error
	List(ctx context.Context, tenantID string) ([]Policy, error)
	FindActive(ctx context.Context, tenantID string, now time.Time) ([]Policy, error)
	// Execute atomically validates then mutates a policy under the store's
	// lock (mutex or FOR UPDATE).
	Execute(ctx context.Context, policyID id.PolicyID, validate func(*Policy) error, mutate func(*Policy)) (*Policy, error)
}

type ApplicationStore interface {
	Record(ctx context.Context, app *Application) error
	Exists(ctx context.Context, policyID id.PolicyID, employeeID id.EmployeeID) (bool, error)
	ListByPolicy(ctx context.Context, policyID id.PolicyID) ([]Application, error)
}

// Service is the policy/balance engine: it owns vacation balances, leave
// requests, the mixed-vacation policy lifecycle and policy application.
type Service struct {
	balances     BalanceStore
	policies     PolicyStore
	applications ApplicationStore
	requests     RequestStore
	directory    Directory
	auditor      Auditor
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(balances BalanceStore, policies PolicyStore, applications ApplicationStore, requests RequestStore, directory Directory, opts ...Option) *Service {
	s := &Service{
		balances:     balances,
		policies:     policies,
		applications: applications,
		requests:     requests,
		directory:    directory,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------------------------------------------------------------------------
// Balances
// ---------------------------------------------------------------------------

// GetOrCreateBalance returns the (employee, year) balance, creating the
// default one on first access. Eligibility is refreshed on every read so
// probation expiry is observed without a background job.
func (s *Service) GetOrCreateBalance(ctx context.Context, employeeID id.EmployeeID, year int) (*Balance, error) {
	now := requestcontext.Now(ctx)
	emp, err := s.directory.Get(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve employee")
	}

	balance, err := s.balances.Get(ctx, employeeID, year)
	if errors.Is(err, sentinel.ErrNotFound) {
		balance = NewBalance(employeeID, emp.TenantID, year, emp.HireDate, now)
		if err := s.balances.Save(ctx, balance); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create vacation balance")
		}
		return balance, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vacation balance")
	}
	balance.RefreshEligibility(emp.HireDate, now)
	return balance, nil
}

// ListBalances returns all balances for a tenant and year.
func (s *Service) ListBalances(ctx context.Context, tenantID string, year int) ([]Balance, error) {
	balances, err := s.balances.ListByTenantYear(ctx, tenantID, year)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list vacation balances")
	}
	return balances, nil
}

// ---------------------------------------------------------------------------
// Policy lifecycle
// ---------------------------------------------------------------------------

// CreatePolicyInput carries the request to create a draft policy.
type CreatePolicyInput struct {
	Name                 string
	StartDate            time.Time
	EndDate              time.Time
	TotalDays            int
	PersonalDaysRequired int
}

func (s *Service) CreatePolicy(ctx context.Context, tenantID string, in CreatePolicyInput, createdBy string) (*Policy, error) {
	now := requestcontext.Now(ctx)
	policy, err := NewPolicy(id.PolicyID(uuid.New()), tenantID, in.Name,
		in.StartDate, in.EndDate, in.TotalDays, in.PersonalDaysRequired, createdBy, now)
	if err != nil {
		return nil, err
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "policy already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create policy")
	}
	s.audit(ctx, audit.Input{
		Action:     "policy_created",
		Resource:   "mixed_vacation_policy",
		ResourceID: policy.ID.String(),
		UserID:     createdBy,
		TenantID:   tenantID,
		Category:   audit.CategoryConfiguration,
		Changes: audit.Changes{
			After: map[string]any{
				"name":                 policy.Name,
				"totalDays":            policy.TotalDays,
				"personalDaysRequired": policy.PersonalDaysRequired,
			},
		},
	})
	return policy, nil
}

func (s *Service) GetPolicy(ctx context.Context, policyID id.PolicyID) (*Policy, error) {
	policy, err := s.policies.FindByID(ctx, policyID)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}
	return policy, nil
}

func (s *Service) ListPolicies(ctx context.Context, tenantID string) ([]Policy, error) {
	policies, err := s.policies.List(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policies")
	}
	return policies, nil
}

// FindActivePolicies returns policies with status active whose window
// covers now.
func (s *Service) FindActivePolicies(ctx context.Context, tenantID string) ([]Policy, error) {
	policies, err := s.policies.FindActive(ctx, tenantID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query active policies")
	}
	return policies, nil
}

// UpdatePolicy edits a draft policy. Non-draft policies reject edits.
func (s *Service) UpdatePolicy(ctx context.Context, policyID id.PolicyID, in CreatePolicyInput, updatedBy string) (*Policy, error) {
	now := requestcontext.Now(ctx)
	// Re-run construction validation on the new values first.
	if _, err := NewPolicy(policyID, "validate", in.Name, in.StartDate, in.EndDate,
		in.TotalDays, in.PersonalDaysRequired, updatedBy, now); err != nil {
		return nil, err
	}
	policy, err := s.policies.Execute(ctx, policyID,
		func(p *Policy) error { return p.CanEdit() },
		func(p *Policy) {
			p.Name = in.Name
			p.StartDate = in.StartDate
			p.EndDate = in.EndDate
			p.TotalDays = in.TotalDays
			p.PersonalDaysRequired = in.PersonalDaysRequired
			p.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}
	return policy, nil
}

func (s *Service) DeletePolicy(ctx context.Context, policyID id.PolicyID) error {
	policy, err := s.policies.FindByID(ctx, policyID)
	if err != nil {
		return wrapPolicyErr(err)
	}
	if err := policy.CanDelete(); err != nil {
		return err
	}
	if err := s.policies.Delete(ctx, policyID); err != nil {
		return wrapPolicyErr(err)
	}
	return nil
}

// ActivatePolicy transitions draft -> active.
func (s *Service) ActivatePolicy(ctx context.Context, policyID id.PolicyID, activatedBy string) (*Policy, error) {
	now := requestcontext.Now(ctx)
	policy, err := s.policies.Execute(ctx, policyID,
		func(p *Policy) error { return p.CanActivate() },
		func(p *Policy) { p.ApplyActivation(now) },
	)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}
	s.audit(ctx, audit.Input{
		Action:     "policy_activated",
		Resource:   "mixed_vacation_policy",
		ResourceID: policy.ID.String(),
		UserID:     activatedBy,
		TenantID:   policy.TenantID,
		Category:   audit.CategoryConfiguration,
		Changes: audit.Changes{
			Before: map[string]any{"status": string(PolicyDraft)},
			After:  map[string]any{"status": string(PolicyActive)},
			Fields: []string{"status"},
		},
	})
	return policy, nil
}

// CancelPolicy transitions active -> cancelled.
func (s *Service) CancelPolicy(ctx context.Context, policyID id.PolicyID, cancelledBy string) (*Policy, error) {
	now := requestcontext.Now(ctx)
	policy, err := s.policies.Execute(ctx, policyID,
		func(p *Policy) error { return p.CanCancel(now) },
		func(p *Policy) { p.ApplyCancellation(now) },
	)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}
	s.audit(ctx, audit.Input{
		Action:     "policy_cancelled",
		Resource:   "mixed_vacation_policy",
		ResourceID: policy.ID.String(),
		UserID:     cancelledBy,
		TenantID:   policy.TenantID,
		Category:   audit.CategoryConfiguration,
		Changes: audit.Changes{
			Before: map[string]any{"status": string(PolicyActive)},
			After:  map[string]any{"status": string(PolicyCancelled)},
			Fields: []string{"status"},
		},
	})
	return policy, nil
}

// ---------------------------------------------------------------------------
// Policy application
// ---------------------------------------------------------------------------

// ApplyResult reports one successful application.
type ApplyResult struct {
	EmployeeID      string `json:"employeeId"`
	DaysDeducted    int    `json:"daysDeducted"`
	RemainingAnnual int    `json:"remainingAnnual"`
}

// ApplyFailure reports one per-employee failure in a batch.
type ApplyFailure struct {
	EmployeeID string `json:"employeeId"`
	Reason     string `json:"reason"`
}

// ApplyReport is the partial-failure outcome of ApplyToAll.
type ApplyReport struct {
	Applied []ApplyResult  `json:"applied"`
	Failed  []ApplyFailure `json:"failed"`
}

// ApplyToEmployee deducts the policy's personal days from the employee's
// annual balance for the current year and records the application. The
// deduction and the audit append are treated as one logical unit: if the
// append fails after the deduction landed, the discrepancy is recorded
// rather than the deduction unwound.
func (s *Service) ApplyToEmployee(ctx context.Context, policyID id.PolicyID, employeeID id.EmployeeID, appliedBy string) (*ApplyResult, error) {
	result, err := s.apply(ctx, policyID, employeeID, appliedBy, false)
	if err != nil {
		if s.metrics != nil {
			s.metrics.PolicyApplyFailures.Inc()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PoliciesApplied.Inc()
	}
	return result, nil
}

// TestPolicyOnEmployee dry-runs an application: same checks, no mutation.
func (s *Service) TestPolicyOnEmployee(ctx context.Context, policyID id.PolicyID, employeeID id.EmployeeID) (*ApplyResult, error) {
	return s.apply(ctx, policyID, employeeID, "", true)
}

func (s *Service) apply(ctx context.Context, policyID id.PolicyID, employeeID id.EmployeeID, appliedBy string, dryRun bool) (*ApplyResult, error) {
	now := requestcontext.Now(ctx)

	policy, err := s.policies.FindByID(ctx, policyID)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}
	if status := policy.EffectiveStatus(now); status != PolicyActive {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"policy is not active, current status is %s", status)
	}
	if now.Before(policy.StartDate) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "policy window has not started")
	}

	if _, err := s.directory.Get(ctx, employeeID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "employee not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve employee")
	}

	applied, err := s.applications.Exists(ctx, policyID, employeeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check policy application")
	}
	if applied {
		return nil, dErrors.New(dErrors.CodeConflict, "policy already applied to this employee")
	}

	balance, err := s.GetOrCreateBalance(ctx, employeeID, now.Year())
	if err != nil {
		return nil, err
	}
	if !balance.Eligibility.IsEligible {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "employee is not yet eligible for leave")
	}
	if err := balance.CanDeduct(CategoryAnnual, policy.PersonalDaysRequired); err != nil {
		return nil, err
	}

	if dryRun {
		return &ApplyResult{
			EmployeeID:      employeeID.String(),
			DaysDeducted:    policy.PersonalDaysRequired,
			RemainingAnnual: balance.Annual.Available - policy.PersonalDaysRequired,
		}, nil
	}

	if err := balance.ApplyDeduction(CategoryAnnual, policy.PersonalDaysRequired, now); err != nil {
		return nil, err
	}
	if err := s.balances.Save(ctx, balance); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vacation balance")
	}

	app := &Application{
		PolicyID:     policyID,
		EmployeeID:   employeeID,
		AppliedBy:    appliedBy,
		DaysDeducted: policy.PersonalDaysRequired,
		AppliedAt:    now,
	}
	if err := s.applications.Record(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Concurrent duplicate slipped past the Exists check; restore
			// the deduction and report the conflict.
			if restoreErr := balance.ApplyRestore(CategoryAnnual, policy.PersonalDaysRequired, now); restoreErr == nil {
				if saveErr := s.balances.Save(ctx, balance); saveErr != nil {
					s.logger.ErrorContext(ctx, "failed to restore balance after duplicate application",
						"employee_id", employeeID.String(), "error", saveErr)
				}
			}
			return nil, dErrors.New(dErrors.CodeConflict, "policy already applied to this employee")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record policy application")
	}

	s.auditApplication(ctx, policy, employeeID, appliedBy, balance)

	return &ApplyResult{
		EmployeeID:      employeeID.String(),
		DaysDeducted:    policy.PersonalDaysRequired,
		RemainingAnnual: balance.Annual.Available,
	}, nil
}

func (s *Service) auditApplication(ctx context.Context, policy *Policy, employeeID id.EmployeeID, appliedBy string, balance *Balance) {
	if s.auditor == nil {
		return
	}
	in := audit.Input{
		Action:        "policy_applied",
		Resource:      "vacation_balance",
		ResourceID:    employeeID.String(),
		UserID:        appliedBy,
		TenantID:      policy.TenantID,
		Category:      audit.CategoryDataChange,
		CorrelationID: requestcontext.RequestID(ctx),
		Changes: audit.Changes{
			Before: map[string]any{"annualAvailable": balance.Annual.Available + policy.PersonalDaysRequired},
			After:  map[string]any{"annualAvailable": balance.Annual.Available},
			Fields: []string{"annual.available", "annual.used"},
		},
	}
	if in.CorrelationID == "" {
		in.CorrelationID = uuid.New().String()
	}
	if _, err := s.auditor.Append(ctx, in); err != nil {
		// Balance deduction already landed; record the discrepancy instead
		// of dropping it (no cross-document transaction to roll back).
		s.auditor.RecordDiscrepancy(ctx, in, err)
	}
}

// ApplyToAll applies the policy to every eligible active employee of its
// tenant, collecting per-employee failures without aborting the batch.
func (s *Service) ApplyToAll(ctx context.Context, policyID id.PolicyID, appliedBy string) (*ApplyReport, error) {
	policy, err := s.policies.FindByID(ctx, policyID)
	if err != nil {
		return nil, wrapPolicyErr(err)
	}
	if status := policy.EffectiveStatus(requestcontext.Now(ctx)); status != PolicyActive {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"policy is not active, current status is %s", status)
	}

	employees, err := s.directory.ListActive(ctx, policy.TenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list employees")
	}

	report := &ApplyReport{Applied: []ApplyResult{}, Failed: []ApplyFailure{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(applyToAllConcurrency)
	for _, emp := range employees {
		g.Go(func() error {
			result, err := s.ApplyToEmployee(gctx, policyID, emp.ID, appliedBy)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed = append(report.Failed, ApplyFailure{
					EmployeeID: emp.ID.String(),
					Reason:     err.Error(),
				})
				// Per-employee failures never abort the batch.
				return nil
			}
			report.Applied = append(report.Applied, *result)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "policy batch application failed")
	}

	sort.Slice(report.Applied, func(i, j int) bool { return report.Applied[i].EmployeeID < report.Applied[j].EmployeeID })
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].EmployeeID < report.Failed[j].EmployeeID })
	return report, nil
}

// ListApplications returns the application trail for a policy.
func (s *Service) ListApplications(ctx context.Context, policyID id.PolicyID) ([]Application, error) {
	apps, err := s.applications.ListByPolicy(ctx, policyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policy applications")
	}
	return apps, nil
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

func wrapPolicyErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "policy not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "policy conflict")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "policy store failure")
	}
}
