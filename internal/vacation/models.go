package vacation

import (
	"fmt"
	"time"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

// LeaveCategory is a tracked balance bucket.
type LeaveCategory string

const (
	CategoryAnnual LeaveCategory = "annual"
	CategoryCasual LeaveCategory = "casual"
	CategorySick   LeaveCategory = "sick"
)

// Default yearly allocations per category.
const (
	DefaultAnnualDays = 21
	DefaultCasualDays = 7
	DefaultSickDays   = 14
)

// ProbationMonths is how long a new hire waits before leave eligibility.
const ProbationMonths = 3

// CategoryBalance tracks one category's day counts for a year.
//
// Invariant: Available == Allocated - Used - Pending, always >= 0. The
// field is stored rather than derived so exports and the wire format carry
// it, but every mutation goes through recompute.
type CategoryBalance struct {
	Allocated   int `json:"allocated"`
	Used        int `json:"used"`
	Pending     int `json:"pending"`
	Available   int `json:"available"`
	CarriedOver int `json:"carriedOver"`
}

func (b *CategoryBalance) recompute() {
	b.Available = b.Allocated - b.Used - b.Pending
}

// Eligibility captures whether an employee may take leave at all.
type Eligibility struct {
	IsEligible    bool      `json:"isEligible"`
	EligibleFrom  time.Time `json:"eligibleFrom"`
	ProbationEnds time.Time `json:"probationEnds"`
	TenureMonths  int       `json:"tenure"`
}

// Balance is the per-(employee, year) leave balance record.
type Balance struct {
	EmployeeID  id.EmployeeID `json:"employee"`
	TenantID    string        `json:"tenantId"`
	Year        int           `json:"year"`
	Annual      CategoryBalance `json:"annual"`
	Casual      CategoryBalance `json:"casual"`
	Sick        CategoryBalance `json:"sick"`
	Eligibility Eligibility     `json:"eligibility"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewBalance builds the default balance for a year, carrying eligibility
// derived from the hire date as observed at now.
func NewBalance(employeeID id.EmployeeID, tenantID string, year int, hireDate, now time.Time) *Balance {
	b := &Balance{
		EmployeeID: employeeID,
		TenantID:   tenantID,
		Year:       year,
		Annual:     CategoryBalance{Allocated: DefaultAnnualDays},
		Casual:     CategoryBalance{Allocated: DefaultCasualDays},
		Sick:       CategoryBalance{Allocated: DefaultSickDays},
		UpdatedAt:  now,
	}
	b.Annual.recompute()
	b.Casual.recompute()
	b.Sick.recompute()
	b.RefreshEligibility(hireDate, now)
	return b
}

// RefreshEligibility recomputes the eligibility block from the hire date.
func (b *Balance) RefreshEligibility(hireDate, now time.Time) {
	probationEnds := hireDate.AddDate(0, ProbationMonths, 0)
	b.Eligibility = Eligibility{
		IsEligible:    !now.Before(probationEnds),
		EligibleFrom:  probationEnds,
		ProbationEnds: probationEnds,
		TenureMonths:  monthsBetween(hireDate, now),
	}
}

func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func (b *Balance) category(c LeaveCategory) (*CategoryBalance, error) {
	switch c {
	case CategoryAnnual:
		return &b.Annual, nil
	case CategoryCasual:
		return &b.Casual, nil
	case CategorySick:
		return &b.Sick, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown leave category %q", c)
	}
}

// Available returns the available days in a category.
func (b *Balance) Available(c LeaveCategory) (int, error) {
	cb, err := b.category(c)
	if err != nil {
		return 0, err
	}
	return cb.Available, nil
}

// CanDeduct checks a deduction without performing it.
func (b *Balance) CanDeduct(c LeaveCategory, days int) error {
	if days <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "deduction must be a positive number of days")
	}
	cb, err := b.category(c)
	if err != nil {
		return err
	}
	if cb.Available < days {
		return dErrors.Newf(dErrors.CodeInsufficientBalance,
			"insufficient %s balance: %d available, %d required", c, cb.Available, days)
	}
	return nil
}

// ApplyDeduction consumes days from a category. Call CanDeduct first; this
// re-checks and recomputes so the invariant can never go negative.
func (b *Balance) ApplyDeduction(c LeaveCategory, days int, now time.Time) error {
	if err := b.CanDeduct(c, days); err != nil {
		return err
	}
	cb, _ := b.category(c)
	cb.Used += days
	cb.recompute()
	b.UpdatedAt = now
	return nil
}

// ApplyHold reserves days as pending against a category. Pending days
// reduce Available but are not yet Used; a decision settles or releases
// them.
func (b *Balance) ApplyHold(c LeaveCategory, days int, now time.Time) error {
	if err := b.CanDeduct(c, days); err != nil {
		return err
	}
	cb, _ := b.category(c)
	cb.Pending += days
	cb.recompute()
	b.UpdatedAt = now
	return nil
}

// SettleHold converts pending days into used days on approval.
func (b *Balance) SettleHold(c LeaveCategory, days int, now time.Time) error {
	cb, err := b.heldCategory(c, days)
	if err != nil {
		return err
	}
	cb.Pending -= days
	cb.Used += days
	cb.recompute()
	b.UpdatedAt = now
	return nil
}

// ReleaseHold returns pending days to the available pool on rejection or
// withdrawal.
func (b *Balance) ReleaseHold(c LeaveCategory, days int, now time.Time) error {
	cb, err := b.heldCategory(c, days)
	if err != nil {
		return err
	}
	cb.Pending -= days
	cb.recompute()
	b.UpdatedAt = now
	return nil
}

func (b *Balance) heldCategory(c LeaveCategory, days int) (*CategoryBalance, error) {
	if days <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "hold must be a positive number of days")
	}
	cb, err := b.category(c)
	if err != nil {
		return nil, err
	}
	if cb.Pending < days {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"insufficient pending %s days: %d pending, %d required", c, cb.Pending, days)
	}
	return cb, nil
}

// ApplyRestore returns previously used days to a category.
func (b *Balance) ApplyRestore(c LeaveCategory, days int, now time.Time) error {
	if days <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "restore must be a positive number of days")
	}
	cb, err := b.category(c)
	if err != nil {
		return err
	}
	if cb.Used < days {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot restore %d days to %s: only %d used", days, c, cb.Used)
	}
	cb.Used -= days
	cb.recompute()
	b.UpdatedAt = now
	return nil
}

// PolicyStatus is a mixed-vacation policy lifecycle state.
type PolicyStatus string

const (
	PolicyDraft     PolicyStatus = "draft"
	PolicyActive    PolicyStatus = "active"
	PolicyCancelled PolicyStatus = "cancelled"
	PolicyExpired   PolicyStatus = "expired"
)

// Policy is a time-boxed mixed-vacation offer: the company grants
// TotalDays of leave against PersonalDaysRequired deducted from each
// participating employee's annual balance.
//
// Invariants:
//   - Status transitions: draft -> active -> {cancelled | expired}
//   - Only draft may be edited or activated
//   - Only active may be cancelled; active auto-expires past EndDate
type Policy struct {
	ID                   id.PolicyID  `json:"id"`
	TenantID             string       `json:"tenantId"`
	Name                 string       `json:"name"`
	StartDate            time.Time    `json:"startDate"`
	EndDate              time.Time    `json:"endDate"`
	TotalDays            int          `json:"totalDays"`
	PersonalDaysRequired int          `json:"personalDaysRequired"`
	Status               PolicyStatus `json:"status"`
	CreatedBy            string       `json:"createdBy"`
	CreatedAt            time.Time    `json:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt"`
}

// NewPolicy validates and builds a draft policy, collecting every
// violation rather than stopping at the first.
func NewPolicy(policyID id.PolicyID, tenantID, name string, start, end time.Time, totalDays, personalDaysRequired int, createdBy string, now time.Time) (*Policy, error) {
	var violations []string
	if name == "" {
		violations = append(violations, "name is required")
	}
	if start.IsZero() || end.IsZero() {
		violations = append(violations, "startDate and endDate are required")
	} else if !end.After(start) {
		violations = append(violations, "endDate must be after startDate")
	}
	if totalDays <= 0 {
		violations = append(violations, "totalDays must be positive")
	}
	if personalDaysRequired < 0 {
		violations = append(violations, "personalDaysRequired must not be negative")
	}
	if totalDays > 0 && personalDaysRequired > totalDays {
		violations = append(violations, "personalDaysRequired must not exceed totalDays")
	}
	if len(violations) > 0 {
		return nil, dErrors.NewValidation("invalid mixed vacation policy", violations)
	}
	return &Policy{
		ID:                   policyID,
		TenantID:             tenantID,
		Name:                 name,
		StartDate:            start,
		EndDate:              end,
		TotalDays:            totalDays,
		PersonalDaysRequired: personalDaysRequired,
		Status:               PolicyDraft,
		CreatedBy:            createdBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// EffectiveStatus folds auto-expiry into the stored status: an active
// policy past its end date reads as expired.
func (p *Policy) EffectiveStatus(now time.Time) PolicyStatus {
	if p.Status == PolicyActive && now.After(p.EndDate) {
		return PolicyExpired
	}
	return p.Status
}

// IsApplicable reports whether the policy can be applied at now.
func (p *Policy) IsApplicable(now time.Time) bool {
	return p.EffectiveStatus(now) == PolicyActive && !now.Before(p.StartDate)
}

func (p *Policy) CanActivate() error {
	if p.Status != PolicyDraft {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"only draft policies can be activated, current status is %s", p.Status)
	}
	return nil
}

func (p *Policy) ApplyActivation(now time.Time) {
	p.Status = PolicyActive
	p.UpdatedAt = now
}

func (p *Policy) CanCancel(now time.Time) error {
	if p.EffectiveStatus(now) != PolicyActive {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"only active policies can be cancelled, current status is %s", p.EffectiveStatus(now))
	}
	return nil
}

func (p *Policy) ApplyCancellation(now time.Time) {
	p.Status = PolicyCancelled
	p.UpdatedAt = now
}

func (p *Policy) CanEdit() error {
	if p.Status != PolicyDraft {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"only draft policies can be edited, current status is %s", p.Status)
	}
	return nil
}

func (p *Policy) CanDelete() error {
	if p.Status != PolicyDraft && p.Status != PolicyCancelled {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"only draft or cancelled policies can be deleted, current status is %s", p.Status)
	}
	return nil
}

// Application records one policy applied to one employee. One record per
// (policy, employee); duplicates conflict.
type Application struct {
	PolicyID     id.PolicyID   `json:"policyId"`
	EmployeeID   id.EmployeeID `json:"employeeId"`
	AppliedBy    string        `json:"appliedBy"`
	DaysDeducted int           `json:"daysDeducted"`
	AppliedAt    time.Time     `json:"appliedAt"`
}

func (a Application) Key() string {
	return fmt.Sprintf("%s/%s", a.PolicyID, a.EmployeeID)
}
