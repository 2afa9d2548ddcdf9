// Package resignation manages resigned-employee records: the resignation
// metadata, the penalty ledger attached to each record and the 24-hour
// edit lock that freezes both once the record ages out.
package resignation

import (
	"time"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

// Type is how the employment ended.
type Type string

const (
	TypeResignationLetter Type = "resignation-letter"
	TypeTermination       Type = "termination"
)

func (t Type) Valid() bool {
	return t == TypeResignationLetter || t == TypeTermination
}

// Status tracks offboarding progress.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusProcessed || s == StatusArchived
}

// LockWindow is how long after creation a record stays editable.
const LockWindow = 24 * time.Hour

// Penalty is one deduction charged against a resigned employee.
type Penalty struct {
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	AddedBy     string    `json:"addedBy"`
	AddedDate   time.Time `json:"addedDate"`
}

// Record is a resigned-employee record. One per employee.
//
// Invariants:
//   - TotalPenalties == sum of Penalties[].Amount, recomputed on every save
//   - IsLocked once CreatedAt is more than LockWindow in the past
//   - Locked records reject penalty and type mutations
type Record struct {
	EmployeeID      id.EmployeeID `json:"employeeId"`
	TenantID        string        `json:"tenantId"`
	ResignationType Type          `json:"resignationType"`
	ResignationDate time.Time     `json:"resignationDate"`
	LastWorkingDay  time.Time     `json:"lastWorkingDay"`
	Penalties       []Penalty     `json:"penalties"`
	TotalPenalties  float64       `json:"totalPenalties"`
	Status          Status        `json:"status"`
	IsLocked        bool          `json:"isLocked"`
	LockedDate      time.Time     `json:"lockedDate,omitzero"`
	CreatedBy       string        `json:"createdBy"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// NewRecord validates and builds a pending record, collecting every
// violation.
func NewRecord(employeeID id.EmployeeID, tenantID string, resignationType Type, resignationDate, lastWorkingDay time.Time, createdBy string, now time.Time) (*Record, error) {
	var violations []string
	if employeeID.IsNil() {
		violations = append(violations, "employeeId is required")
	}
	if !resignationType.Valid() {
		violations = append(violations, "resignationType must be resignation-letter or termination")
	}
	if resignationDate.IsZero() {
		violations = append(violations, "resignationDate is required")
	}
	if lastWorkingDay.IsZero() {
		violations = append(violations, "lastWorkingDay is required")
	} else if !resignationDate.IsZero() && lastWorkingDay.Before(resignationDate) {
		violations = append(violations, "lastWorkingDay must not precede resignationDate")
	}
	if len(violations) > 0 {
		return nil, dErrors.NewValidation("invalid resignation record", violations)
	}
	return &Record{
		EmployeeID:      employeeID,
		TenantID:        tenantID,
		ResignationType: resignationType,
		ResignationDate: resignationDate,
		LastWorkingDay:  lastWorkingDay,
		Penalties:       []Penalty{},
		Status:          StatusPending,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// EvaluateLock folds the age-based lock into the record. Called on every
// read and before every mutation so the lock needs no background job.
func (r *Record) EvaluateLock(now time.Time) {
	if r.IsLocked {
		return
	}
	if now.Sub(r.CreatedAt) > LockWindow {
		r.IsLocked = true
		r.LockedDate = r.CreatedAt.Add(LockWindow)
	}
}

// CanMutate rejects penalty and type changes on a locked record.
func (r *Record) CanMutate(now time.Time) error {
	r.EvaluateLock(now)
	if r.IsLocked {
		return dErrors.New(dErrors.CodeLocked,
			"resignation record is locked and can no longer be modified")
	}
	return nil
}

// RecomputeTotals re-derives TotalPenalties from the penalty list.
func (r *Record) RecomputeTotals() {
	var total float64
	for _, p := range r.Penalties {
		total += p.Amount
	}
	r.TotalPenalties = total
}

// ApplyAddPenalty appends a penalty and recomputes totals. Call CanMutate
// first.
func (r *Record) ApplyAddPenalty(p Penalty, now time.Time) error {
	var violations []string
	if p.Description == "" {
		violations = append(violations, "description is required")
	}
	if p.Amount <= 0 {
		violations = append(violations, "amount must be positive")
	}
	if len(violations) > 0 {
		return dErrors.NewValidation("invalid penalty", violations)
	}
	p.AddedDate = now
	r.Penalties = append(r.Penalties, p)
	r.RecomputeTotals()
	r.UpdatedAt = now
	return nil
}

// ApplyRemovePenalty removes the penalty at index and recomputes totals.
func (r *Record) ApplyRemovePenalty(index int, now time.Time) error {
	if index < 0 || index >= len(r.Penalties) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "no penalty at index %d", index)
	}
	r.Penalties = append(r.Penalties[:index], r.Penalties[index+1:]...)
	r.RecomputeTotals()
	r.UpdatedAt = now
	return nil
}

// ApplyTypeChange updates the resignation type. Call CanMutate first.
func (r *Record) ApplyTypeChange(t Type, now time.Time) error {
	if !t.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput,
			"resignationType must be resignation-letter or termination")
	}
	r.ResignationType = t
	r.UpdatedAt = now
	return nil
}

// ApplyStatusChange advances offboarding status. Status changes are not
// subject to the edit lock; processing continues after the record freezes.
func (r *Record) ApplyStatusChange(s Status, now time.Time) error {
	if !s.Valid() {
		return dErrors.New(dErrors.CodeInvalidInput,
			"status must be pending, processed or archived")
	}
	r.Status = s
	r.UpdatedAt = now
	return nil
}
