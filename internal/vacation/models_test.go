package vacation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/vacation"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

var (
	now      = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	tenured  = now.AddDate(-1, 0, 0)
	recently = now.AddDate(0, -1, 0)
)

func TestNewBalanceDefaults(t *testing.T) {
	b := vacation.NewBalance(id.EmployeeID(uuid.New()), "tenant-1", 2026, tenured, now)

	assert.Equal(t, vacation.DefaultAnnualDays, b.Annual.Allocated)
	assert.Equal(t, vacation.DefaultCasualDays, b.Casual.Allocated)
	assert.Equal(t, vacation.DefaultSickDays, b.Sick.Allocated)
	assert.Equal(t, vacation.DefaultAnnualDays, b.Annual.Available)
	assert.True(t, b.Eligibility.IsEligible)
}

func TestEligibilityDuringProbation(t *testing.T) {
	b := vacation.NewBalance(id.EmployeeID(uuid.New()), "tenant-1", 2026, recently, now)

	assert.False(t, b.Eligibility.IsEligible)
	assert.Equal(t, recently.AddDate(0, vacation.ProbationMonths, 0), b.Eligibility.ProbationEnds)

	b.RefreshEligibility(recently, now.AddDate(0, vacation.ProbationMonths, 0))
	assert.True(t, b.Eligibility.IsEligible)
}

func TestDeductionKeepsInvariant(t *testing.T) {
	b := vacation.NewBalance(id.EmployeeID(uuid.New()), "tenant-1", 2026, tenured, now)

	require.NoError(t, b.ApplyDeduction(vacation.CategoryAnnual, 5, now))
	assert.Equal(t, 5, b.Annual.Used)
	assert.Equal(t, vacation.DefaultAnnualDays-5, b.Annual.Available)

	err := b.ApplyDeduction(vacation.CategoryAnnual, vacation.DefaultAnnualDays, now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
	assert.Equal(t, vacation.DefaultAnnualDays-5, b.Annual.Available)
}

func TestDeductionRejectsNonPositiveDays(t *testing.T) {
	b := vacation.NewBalance(id.EmployeeID(uuid.New()), "tenant-1", 2026, tenured, now)

	for _, days := range []int{0, -3} {
		err := b.ApplyDeduction(vacation.CategoryAnnual, days, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestRestoreCapsAtUsed(t *testing.T) {
	b := vacation.NewBalance(id.EmployeeID(uuid.New()), "tenant-1", 2026, tenured, now)
	require.NoError(t, b.ApplyDeduction(vacation.CategoryCasual, 3, now))

	require.NoError(t, b.ApplyRestore(vacation.CategoryCasual, 2, now))
	assert.Equal(t, 1, b.Casual.Used)

	err := b.ApplyRestore(vacation.CategoryCasual, 5, now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestNewPolicyCollectsViolations(t *testing.T) {
	_, err := vacation.NewPolicy(id.PolicyID(uuid.New()), "tenant-1", "",
		time.Time{}, time.Time{}, 0, -1, "admin-1", now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Len(t, dErrors.ViolationsOf(err), 4)
}

func TestNewPolicyRejectsInvertedWindow(t *testing.T) {
	_, err := vacation.NewPolicy(id.PolicyID(uuid.New()), "tenant-1", "summer",
		now.AddDate(0, 1, 0), now, 10, 3, "admin-1", now)
	require.Error(t, err)
	assert.Contains(t, dErrors.ViolationsOf(err), "endDate must be after startDate")
}

func TestPolicyLifecycle(t *testing.T) {
	p, err := vacation.NewPolicy(id.PolicyID(uuid.New()), "tenant-1", "summer",
		now, now.AddDate(0, 2, 0), 10, 3, "admin-1", now)
	require.NoError(t, err)
	assert.Equal(t, vacation.PolicyDraft, p.Status)

	require.NoError(t, p.CanActivate())
	p.ApplyActivation(now)
	assert.Equal(t, vacation.PolicyActive, p.Status)

	err = p.CanActivate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	require.Error(t, p.CanEdit())

	require.NoError(t, p.CanCancel(now))
	p.ApplyCancellation(now)
	assert.Equal(t, vacation.PolicyCancelled, p.Status)
	require.Error(t, p.CanCancel(now))
	require.NoError(t, p.CanDelete())
}

func TestPolicyAutoExpiry(t *testing.T) {
	p, err := vacation.NewPolicy(id.PolicyID(uuid.New()), "tenant-1", "summer",
		now, now.AddDate(0, 1, 0), 10, 3, "admin-1", now)
	require.NoError(t, err)
	p.ApplyActivation(now)

	past := now.AddDate(0, 2, 0)
	assert.Equal(t, vacation.PolicyExpired, p.EffectiveStatus(past))
	assert.Equal(t, vacation.PolicyActive, p.Status)
	assert.False(t, p.IsApplicable(past))

	err = p.CanCancel(past)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestPolicyNotApplicableBeforeStart(t *testing.T) {
	p, err := vacation.NewPolicy(id.PolicyID(uuid.New()), "tenant-1", "winter",
		now.AddDate(0, 1, 0), now.AddDate(0, 2, 0), 10, 3, "admin-1", now)
	require.NoError(t, err)
	p.ApplyActivation(now)

	assert.False(t, p.IsApplicable(now))
	assert.True(t, p.IsApplicable(now.AddDate(0, 1, 1)))
}
