package employee_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/employee"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

var now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func TestNewEmployeeDefaults(t *testing.T) {
	e, err := employee.NewEmployee(id.EmployeeID(uuid.New()), "tenant-1",
		"Amira", "Hassan", "Amira.Hassan@Example.com", now.AddDate(-1, 0, 0),
		"", now)
	require.NoError(t, err)

	assert.Equal(t, employee.StatusActive, e.Status)
	assert.Equal(t, employee.RoleEmployee, e.Role)
	assert.Equal(t, "amira.hassan@example.com", e.Email, "email is normalized to lower case")
	assert.Equal(t, "Amira Hassan", e.FullName())
}

func TestNewEmployeeCollectsAllViolations(t *testing.T) {
	_, err := employee.NewEmployee(id.EmployeeID(uuid.New()), "tenant-1",
		"", "", "not-an-email", time.Time{}, "superuser", now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Len(t, dErrors.ViolationsOf(err), 5)
}

func TestPasswordRoundTrip(t *testing.T) {
	e, err := employee.NewEmployee(id.EmployeeID(uuid.New()), "tenant-1",
		"Amira", "Hassan", "amira@example.com", now.AddDate(-1, 0, 0),
		employee.RoleAdmin, now)
	require.NoError(t, err)

	require.NoError(t, e.SetPassword("Correct-Horse-9"))
	assert.NotEmpty(t, e.PasswordHash)
	assert.NotEqual(t, "Correct-Horse-9", e.PasswordHash)

	assert.True(t, e.CheckPassword("Correct-Horse-9"))
	assert.False(t, e.CheckPassword("wrong"))
}
