// Package employee owns employee records and the user-account credential
// attached to each.
package employee

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

// Status is the employment state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusResigned Status = "resigned"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive || s == StatusResigned
}

// Role gates the administrative surfaces.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleEmployee
}

// Employee is an employee record with its user account.
type Employee struct {
	ID           id.EmployeeID   `json:"id"`
	TenantID     string          `json:"tenantId"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Email        string          `json:"email"`
	DepartmentID id.DepartmentID `json:"departmentId,omitzero"`
	PositionID   id.PositionID   `json:"positionId,omitzero"`
	SchoolID     id.SchoolID     `json:"schoolId,omitzero"`
	HireDate     time.Time       `json:"hireDate"`
	Status       Status          `json:"status"`
	Role         Role            `json:"role"`
	PasswordHash string          `json:"-"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Detail is an employee with its org references resolved, the read model
// list and get endpoints return.
type Detail struct {
	Employee
	DepartmentName string `json:"departmentName,omitempty"`
	PositionTitle  string `json:"positionTitle,omitempty"`
	SchoolName     string `json:"schoolName,omitempty"`
}

// NewEmployee validates and builds an active employee, collecting every
// violation.
func NewEmployee(employeeID id.EmployeeID, tenantID, firstName, lastName, email string, hireDate time.Time, role Role, now time.Time) (*Employee, error) {
	var violations []string
	if strings.TrimSpace(firstName) == "" {
		violations = append(violations, "firstName is required")
	}
	if strings.TrimSpace(lastName) == "" {
		violations = append(violations, "lastName is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		violations = append(violations, "a valid email is required")
	}
	if hireDate.IsZero() {
		violations = append(violations, "hireDate is required")
	}
	if role == "" {
		role = RoleEmployee
	}
	if !role.Valid() {
		violations = append(violations, "role must be admin, manager or employee")
	}
	if len(violations) > 0 {
		return nil, dErrors.NewValidation("invalid employee", violations)
	}
	return &Employee{
		ID:        employeeID,
		TenantID:  tenantID,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		HireDate:  hireDate,
		Status:    StatusActive,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetPassword hashes and stores the credential.
func (e *Employee) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	e.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares a candidate against the stored hash.
func (e *Employee) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(plaintext)) == nil
}

// FullName joins the name parts for display.
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}
