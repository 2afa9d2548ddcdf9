// Package org owns the organizational reference data employees hang off:
// departments, positions and school campuses.
package org

import (
	"strings"
	"time"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

// Department is a named org unit, unique by name within a tenant.
type Department struct {
	ID          id.DepartmentID `json:"id"`
	TenantID    string          `json:"tenantId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Position is a job title, optionally scoped to a department.
type Position struct {
	ID           id.PositionID   `json:"id"`
	TenantID     string          `json:"tenantId"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	DepartmentID id.DepartmentID `json:"departmentId,omitzero"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// School is a campus; holidays are recorded per campus.
type School struct {
	ID        id.SchoolID `json:"id"`
	TenantID  string      `json:"tenantId"`
	Name      string      `json:"name"`
	Address   string      `json:"address,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func requireName(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	return nil
}

func NewDepartment(departmentID id.DepartmentID, tenantID, name, description string, now time.Time) (*Department, error) {
	if err := requireName(name, "name"); err != nil {
		return nil, err
	}
	return &Department{
		ID:          departmentID,
		TenantID:    tenantID,
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func NewPosition(positionID id.PositionID, tenantID, title, description string, departmentID id.DepartmentID, now time.Time) (*Position, error) {
	if err := requireName(title, "title"); err != nil {
		return nil, err
	}
	return &Position{
		ID:           positionID,
		TenantID:     tenantID,
		Title:        strings.TrimSpace(title),
		Description:  description,
		DepartmentID: departmentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func NewSchool(schoolID id.SchoolID, tenantID, name, address string, now time.Time) (*School, error) {
	if err := requireName(name, "name"); err != nil {
		return nil, err
	}
	return &School{
		ID:        schoolID,
		TenantID:  tenantID,
		Name:      strings.TrimSpace(name),
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
