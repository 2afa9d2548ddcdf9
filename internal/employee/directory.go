package employee

import (
	"context"

	"peopleops/internal/vacation"
	id "peopleops/pkg/domain"
)

// Directory adapts the employee store to the read-only view the vacation
// engine consumes.
type Directory struct {
	store Store
}

func NewDirectory(store Store) *Directory {
	return &Directory{store: store}
}

func (d *Directory) Get(ctx context.Context, employeeID id.EmployeeID) (*vacation.DirectoryEmployee, error) {
	e, err := d.store.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	de := toDirectory(e)
	return &de, nil
}

func (d *Directory) ListActive(ctx context.Context, tenantID string) ([]vacation.DirectoryEmployee, error) {
	employees, err := d.store.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]vacation.DirectoryEmployee, 0, len(employees))
	for i := range employees {
		out = append(out, toDirectory(&employees[i]))
	}
	return out, nil
}

func toDirectory(e *Employee) vacation.DirectoryEmployee {
	return vacation.DirectoryEmployee{
		ID:       e.ID,
		TenantID: e.TenantID,
		HireDate: e.HireDate,
		Active:   e.Status == StatusActive,
	}
}
