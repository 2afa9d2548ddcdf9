package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"peopleops/internal/employee"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Postgres stores employees with a unique (tenant_id, email) index.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const employeeColumns = `
	id, tenant_id, first_name, last_name, email, department_id, position_id,
	school_id, hire_date, status, role, password_hash, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, e *employee.Employee) error {
	query := `INSERT INTO employees (` + employeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(e.ID), e.TenantID, e.FirstName, e.LastName, e.Email,
		nullUUID(uuid.UUID(e.DepartmentID)), nullUUID(uuid.UUID(e.PositionID)),
		nullUUID(uuid.UUID(e.SchoolID)), e.HireDate, string(e.Status),
		string(e.Role), e.PasswordHash, e.CreatedAt, e.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

func nullUUID(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}

func scanEmployee(row interface{ Scan(...any) error }) (*employee.Employee, error) {
	var (
		e                  employee.Employee
		eid                uuid.UUID
		deptID, posID, sID uuid.NullUUID
		status, role       string
	)
	err := row.Scan(&eid, &e.TenantID, &e.FirstName, &e.LastName, &e.Email,
		&deptID, &posID, &sID, &e.HireDate, &status, &role,
		&e.PasswordHash, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.ID = id.EmployeeID(eid)
	e.DepartmentID = id.DepartmentID(deptID.UUID)
	e.PositionID = id.PositionID(posID.UUID)
	e.SchoolID = id.SchoolID(sID.UUID)
	e.Status = employee.Status(status)
	e.Role = employee.Role(role)
	return &e, nil
}

func (s *Postgres) Get(ctx context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	e, err := scanEmployee(s.db.QueryRowContext(ctx, query, uuid.UUID(employeeID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query employee: %w", err)
	}
	return e, nil
}

func (s *Postgres) FindByEmail(ctx context.Context, tenantID, email string) (*employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE tenant_id = $1 AND lower(email) = lower($2)`
	e, err := scanEmployee(s.db.QueryRowContext(ctx, query, tenantID, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query employee by email: %w", err)
	}
	return e, nil
}

func (s *Postgres) Update(ctx context.Context, e *employee.Employee) error {
	query := `
		UPDATE employees
		SET first_name = $2, last_name = $3, email = $4, department_id = $5,
		    position_id = $6, school_id = $7, hire_date = $8, status = $9,
		    role = $10, password_hash = $11, updated_at = $12
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(e.ID), e.FirstName, e.LastName, e.Email,
		nullUUID(uuid.UUID(e.DepartmentID)), nullUUID(uuid.UUID(e.PositionID)),
		nullUUID(uuid.UUID(e.SchoolID)), e.HireDate, string(e.Status),
		string(e.Role), e.PasswordHash, e.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, employeeID id.EmployeeID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, uuid.UUID(employeeID))
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, tenantID string) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE tenant_id = $1 ORDER BY email`
	return s.query(ctx, query, tenantID)
}

func (s *Postgres) ListActive(ctx context.Context, tenantID string) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employees WHERE tenant_id = $1 AND status = 'active' ORDER BY email`
	return s.query(ctx, query, tenantID)
}

func (s *Postgres) query(ctx context.Context, query string, args ...any) ([]employee.Employee, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()
	var out []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
