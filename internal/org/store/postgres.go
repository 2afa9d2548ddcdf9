package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"peopleops/internal/org"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Postgres stores org reference data. Each table carries a unique
// (tenant_id, lower(name)) index so duplicate names surface as conflicts.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateDepartment(ctx context.Context, d *org.Department) error {
	query := `INSERT INTO departments (id, tenant_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(d.ID), d.TenantID, d.Name, d.Description, d.CreatedAt, d.UpdatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

func (s *Postgres) GetDepartment(ctx context.Context, departmentID id.DepartmentID) (*org.Department, error) {
	query := `SELECT id, tenant_id, name, description, created_at, updated_at
		FROM departments WHERE id = $1`
	var (
		d   org.Department
		did uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(departmentID)).
		Scan(&did, &d.TenantID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query department: %w", err)
	}
	d.ID = id.DepartmentID(did)
	return &d, nil
}

func (s *Postgres) UpdateDepartment(ctx context.Context, d *org.Department) error {
	query := `UPDATE departments SET name = $2, description = $3, updated_at = $4 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(d.ID), d.Name, d.Description, d.UpdatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) DeleteDepartment(ctx context.Context, departmentID id.DepartmentID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, uuid.UUID(departmentID))
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListDepartments(ctx context.Context, tenantID string) ([]org.Department, error) {
	query := `SELECT id, tenant_id, name, description, created_at, updated_at
		FROM departments WHERE tenant_id = $1 ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var out []org.Department
	for rows.Next() {
		var (
			d   org.Department
			did uuid.UUID
		)
		if err := rows.Scan(&did, &d.TenantID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		d.ID = id.DepartmentID(did)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Postgres) CreatePosition(ctx context.Context, p *org.Position) error {
	query := `INSERT INTO positions (id, tenant_id, title, description, department_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID), p.TenantID, p.Title, p.Description,
		nullUUID(uuid.UUID(p.DepartmentID)), p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

func (s *Postgres) GetPosition(ctx context.Context, positionID id.PositionID) (*org.Position, error) {
	query := `SELECT id, tenant_id, title, description, department_id, created_at, updated_at
		FROM positions WHERE id = $1`
	var (
		p      org.Position
		pid    uuid.UUID
		deptID uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(positionID)).
		Scan(&pid, &p.TenantID, &p.Title, &p.Description, &deptID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query position: %w", err)
	}
	p.ID = id.PositionID(pid)
	p.DepartmentID = id.DepartmentID(deptID.UUID)
	return &p, nil
}

func (s *Postgres) UpdatePosition(ctx context.Context, p *org.Position) error {
	query := `UPDATE positions SET title = $2, description = $3, department_id = $4, updated_at = $5
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(p.ID), p.Title, p.Description,
		nullUUID(uuid.UUID(p.DepartmentID)), p.UpdatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) DeletePosition(ctx context.Context, positionID id.PositionID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE id = $1`, uuid.UUID(positionID))
	if err != nil {
		return fmt.Errorf("delete position: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListPositions(ctx context.Context, tenantID string) ([]org.Position, error) {
	query := `SELECT id, tenant_id, title, description, department_id, created_at, updated_at
		FROM positions WHERE tenant_id = $1 ORDER BY title`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var out []org.Position
	for rows.Next() {
		var (
			p      org.Position
			pid    uuid.UUID
			deptID uuid.NullUUID
		)
		if err := rows.Scan(&pid, &p.TenantID, &p.Title, &p.Description, &deptID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		p.ID = id.PositionID(pid)
		p.DepartmentID = id.DepartmentID(deptID.UUID)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateSchool(ctx context.Context, sc *org.School) error {
	query := `INSERT INTO schools (id, tenant_id, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(sc.ID), sc.TenantID, sc.Name, sc.Address, sc.CreatedAt, sc.UpdatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert school: %w", err)
	}
	return nil
}

func (s *Postgres) GetSchool(ctx context.Context, schoolID id.SchoolID) (*org.School, error) {
	query := `SELECT id, tenant_id, name, address, created_at, updated_at
		FROM schools WHERE id = $1`
	var (
		sc  org.School
		sid uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(schoolID)).
		Scan(&sid, &sc.TenantID, &sc.Name, &sc.Address, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query school: %w", err)
	}
	sc.ID = id.SchoolID(sid)
	return &sc, nil
}

func (s *Postgres) UpdateSchool(ctx context.Context, sc *org.School) error {
	query := `UPDATE schools SET name = $2, address = $3, updated_at = $4 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(sc.ID), sc.Name, sc.Address, sc.UpdatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) DeleteSchool(ctx context.Context, schoolID id.SchoolID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schools WHERE id = $1`, uuid.UUID(schoolID))
	if err != nil {
		return fmt.Errorf("delete school: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListSchools(ctx context.Context, tenantID string) ([]org.School, error) {
	query := `SELECT id, tenant_id, name, address, created_at, updated_at
		FROM schools WHERE tenant_id = $1 ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	defer rows.Close()

	var out []org.School
	for rows.Next() {
		var (
			sc  org.School
			sid uuid.UUID
		)
		if err := rows.Scan(&sid, &sc.TenantID, &sc.Name, &sc.Address, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan school: %w", err)
		}
		sc.ID = id.SchoolID(sid)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func nullUUID(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
