package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"peopleops/internal/resignation"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Postgres stores one row per employee; the penalty list lives in JSONB.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const recordColumns = `
	employee_id, tenant_id, resignation_type, resignation_date, last_working_day,
	penalties, total_penalties, status, is_locked, locked_date,
	created_by, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, record *resignation.Record) error {
	penalties, err := json.Marshal(record.Penalties)
	if err != nil {
		return fmt.Errorf("marshal penalties: %w", err)
	}
	query := `INSERT INTO resigned_employees (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(record.EmployeeID), record.TenantID,
		string(record.ResignationType), record.ResignationDate, record.LastWorkingDay,
		penalties, record.TotalPenalties, string(record.Status),
		record.IsLocked, nullTime(record.LockedDate),
		record.CreatedBy, record.CreatedAt, record.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert resignation record: %w", err)
	}
	return nil
}

func scanRecord(row interface{ Scan(...any) error }) (*resignation.Record, error) {
	var (
		r          resignation.Record
		eid        uuid.UUID
		rType      string
		status     string
		penalties  []byte
		lockedDate sql.NullTime
	)
	err := row.Scan(&eid, &r.TenantID, &rType, &r.ResignationDate, &r.LastWorkingDay,
		&penalties, &r.TotalPenalties, &status, &r.IsLocked, &lockedDate,
		&r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.EmployeeID = id.EmployeeID(eid)
	r.ResignationType = resignation.Type(rType)
	r.Status = resignation.Status(status)
	if lockedDate.Valid {
		r.LockedDate = lockedDate.Time
	}
	if err := json.Unmarshal(penalties, &r.Penalties); err != nil {
		return nil, fmt.Errorf("unmarshal penalties: %w", err)
	}
	return &r, nil
}

func (s *Postgres) FindByEmployee(ctx context.Context, employeeID id.EmployeeID) (*resignation.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM resigned_employees WHERE employee_id = $1`
	r, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(employeeID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query resignation record: %w", err)
	}
	return r, nil
}

func (s *Postgres) List(ctx context.Context, tenantID string) ([]resignation.Record, error) {
	query := `SELECT ` + recordColumns + `
		FROM resigned_employees WHERE tenant_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query resignation records: %w", err)
	}
	defer rows.Close()

	var out []resignation.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resignation record: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, employeeID id.EmployeeID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM resigned_employees WHERE employee_id = $1`, uuid.UUID(employeeID))
	if err != nil {
		return fmt.Errorf("delete resignation record: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Execute validates and mutates under SELECT ... FOR UPDATE so concurrent
// penalty edits serialize on the row. The record is written back even when
// validation fails, so a lock evaluated during the check still persists.
func (s *Postgres) Execute(ctx context.Context, employeeID id.EmployeeID, validate func(*resignation.Record) error, mutate func(*resignation.Record) error) (*resignation.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + recordColumns + ` FROM resigned_employees WHERE employee_id = $1 FOR UPDATE`
	r, err := scanRecord(tx.QueryRowContext(ctx, query, uuid.UUID(employeeID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock resignation record: %w", err)
	}

	validateErr := validate(r)
	if validateErr == nil {
		if err := mutate(r); err != nil {
			return nil, err
		}
	}

	if err := s.writeBack(ctx, tx, r); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit resignation update: %w", err)
	}
	if validateErr != nil {
		return nil, validateErr
	}
	return r, nil
}

func (s *Postgres) writeBack(ctx context.Context, tx *sql.Tx, r *resignation.Record) error {
	penalties, err := json.Marshal(r.Penalties)
	if err != nil {
		return fmt.Errorf("marshal penalties: %w", err)
	}
	update := `
		UPDATE resigned_employees
		SET resignation_type = $2, penalties = $3, total_penalties = $4,
		    status = $5, is_locked = $6, locked_date = $7, updated_at = $8
		WHERE employee_id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		uuid.UUID(r.EmployeeID), string(r.ResignationType), penalties,
		r.TotalPenalties, string(r.Status), r.IsLocked,
		nullTime(r.LockedDate), r.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update resignation record: %w", err)
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
