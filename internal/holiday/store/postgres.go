package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"peopleops/internal/holiday"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// Postgres stores holidays.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const holidayColumns = `
	id, tenant_id, school_id, name, date, recurring, description, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, h *holiday.Holiday) error {
	query := `INSERT INTO holidays (` + holidayColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(h.ID), h.TenantID, nullUUID(uuid.UUID(h.SchoolID)),
		h.Name, h.Date, h.Recurring, h.Description, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert holiday: %w", err)
	}
	return nil
}

func scanHoliday(row interface{ Scan(...any) error }) (*holiday.Holiday, error) {
	var (
		h        holiday.Holiday
		hid      uuid.UUID
		schoolID uuid.NullUUID
	)
	err := row.Scan(&hid, &h.TenantID, &schoolID, &h.Name, &h.Date,
		&h.Recurring, &h.Description, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	h.ID = id.HolidayID(hid)
	h.SchoolID = id.SchoolID(schoolID.UUID)
	return &h, nil
}

func (s *Postgres) Get(ctx context.Context, holidayID id.HolidayID) (*holiday.Holiday, error) {
	query := `SELECT ` + holidayColumns + ` FROM holidays WHERE id = $1`
	h, err := scanHoliday(s.db.QueryRowContext(ctx, query, uuid.UUID(holidayID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query holiday: %w", err)
	}
	return h, nil
}

func (s *Postgres) Update(ctx context.Context, h *holiday.Holiday) error {
	query := `UPDATE holidays SET school_id = $2, name = $3, date = $4, recurring = $5,
		description = $6, updated_at = $7 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(h.ID),
		nullUUID(uuid.UUID(h.SchoolID)), h.Name, h.Date, h.Recurring, h.Description, h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update holiday: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, holidayID id.HolidayID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, uuid.UUID(holidayID))
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) List(ctx context.Context, tenantID string, schoolID id.SchoolID) ([]holiday.Holiday, error) {
	query := `SELECT ` + holidayColumns + ` FROM holidays WHERE tenant_id = $1`
	args := []any{tenantID}
	if !schoolID.IsNil() {
		query += ` AND (school_id IS NULL OR school_id = $2)`
		args = append(args, uuid.UUID(schoolID))
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var out []holiday.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		out = append(out, *h)
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
