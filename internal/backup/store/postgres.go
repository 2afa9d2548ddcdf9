package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"peopleops/internal/backup"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// Postgres stores backup-run metadata.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const runColumns = `
	id, tenant_id, status, requested_by, requested_at, finished_at, size_bytes, location, error`

func (s *Postgres) Create(ctx context.Context, r *backup.Run) error {
	query := `INSERT INTO backup_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID), r.TenantID, string(r.Status), r.RequestedBy,
		r.RequestedAt, nullTime(r.FinishedAt), r.SizeBytes, r.Location, r.Error)
	if err != nil {
		return fmt.Errorf("insert backup run: %w", err)
	}
	return nil
}

func scanRun(row interface{ Scan(...any) error }) (*backup.Run, error) {
	var (
		r          backup.Run
		rid        uuid.UUID
		status     string
		finishedAt sql.NullTime
	)
	err := row.Scan(&rid, &r.TenantID, &status, &r.RequestedBy,
		&r.RequestedAt, &finishedAt, &r.SizeBytes, &r.Location, &r.Error)
	if err != nil {
		return nil, err
	}
	r.ID = id.BackupID(rid)
	r.Status = backup.Status(status)
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.Time
	}
	return &r, nil
}

func (s *Postgres) Get(ctx context.Context, backupID id.BackupID) (*backup.Run, error) {
	query := `SELECT ` + runColumns + ` FROM backup_runs WHERE id = $1`
	r, err := scanRun(s.db.QueryRowContext(ctx, query, uuid.UUID(backupID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query backup run: %w", err)
	}
	return r, nil
}

func (s *Postgres) Update(ctx context.Context, r *backup.Run) error {
	query := `UPDATE backup_runs SET status = $2, finished_at = $3, size_bytes = $4,
		location = $5, error = $6 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(r.ID), string(r.Status),
		nullTime(r.FinishedAt), r.SizeBytes, r.Location, r.Error)
	if err != nil {
		return fmt.Errorf("update backup run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, tenantID string) ([]backup.Run, error) {
	query := `SELECT ` + runColumns + ` FROM backup_runs
		WHERE tenant_id = $1 ORDER BY requested_at DESC`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list backup runs: %w", err)
	}
	defer rows.Close()

	var out []backup.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup run: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
