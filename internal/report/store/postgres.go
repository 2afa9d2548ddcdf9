// Package store provides the SQL aggregates behind the reporting service.
package store

import (
	"context"
	"database/sql"
	"time"

	dErrors "peopleops/pkg/domain-errors"

	"peopleops/internal/report"
)

// Postgres computes report rows directly in the database. It holds no
// state of its own.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) HeadcountByDepartment(ctx context.Context, tenantID string) ([]report.HeadcountRow, error) {
	query := `
		SELECT coalesce(d.name, ''), count(*)
		FROM employees e
		LEFT JOIN departments d ON e.department_id = d.id
		WHERE e.tenant_id = $1 AND e.status = 'active'
		GROUP BY 1
		ORDER BY 2 DESC, 1 ASC`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute headcount")
	}
	defer rows.Close()

	out := []report.HeadcountRow{}
	for rows.Next() {
		var r report.HeadcountRow
		if err := rows.Scan(&r.DepartmentName, &r.Count); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to scan headcount row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read headcount rows")
	}
	return out, nil
}

func (s *Postgres) LeaveUsageByYear(ctx context.Context, tenantID string, year int) ([]report.LeaveUsageRow, error) {
	// Balances are stored as one JSONB document per employee per year, so
	// the per-category totals are extracted here rather than joined.
	query := `
		SELECT c.category,
		       coalesce(sum((b.doc -> c.category ->> 'allocated')::int), 0),
		       coalesce(sum((b.doc -> c.category ->> 'used')::int), 0),
		       coalesce(sum((b.doc -> c.category ->> 'pending')::int), 0)
		FROM (VALUES ('annual'), ('casual'), ('sick')) AS c(category)
		LEFT JOIN vacation_balances b ON b.tenant_id = $1 AND b.year = $2
		GROUP BY c.category
		ORDER BY c.category`

	rows, err := s.db.QueryContext(ctx, query, tenantID, year)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute leave usage")
	}
	defer rows.Close()

	out := []report.LeaveUsageRow{}
	for rows.Next() {
		r := report.LeaveUsageRow{Year: year}
		if err := rows.Scan(&r.Category, &r.Allocated, &r.Used, &r.Pending); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to scan leave usage row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read leave usage rows")
	}
	return out, nil
}

func (s *Postgres) AuditVolumeBySeverity(ctx context.Context, tenantID string, from, to time.Time) ([]report.AuditVolumeRow, error) {
	query := `
		SELECT severity, count(*)
		FROM audit_entries
		WHERE tenant_id = $1`
	args := []any{tenantID}
	if !from.IsZero() {
		args = append(args, from)
		query += ` AND created_at >= $2`
	}
	if !to.IsZero() {
		args = append(args, to)
		if len(args) == 3 {
			query += ` AND created_at < $3`
		} else {
			query += ` AND created_at < $2`
		}
	}
	query += `
		GROUP BY severity
		ORDER BY count(*) DESC, severity ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute audit volume")
	}
	defer rows.Close()

	out := []report.AuditVolumeRow{}
	for rows.Next() {
		var r report.AuditVolumeRow
		if err := rows.Scan(&r.Severity, &r.Count); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to scan audit volume row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit volume rows")
	}
	return out, nil
}
