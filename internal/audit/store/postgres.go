package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"peopleops/internal/audit"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// Postgres persists ledger entries in the audit_entries table. Changes and
// compliance flags land in JSONB columns. The struct deliberately exposes
// no UPDATE: immutability is a store contract, verified by hash on read.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const entryColumns = `
	id, action, resource, resource_id, user_id, tenant_id, category,
	severity, changes, correlation_id, hash, retention_policy,
	compliance_flags, ip, device, created_at`

func (s *Postgres) Append(ctx context.Context, entry *audit.Entry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	flags, err := json.Marshal(entry.ComplianceFlags)
	if err != nil {
		return fmt.Errorf("marshal compliance flags: %w", err)
	}

	query := `
		INSERT INTO audit_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		entry.Action,
		entry.Resource,
		entry.ResourceID,
		entry.UserID,
		entry.TenantID,
		string(entry.Category),
		string(entry.Severity),
		changes,
		entry.CorrelationID,
		entry.Hash,
		string(entry.RetentionPolicy),
		flags,
		entry.IP,
		entry.Device,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, entryID id.EntryID) (*audit.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM audit_entries WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(entryID))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Postgres) FindByCorrelation(ctx context.Context, correlationID string) ([]audit.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM audit_entries WHERE correlation_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Postgres) FindByTenantAndSeverity(ctx context.Context, tenantID string, severity audit.Severity) ([]audit.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM audit_entries WHERE tenant_id = $1 AND severity = $2 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, tenantID, string(severity))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Postgres) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, int, error) {
	where, args := buildWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM audit_entries` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := `SELECT ` + entryColumns + ` FROM audit_entries` + where + ` ORDER BY created_at DESC`
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *Postgres) FindExpiredByRetention(ctx context.Context, now time.Time, days int) ([]audit.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM audit_entries ` + expiredWhere
	rows, err := s.db.QueryContext(ctx, query,
		now.AddDate(0, 0, -days),
		now.AddDate(0, 0, -days*audit.ExtendedRetentionMultiplier),
	)
	if err != nil {
		return nil, fmt.Errorf("query expired audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Postgres) DeleteOlderThan(ctx context.Context, now time.Time, days int) (int, error) {
	query := `DELETE FROM audit_entries ` + expiredWhere
	res, err := s.db.ExecContext(ctx, query,
		now.AddDate(0, 0, -days),
		now.AddDate(0, 0, -days*audit.ExtendedRetentionMultiplier),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired audit entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted audit entries: %w", err)
	}
	return int(affected), nil
}

// expiredWhere spares permanent entries and stretches the horizon for
// extended retention. $1 is the standard cutoff, $2 the extended cutoff.
const expiredWhere = `
	WHERE retention_policy != 'permanent'
	  AND ((retention_policy = 'standard' AND created_at < $1)
	    OR (retention_policy = 'extended' AND created_at < $2))`

func buildWhere(f audit.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.TenantID != "" {
		add("tenant_id = $%d", f.TenantID)
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.Resource != "" {
		add("resource = $%d", f.Resource)
	}
	if f.Category != "" {
		add("category = $%d", string(f.Category))
	}
	if f.Severity != "" {
		add("severity = $%d", string(f.Severity))
	}
	if f.MinSeverity != "" {
		switch f.MinSeverity {
		case audit.SeverityCritical:
			conds = append(conds, "severity = 'critical'")
		case audit.SeverityWarning:
			conds = append(conds, "severity IN ('warning', 'critical')")
		}
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at <= $%d", f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*audit.Entry, error) {
	var (
		entry     audit.Entry
		entryID   uuid.UUID
		category  string
		severity  string
		retention string
		changes   []byte
		flags     []byte
	)
	err := row.Scan(
		&entryID,
		&entry.Action,
		&entry.Resource,
		&entry.ResourceID,
		&entry.UserID,
		&entry.TenantID,
		&category,
		&severity,
		&changes,
		&entry.CorrelationID,
		&entry.Hash,
		&retention,
		&flags,
		&entry.IP,
		&entry.Device,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.ID = id.EntryID(entryID)
	entry.Category = audit.Category(category)
	entry.Severity = audit.Severity(severity)
	entry.RetentionPolicy = audit.RetentionPolicy(retention)
	if err := json.Unmarshal(changes, &entry.Changes); err != nil {
		return nil, fmt.Errorf("unmarshal changes: %w", err)
	}
	if err := json.Unmarshal(flags, &entry.ComplianceFlags); err != nil {
		return nil, fmt.Errorf("unmarshal compliance flags: %w", err)
	}
	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
