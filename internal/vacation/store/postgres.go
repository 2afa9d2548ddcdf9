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

	"peopleops/internal/vacation"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// PostgresBalances stores one row per (employee, year); the category
// blocks and eligibility live in JSONB.
type PostgresBalances struct {
	db *sql.DB
}

func NewPostgresBalances(db *sql.DB) *PostgresBalances {
	return &PostgresBalances{db: db}
}

type balanceDoc struct {
	Annual      vacation.CategoryBalance `json:"annual"`
	Casual      vacation.CategoryBalance `json:"casual"`
	Sick        vacation.CategoryBalance `json:"sick"`
	Eligibility vacation.Eligibility     `json:"eligibility"`
}

func (s *PostgresBalances) Get(ctx context.Context, employeeID id.EmployeeID, year int) (*vacation.Balance, error) {
	query := `
		SELECT employee_id, tenant_id, year, doc, updated_at
		FROM vacation_balances WHERE employee_id = $1 AND year = $2
	`
	var (
		b    vacation.Balance
		eid  uuid.UUID
		doc  []byte
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(employeeID), year).
		Scan(&eid, &b.TenantID, &b.Year, &doc, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query vacation balance: %w", err)
	}
	b.EmployeeID = id.EmployeeID(eid)
	var d balanceDoc
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("unmarshal balance doc: %w", err)
	}
	b.Annual, b.Casual, b.Sick, b.Eligibility = d.Annual, d.Casual, d.Sick, d.Eligibility
	return &b, nil
}

func (s *PostgresBalances) Save(ctx context.Context, balance *vacation.Balance) error {
	doc, err := json.Marshal(balanceDoc{
		Annual:      balance.Annual,
		Casual:      balance.Casual,
		Sick:        balance.Sick,
		Eligibility: balance.Eligibility,
	})
	if err != nil {
		return fmt.Errorf("marshal balance doc: %w", err)
	}
	query := `
		INSERT INTO vacation_balances (employee_id, tenant_id, year, doc, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, year)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(balance.EmployeeID), balance.TenantID, balance.Year, doc, balance.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save vacation balance: %w", err)
	}
	return nil
}

func (s *PostgresBalances) ListByTenantYear(ctx context.Context, tenantID string, year int) ([]vacation.Balance, error) {
	query := `
		SELECT employee_id, tenant_id, year, doc, updated_at
		FROM vacation_balances WHERE tenant_id = $1 AND year = $2
		ORDER BY employee_id
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID, year)
	if err != nil {
		return nil, fmt.Errorf("query vacation balances: %w", err)
	}
	defer rows.Close()

	var out []vacation.Balance
	for rows.Next() {
		var (
			b   vacation.Balance
			eid uuid.UUID
			doc []byte
		)
		if err := rows.Scan(&eid, &b.TenantID, &b.Year, &doc, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan vacation balance: %w", err)
		}
		b.EmployeeID = id.EmployeeID(eid)
		var d balanceDoc
		if err := json.Unmarshal(doc, &d); err != nil {
			return nil, fmt.Errorf("unmarshal balance doc: %w", err)
		}
		b.Annual, b.Casual, b.Sick, b.Eligibility = d.Annual, d.Casual, d.Sick, d.Eligibility
		out = append(out, b)
	}
	return out, rows.Err()
}

// PostgresPolicies stores mixed-vacation policies.
type PostgresPolicies struct {
	db *sql.DB
}

func NewPostgresPolicies(db *sql.DB) *PostgresPolicies {
	return &PostgresPolicies{db: db}
}

const policyColumns = `
	id, tenant_id, name, start_date, end_date, total_days,
	personal_days_required, status, created_by, created_at, updated_at`

func (s *PostgresPolicies) Create(ctx context.Context, policy *vacation.Policy) error {
	query := `INSERT INTO mixed_vacation_policies (` + policyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(policy.ID), policy.TenantID, policy.Name,
		policy.StartDate, policy.EndDate, policy.TotalDays,
		policy.PersonalDaysRequired, string(policy.Status),
		policy.CreatedBy, policy.CreatedAt, policy.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

func scanPolicy(row interface{ Scan(...any) error }) (*vacation.Policy, error) {
	var (
		p      vacation.Policy
		pid    uuid.UUID
		status string
	)
	err := row.Scan(&pid, &p.TenantID, &p.Name, &p.StartDate, &p.EndDate,
		&p.TotalDays, &p.PersonalDaysRequired, &status, &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = id.PolicyID(pid)
	p.Status = vacation.PolicyStatus(status)
	return &p, nil
}

func (s *PostgresPolicies) FindByID(ctx context.Context, policyID id.PolicyID) (*vacation.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM mixed_vacation_policies WHERE id = $1`
	p, err := scanPolicy(s.db.QueryRowContext(ctx, query, uuid.UUID(policyID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query policy: %w", err)
	}
	return p, nil
}

func (s *PostgresPolicies) Update(ctx context.Context, policy *vacation.Policy) error {
	query := `
		UPDATE mixed_vacation_policies
		SET name = $2, start_date = $3, end_date = $4, total_days = $5,
		    personal_days_required = $6, status = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(policy.ID), policy.Name, policy.StartDate, policy.EndDate,
		policy.TotalDays, policy.PersonalDaysRequired, string(policy.Status),
		policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update policy: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresPolicies) Delete(ctx context.Context, policyID id.PolicyID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM mixed_vacation_policies WHERE id = $1`, uuid.UUID(policyID))
	if err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresPolicies) List(ctx context.Context, tenantID string) ([]vacation.Policy, error) {
	query := `SELECT ` + policyColumns + `
		FROM mixed_vacation_policies WHERE tenant_id = $1 ORDER BY created_at DESC`
	return s.queryPolicies(ctx, query, tenantID)
}

func (s *PostgresPolicies) FindActive(ctx context.Context, tenantID string, now time.Time) ([]vacation.Policy, error) {
	query := `SELECT ` + policyColumns + `
		FROM mixed_vacation_policies
		WHERE tenant_id = $1 AND status = 'active' AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date`
	return s.queryPolicies(ctx, query, tenantID, now)
}

func (s *PostgresPolicies) queryPolicies(ctx context.Context, query string, args ...any) ([]vacation.Policy, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}
	defer rows.Close()
	var out []vacation.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Execute validates and mutates under SELECT ... FOR UPDATE so concurrent
// lifecycle transitions serialize on the row.
func (s *PostgresPolicies) Execute(ctx context.Context, policyID id.PolicyID, validate func(*vacation.Policy) error, mutate func(*vacation.Policy)) (*vacation.Policy, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + policyColumns + ` FROM mixed_vacation_policies WHERE id = $1 FOR UPDATE`
	p, err := scanPolicy(tx.QueryRowContext(ctx, query, uuid.UUID(policyID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock policy: %w", err)
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)

	update := `
		UPDATE mixed_vacation_policies
		SET name = $2, start_date = $3, end_date = $4, total_days = $5,
		    personal_days_required = $6, status = $7, updated_at = $8
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		uuid.UUID(p.ID), p.Name, p.StartDate, p.EndDate, p.TotalDays,
		p.PersonalDaysRequired, string(p.Status), p.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update policy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit policy update: %w", err)
	}
	return p, nil
}

// PostgresRequests stores leave requests.
type PostgresRequests struct {
	db *sql.DB
}

func NewPostgresRequests(db *sql.DB) *PostgresRequests {
	return &PostgresRequests{db: db}
}

const requestColumns = `
	id, tenant_id, employee_id, category, start_date, end_date, days,
	reason, status, requested_by, decided_by, decided_at, created_at, updated_at`

func (s *PostgresRequests) Create(ctx context.Context, req *vacation.LeaveRequest) error {
	query := `INSERT INTO leave_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(req.ID), req.TenantID, uuid.UUID(req.EmployeeID),
		string(req.Category), req.StartDate, req.EndDate, req.Days,
		req.Reason, string(req.Status), req.RequestedBy,
		req.DecidedBy, nullTime(req.DecidedAt), req.CreatedAt, req.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert leave request: %w", err)
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func scanRequest(row interface{ Scan(...any) error }) (*vacation.LeaveRequest, error) {
	var (
		r         vacation.LeaveRequest
		rid, eid  uuid.UUID
		category  string
		status    string
		decidedAt sql.NullTime
	)
	err := row.Scan(&rid, &r.TenantID, &eid, &category, &r.StartDate, &r.EndDate,
		&r.Days, &r.Reason, &status, &r.RequestedBy, &r.DecidedBy, &decidedAt,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = id.LeaveRequestID(rid)
	r.EmployeeID = id.EmployeeID(eid)
	r.Category = vacation.LeaveCategory(category)
	r.Status = vacation.RequestStatus(status)
	if decidedAt.Valid {
		r.DecidedAt = decidedAt.Time
	}
	return &r, nil
}

func (s *PostgresRequests) FindByID(ctx context.Context, requestID id.LeaveRequestID) (*vacation.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE id = $1`
	r, err := scanRequest(s.db.QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query leave request: %w", err)
	}
	return r, nil
}

func (s *PostgresRequests) Update(ctx context.Context, req *vacation.LeaveRequest) error {
	query := `
		UPDATE leave_requests
		SET category = $2, start_date = $3, end_date = $4, days = $5,
		    reason = $6, status = $7, decided_by = $8, decided_at = $9,
		    updated_at = $10
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(req.ID), string(req.Category), req.StartDate, req.EndDate,
		req.Days, req.Reason, string(req.Status), req.DecidedBy,
		nullTime(req.DecidedAt), req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update leave request: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresRequests) Delete(ctx context.Context, requestID id.LeaveRequestID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM leave_requests WHERE id = $1`, uuid.UUID(requestID))
	if err != nil {
		return fmt.Errorf("delete leave request: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresRequests) List(ctx context.Context, tenantID string) ([]vacation.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM leave_requests WHERE tenant_id = $1 ORDER BY created_at DESC`
	return s.queryRequests(ctx, query, tenantID)
}

func (s *PostgresRequests) ListByEmployee(ctx context.Context, employeeID id.EmployeeID) ([]vacation.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM leave_requests WHERE employee_id = $1 ORDER BY created_at DESC`
	return s.queryRequests(ctx, query, uuid.UUID(employeeID))
}

func (s *PostgresRequests) queryRequests(ctx context.Context, query string, args ...any) ([]vacation.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leave requests: %w", err)
	}
	defer rows.Close()
	var out []vacation.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leave request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// PostgresApplications enforces uniqueness per (policy, employee) with a
// primary key over both columns.
type PostgresApplications struct {
	db *sql.DB
}

func NewPostgresApplications(db *sql.DB) *PostgresApplications {
	return &PostgresApplications{db: db}
}

func (s *PostgresApplications) Record(ctx context.Context, app *vacation.Application) error {
	query := `
		INSERT INTO policy_applications (policy_id, employee_id, applied_by, days_deducted, applied_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(app.PolicyID), uuid.UUID(app.EmployeeID),
		app.AppliedBy, app.DaysDeducted, app.AppliedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert policy application: %w", err)
	}
	return nil
}

func (s *PostgresApplications) Exists(ctx context.Context, policyID id.PolicyID, employeeID id.EmployeeID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM policy_applications WHERE policy_id = $1 AND employee_id = $2)`,
		uuid.UUID(policyID), uuid.UUID(employeeID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query policy application: %w", err)
	}
	return exists, nil
}

func (s *PostgresApplications) ListByPolicy(ctx context.Context, policyID id.PolicyID) ([]vacation.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT policy_id, employee_id, applied_by, days_deducted, applied_at
		FROM policy_applications WHERE policy_id = $1 ORDER BY applied_at
	`, uuid.UUID(policyID))
	if err != nil {
		return nil, fmt.Errorf("query policy applications: %w", err)
	}
	defer rows.Close()

	var out []vacation.Application
	for rows.Next() {
		var (
			a        vacation.Application
			pid, eid uuid.UUID
		)
		if err := rows.Scan(&pid, &eid, &a.AppliedBy, &a.DaysDeducted, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan policy application: %w", err)
		}
		a.PolicyID = id.PolicyID(pid)
		a.EmployeeID = id.EmployeeID(eid)
		out = append(out, a)
	}
	return out, rows.Err()
}
