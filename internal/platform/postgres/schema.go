package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the full DDL, idempotent so startup can apply it every run.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
    id               UUID PRIMARY KEY,
    action           TEXT NOT NULL,
    resource         TEXT NOT NULL,
    resource_id      TEXT NOT NULL DEFAULT '',
    user_id          TEXT NOT NULL,
    tenant_id        TEXT NOT NULL,
    category         TEXT NOT NULL,
    severity         TEXT NOT NULL,
    changes          JSONB NOT NULL DEFAULT '{}',
    correlation_id   TEXT NOT NULL DEFAULT '',
    hash             TEXT NOT NULL,
    retention_policy TEXT NOT NULL,
    compliance_flags JSONB NOT NULL DEFAULT '[]',
    ip               TEXT NOT NULL DEFAULT '',
    device           TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_tenant_created ON audit_entries (tenant_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_entries_correlation ON audit_entries (correlation_id);

CREATE TABLE IF NOT EXISTS security_settings (
    tenant_id        TEXT PRIMARY KEY,
    doc              JSONB NOT NULL,
    last_modified    TIMESTAMPTZ NOT NULL,
    last_modified_by TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS employees (
    id            UUID PRIMARY KEY,
    tenant_id     TEXT NOT NULL,
    first_name    TEXT NOT NULL,
    last_name     TEXT NOT NULL,
    email         TEXT NOT NULL,
    department_id UUID,
    position_id   UUID,
    school_id     UUID,
    hire_date     TIMESTAMPTZ NOT NULL,
    status        TEXT NOT NULL,
    role          TEXT NOT NULL,
    password_hash TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_tenant_email ON employees (tenant_id, lower(email));
CREATE INDEX IF NOT EXISTS idx_employees_tenant_status ON employees (tenant_id, status);

CREATE TABLE IF NOT EXISTS departments (
    id          UUID PRIMARY KEY,
    tenant_id   TEXT NOT NULL,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_departments_tenant_name ON departments (tenant_id, lower(name));

CREATE TABLE IF NOT EXISTS positions (
    id            UUID PRIMARY KEY,
    tenant_id     TEXT NOT NULL,
    title         TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    department_id UUID,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_positions_tenant_title ON positions (tenant_id, lower(title));

CREATE TABLE IF NOT EXISTS schools (
    id         UUID PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    name       TEXT NOT NULL,
    address    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_schools_tenant_name ON schools (tenant_id, lower(name));

CREATE TABLE IF NOT EXISTS vacation_balances (
    employee_id UUID NOT NULL,
    tenant_id   TEXT NOT NULL,
    year        INT NOT NULL,
    doc         JSONB NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (employee_id, year)
);
CREATE INDEX IF NOT EXISTS idx_vacation_balances_tenant ON vacation_balances (tenant_id, year);

CREATE TABLE IF NOT EXISTS mixed_vacation_policies (
    id                     UUID PRIMARY KEY,
    tenant_id              TEXT NOT NULL,
    name                   TEXT NOT NULL,
    start_date             TIMESTAMPTZ NOT NULL,
    end_date               TIMESTAMPTZ NOT NULL,
    total_days             INT NOT NULL,
    personal_days_required INT NOT NULL,
    status                 TEXT NOT NULL,
    created_by             TEXT NOT NULL,
    created_at             TIMESTAMPTZ NOT NULL,
    updated_at             TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mixed_vacation_policies_tenant ON mixed_vacation_policies (tenant_id);

CREATE TABLE IF NOT EXISTS policy_applications (
    policy_id     UUID NOT NULL REFERENCES mixed_vacation_policies (id) ON DELETE CASCADE,
    employee_id   UUID NOT NULL,
    applied_by    TEXT NOT NULL,
    days_deducted INT NOT NULL,
    applied_at    TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (policy_id, employee_id)
);

CREATE TABLE IF NOT EXISTS leave_requests (
    id           UUID PRIMARY KEY,
    tenant_id    TEXT NOT NULL,
    employee_id  UUID NOT NULL,
    category     TEXT NOT NULL,
    start_date   TIMESTAMPTZ NOT NULL,
    end_date     TIMESTAMPTZ NOT NULL,
    days         INT NOT NULL,
    reason       TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL,
    requested_by TEXT NOT NULL,
    decided_by   TEXT NOT NULL DEFAULT '',
    decided_at   TIMESTAMPTZ,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leave_requests_tenant ON leave_requests (tenant_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_leave_requests_employee ON leave_requests (employee_id, created_at DESC);

CREATE TABLE IF NOT EXISTS resigned_employees (
    employee_id      UUID PRIMARY KEY,
    tenant_id        TEXT NOT NULL,
    resignation_type TEXT NOT NULL,
    resignation_date TIMESTAMPTZ NOT NULL,
    last_working_day TIMESTAMPTZ NOT NULL,
    penalties        JSONB NOT NULL DEFAULT '[]',
    total_penalties  DOUBLE PRECISION NOT NULL DEFAULT 0,
    status           TEXT NOT NULL,
    is_locked        BOOLEAN NOT NULL DEFAULT FALSE,
    locked_date      TIMESTAMPTZ,
    created_by       TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resigned_employees_tenant ON resigned_employees (tenant_id);

CREATE TABLE IF NOT EXISTS holidays (
    id          UUID PRIMARY KEY,
    tenant_id   TEXT NOT NULL,
    school_id   UUID,
    name        TEXT NOT NULL,
    date        TIMESTAMPTZ NOT NULL,
    recurring   BOOLEAN NOT NULL DEFAULT FALSE,
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_holidays_tenant ON holidays (tenant_id);

CREATE TABLE IF NOT EXISTS notifications (
    id           UUID PRIMARY KEY,
    tenant_id    TEXT NOT NULL,
    recipient_id UUID NOT NULL,
    kind         TEXT NOT NULL,
    title        TEXT NOT NULL,
    body         TEXT NOT NULL DEFAULT '',
    related_id   TEXT NOT NULL DEFAULT '',
    read         BOOLEAN NOT NULL DEFAULT FALSE,
    read_at      TIMESTAMPTZ,
    created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (tenant_id, recipient_id, created_at DESC);

CREATE TABLE IF NOT EXISTS announcements (
    id         UUID PRIMARY KEY,
    tenant_id  TEXT NOT NULL,
    title      TEXT NOT NULL,
    body       TEXT NOT NULL,
    publish_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ,
    created_by TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_announcements_tenant ON announcements (tenant_id, publish_at);

CREATE TABLE IF NOT EXISTS surveys (
    id          UUID PRIMARY KEY,
    tenant_id   TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    questions   JSONB NOT NULL,
    status      TEXT NOT NULL,
    created_by  TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_surveys_tenant ON surveys (tenant_id);

CREATE TABLE IF NOT EXISTS backup_runs (
    id           UUID PRIMARY KEY,
    tenant_id    TEXT NOT NULL,
    status       TEXT NOT NULL,
    requested_by TEXT NOT NULL,
    requested_at TIMESTAMPTZ NOT NULL,
    finished_at  TIMESTAMPTZ,
    size_bytes   BIGINT NOT NULL DEFAULT 0,
    location     TEXT NOT NULL DEFAULT '',
    error        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_backup_runs_tenant ON backup_runs (tenant_id, requested_at DESC);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
