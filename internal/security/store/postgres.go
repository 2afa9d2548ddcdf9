package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"peopleops/internal/security"
	"peopleops/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres stores one settings row per tenant; the policy sections live in
// JSONB behind a unique tenant_id, which is what makes the lazy-create
// race detectable as a duplicate key.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type settingsDoc struct {
	PasswordPolicy security.PasswordPolicy `json:"passwordPolicy"`
	Lockout        security.Lockout        `json:"lockout"`
	TwoFactor      security.TwoFactor      `json:"twoFactor"`
	IPWhitelist    security.IPWhitelist    `json:"ipWhitelist"`
	Session        security.Session        `json:"session"`
	Audit          security.AuditSettings  `json:"audit"`
}

func docOf(s *security.Settings) settingsDoc {
	return settingsDoc{
		PasswordPolicy: s.PasswordPolicy,
		Lockout:        s.Lockout,
		TwoFactor:      s.TwoFactor,
		IPWhitelist:    s.IPWhitelist,
		Session:        s.Session,
		Audit:          s.Audit,
	}
}

func (d settingsDoc) into(s *security.Settings) {
	s.PasswordPolicy = d.PasswordPolicy
	s.Lockout = d.Lockout
	s.TwoFactor = d.TwoFactor
	s.IPWhitelist = d.IPWhitelist
	s.Session = d.Session
	s.Audit = d.Audit
}

func (s *Postgres) Create(ctx context.Context, settings *security.Settings) error {
	doc, err := json.Marshal(docOf(settings))
	if err != nil {
		return fmt.Errorf("marshal settings doc: %w", err)
	}
	query := `
		INSERT INTO security_settings (tenant_id, doc, last_modified, last_modified_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		settings.TenantID, doc, settings.LastModified, settings.LastModifiedBy, settings.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert security settings: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, tenantID string) (*security.Settings, error) {
	query := `
		SELECT tenant_id, doc, last_modified, last_modified_by, created_at
		FROM security_settings WHERE tenant_id = $1
	`
	var (
		settings security.Settings
		doc      []byte
	)
	err := s.db.QueryRowContext(ctx, query, tenantID).Scan(
		&settings.TenantID, &doc, &settings.LastModified,
		&settings.LastModifiedBy, &settings.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query security settings: %w", err)
	}
	var d settingsDoc
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("unmarshal settings doc: %w", err)
	}
	d.into(&settings)
	return &settings, nil
}

func (s *Postgres) Save(ctx context.Context, settings *security.Settings) error {
	doc, err := json.Marshal(docOf(settings))
	if err != nil {
		return fmt.Errorf("marshal settings doc: %w", err)
	}
	query := `
		UPDATE security_settings
		SET doc = $2, last_modified = $3, last_modified_by = $4
		WHERE tenant_id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		settings.TenantID, doc, settings.LastModified, settings.LastModifiedBy)
	if err != nil {
		return fmt.Errorf("update security settings: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
