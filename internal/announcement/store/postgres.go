package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"peopleops/internal/announcement"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// Postgres stores announcements.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const announcementColumns = `
	id, tenant_id, title, body, publish_at, expires_at, created_by, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, a *announcement.Announcement) error {
	query := `INSERT INTO announcements (` + announcementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(a.ID), a.TenantID, a.Title, a.Body, a.PublishAt,
		nullTime(a.ExpiresAt), a.CreatedBy, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

func scanAnnouncement(row interface{ Scan(...any) error }) (*announcement.Announcement, error) {
	var (
		a         announcement.Announcement
		aid       uuid.UUID
		expiresAt sql.NullTime
	)
	err := row.Scan(&aid, &a.TenantID, &a.Title, &a.Body, &a.PublishAt,
		&expiresAt, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = id.AnnouncementID(aid)
	if expiresAt.Valid {
		a.ExpiresAt = expiresAt.Time
	}
	return &a, nil
}

func (s *Postgres) Get(ctx context.Context, announcementID id.AnnouncementID) (*announcement.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1`
	a, err := scanAnnouncement(s.db.QueryRowContext(ctx, query, uuid.UUID(announcementID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query announcement: %w", err)
	}
	return a, nil
}

func (s *Postgres) Update(ctx context.Context, a *announcement.Announcement) error {
	query := `UPDATE announcements SET title = $2, body = $3, publish_at = $4,
		expires_at = $5, updated_at = $6 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(a.ID), a.Title, a.Body,
		a.PublishAt, nullTime(a.ExpiresAt), a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, announcementID id.AnnouncementID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, uuid.UUID(announcementID))
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) List(ctx context.Context, tenantID string) ([]announcement.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements
		WHERE tenant_id = $1 ORDER BY publish_at DESC`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var out []announcement.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
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
