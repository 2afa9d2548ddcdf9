package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"peopleops/internal/notification"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// Postgres stores notifications.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const notificationColumns = `
	id, tenant_id, recipient_id, kind, title, body, related_id, read, read_at, created_at`

func (s *Postgres) Create(ctx context.Context, n *notification.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(n.ID), n.TenantID, uuid.UUID(n.RecipientID), string(n.Kind),
		n.Title, n.Body, n.RelatedID, n.Read, nullTime(n.ReadAt), n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func scanNotification(row interface{ Scan(...any) error }) (*notification.Notification, error) {
	var (
		n        notification.Notification
		nid, rid uuid.UUID
		kind     string
		readAt   sql.NullTime
	)
	err := row.Scan(&nid, &n.TenantID, &rid, &kind, &n.Title, &n.Body,
		&n.RelatedID, &n.Read, &readAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.ID = id.NotificationID(nid)
	n.RecipientID = id.EmployeeID(rid)
	n.Kind = notification.Kind(kind)
	if readAt.Valid {
		n.ReadAt = readAt.Time
	}
	return &n, nil
}

func (s *Postgres) Get(ctx context.Context, notificationID id.NotificationID) (*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(s.db.QueryRowContext(ctx, query, uuid.UUID(notificationID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query notification: %w", err)
	}
	return n, nil
}

func (s *Postgres) Update(ctx context.Context, n *notification.Notification) error {
	query := `UPDATE notifications SET read = $2, read_at = $3 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(n.ID), n.Read, nullTime(n.ReadAt))
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, notificationID id.NotificationID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, uuid.UUID(notificationID))
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListByRecipient(ctx context.Context, tenantID string, recipientID id.EmployeeID) ([]notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE tenant_id = $1 AND recipient_id = $2 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, tenantID, uuid.UUID(recipientID))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (s *Postgres) CountUnread(ctx context.Context, tenantID string, recipientID id.EmployeeID) (int, error) {
	query := `SELECT count(*) FROM notifications
		WHERE tenant_id = $1 AND recipient_id = $2 AND NOT read`
	var count int
	if err := s.db.QueryRowContext(ctx, query, tenantID, uuid.UUID(recipientID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
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
