// Package notification owns in-app notification records. Dispatch is
// asynchronous: callers enqueue, a worker persists and streams. External
// delivery channels (email, push) are not this package's concern.
package notification

import (
	"strings"
	"time"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

// Kind classifies what triggered the notification.
type Kind string

const (
	KindSystem           Kind = "system"
	KindAnnouncement     Kind = "announcement"
	KindSurveyAssignment Kind = "survey_assignment"
)

func (k Kind) Valid() bool {
	return k == KindSystem || k == KindAnnouncement || k == KindSurveyAssignment
}

// Notification is one inbox entry for one recipient.
type Notification struct {
	ID          id.NotificationID `json:"id"`
	TenantID    string            `json:"tenantId"`
	RecipientID id.EmployeeID     `json:"recipientId"`
	Kind        Kind              `json:"kind"`
	Title       string            `json:"title"`
	Body        string            `json:"body,omitempty"`
	RelatedID   string            `json:"relatedId,omitempty"`
	Read        bool              `json:"read"`
	ReadAt      time.Time         `json:"readAt,omitzero"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// NewNotification validates and builds an unread notification.
func NewNotification(notificationID id.NotificationID, tenantID string, recipientID id.EmployeeID, kind Kind, title, body, relatedID string, now time.Time) (*Notification, error) {
	var violations []string
	if recipientID.IsNil() {
		violations = append(violations, "recipientId is required")
	}
	if kind == "" {
		kind = KindSystem
	}
	if !kind.Valid() {
		violations = append(violations, "kind must be system, announcement or survey_assignment")
	}
	if strings.TrimSpace(title) == "" {
		violations = append(violations, "title is required")
	}
	if len(violations) > 0 {
		return nil, dErrors.NewValidation("invalid notification", violations)
	}
	return &Notification{
		ID:          notificationID,
		TenantID:    tenantID,
		RecipientID: recipientID,
		Kind:        kind,
		Title:       strings.TrimSpace(title),
		Body:        body,
		RelatedID:   relatedID,
		CreatedAt:   now,
	}, nil
}

// MarkRead is idempotent; the first read wins the timestamp.
func (n *Notification) MarkRead(now time.Time) {
	if n.Read {
		return
	}
	n.Read = true
	n.ReadAt = now
}
