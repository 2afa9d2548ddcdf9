// Package announcement owns tenant-wide announcements with a publish
// window.
package announcement

import (
	"strings"
	"time"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

// Announcement is a broadcast message visible during its publish window.
type Announcement struct {
	ID        id.AnnouncementID `json:"id"`
	TenantID  string            `json:"tenantId"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	PublishAt time.Time         `json:"publishAt"`
	ExpiresAt time.Time         `json:"expiresAt,omitzero"`
	CreatedBy string            `json:"createdBy"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// NewAnnouncement validates and builds an announcement, collecting every
// violation. A zero PublishAt means publish immediately; a zero ExpiresAt
// means it never expires.
func NewAnnouncement(announcementID id.AnnouncementID, tenantID, title, body string, publishAt, expiresAt time.Time, createdBy string, now time.Time) (*Announcement, error) {
	var violations []string
	if strings.TrimSpace(title) == "" {
		violations = append(violations, "title is required")
	}
	if strings.TrimSpace(body) == "" {
		violations = append(violations, "body is required")
	}
	if publishAt.IsZero() {
		publishAt = now
	}
	if !expiresAt.IsZero() && !expiresAt.After(publishAt) {
		violations = append(violations, "expiresAt must be after publishAt")
	}
	if len(violations) > 0 {
		return nil, dErrors.NewValidation("invalid announcement", violations)
	}
	return &Announcement{
		ID:        announcementID,
		TenantID:  tenantID,
		Title:     strings.TrimSpace(title),
		Body:      body,
		PublishAt: publishAt,
		ExpiresAt: expiresAt,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsVisible reports whether the announcement is inside its publish window.
func (a *Announcement) IsVisible(now time.Time) bool {
	if now.Before(a.PublishAt) {
		return false
	}
	if !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt) {
		return false
	}
	return true
}
