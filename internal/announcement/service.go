package announcement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"peopleops/internal/audit"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/platform/sentinel"
	"peopleops/pkg/requestcontext"
)

// Store persists announcements.
type Store interface {
	Create(ctx context.Context, a *Announcement) error
	Get(ctx context.Context, announcementID id.AnnouncementID) (*Announcement, error)
	Update(ctx context.Context, a *Announcement) error
	Delete(ctx context.Context, announcementID id.AnnouncementID) error
	List(ctx context.Context, tenantID string) ([]Announcement, error)
}

// Auditor is the slice of the audit ledger the service emits into.
type Auditor interface {
	Append(ctx context.Context, in audit.Input) (*audit.Entry, error)
}

type Service struct {
	store   Store
	auditor Auditor
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input carries create/update fields for an announcement.
type Input struct {
	Title     string
	Body      string
	PublishAt time.Time
	ExpiresAt time.Time
}

func (s *Service) Create(ctx context.Context, tenantID string, in Input, createdBy string) (*Announcement, error) {
	a, err := NewAnnouncement(id.AnnouncementID(uuid.New()), tenantID,
		in.Title, in.Body, in.PublishAt, in.ExpiresAt, createdBy, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, wrapAnnouncementErr(err)
	}
	s.audit(ctx, "announcement_created", a.ID.String(), createdBy, tenantID)
	return a, nil
}

func (s *Service) Get(ctx context.Context, announcementID id.AnnouncementID) (*Announcement, error) {
	a, err := s.store.Get(ctx, announcementID)
	if err != nil {
		return nil, wrapAnnouncementErr(err)
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, announcementID id.AnnouncementID, in Input, updatedBy string) (*Announcement, error) {
	a, err := s.store.Get(ctx, announcementID)
	if err != nil {
		return nil, wrapAnnouncementErr(err)
	}
	if in.Title != "" {
		a.Title = in.Title
	}
	if in.Body != "" {
		a.Body = in.Body
	}
	if !in.PublishAt.IsZero() {
		a.PublishAt = in.PublishAt
	}
	if !in.ExpiresAt.IsZero() {
		a.ExpiresAt = in.ExpiresAt
	}
	if !a.ExpiresAt.IsZero() && !a.ExpiresAt.After(a.PublishAt) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "expiresAt must be after publishAt")
	}
	a.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, a); err != nil {
		return nil, wrapAnnouncementErr(err)
	}
	s.audit(ctx, "announcement_updated", a.ID.String(), updatedBy, a.TenantID)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, announcementID id.AnnouncementID, deletedBy string) error {
	a, err := s.store.Get(ctx, announcementID)
	if err != nil {
		return wrapAnnouncementErr(err)
	}
	if err := s.store.Delete(ctx, announcementID); err != nil {
		return wrapAnnouncementErr(err)
	}
	s.audit(ctx, "announcement_deleted", announcementID.String(), deletedBy, a.TenantID)
	return nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Announcement, error) {
	out, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, wrapAnnouncementErr(err)
	}
	return out, nil
}

// ListVisible returns only announcements inside their publish window at
// the request time.
func (s *Service) ListVisible(ctx context.Context, tenantID string) ([]Announcement, error) {
	all, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, wrapAnnouncementErr(err)
	}
	now := requestcontext.Now(ctx)
	visible := make([]Announcement, 0, len(all))
	for i := range all {
		if all[i].IsVisible(now) {
			visible = append(visible, all[i])
		}
	}
	return visible, nil
}

func (s *Service) audit(ctx context.Context, action, resourceID, userID, tenantID string) {
	if s.auditor == nil {
		return
	}
	correlationID := requestcontext.RequestID(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	if _, err := s.auditor.Append(ctx, audit.Input{
		Action:        action,
		Resource:      "announcement",
		ResourceID:    resourceID,
		UserID:        userID,
		TenantID:      tenantID,
		Category:      audit.CategoryDataChange,
		CorrelationID: correlationID,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to append audit entry",
			"action", action, "error", err)
	}
}

func wrapAnnouncementErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "announcement not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "announcement already exists")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "announcement store failure")
	}
}
