package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/platform/sentinel"
	"peopleops/pkg/requestcontext"
)

const inboxSize = 1024

// Store persists notification records.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, notificationID id.NotificationID) (*Notification, error)
	Update(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, notificationID id.NotificationID) error
	ListByRecipient(ctx context.Context, tenantID string, recipientID id.EmployeeID) ([]Notification, error)
	CountUnread(ctx context.Context, tenantID string, recipientID id.EmployeeID) (int, error)
}

// Streamer mirrors dispatched notifications onto an event stream; the
// audit stream publisher satisfies the same shape for its own records.
type Streamer interface {
	PublishNotification(n *Notification)
}

// Service owns notification dispatch and the recipient inbox. Dispatch is
// decoupled from persistence by a channel-fed worker so that bulk senders
// (survey assignment, announcements) never wait on the store.
type Service struct {
	store    Store
	streamer Streamer
	logger   *slog.Logger
	inbox    chan *Notification
	done     chan struct{}
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithStreamer(st Streamer) Option {
	return func(s *Service) { s.streamer = st }
}

// NewService starts the dispatch worker. Call Close to drain it.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		inbox:  make(chan *Notification, inboxSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

func (s *Service) run() {
	defer close(s.done)
	for n := range s.inbox {
		if err := s.store.Create(context.Background(), n); err != nil {
			s.logger.Error("failed to persist notification",
				"notification_id", n.ID.String(),
				"recipient_id", n.RecipientID.String(),
				"error", err)
			continue
		}
		if s.streamer != nil {
			s.streamer.PublishNotification(n)
		}
	}
}

// Close drains queued notifications and stops the worker.
func (s *Service) Close() {
	close(s.inbox)
	<-s.done
}

// Input carries a dispatch request.
type Input struct {
	RecipientID id.EmployeeID
	Kind        Kind
	Title       string
	Body        string
	RelatedID   string
}

// Dispatch validates and enqueues a notification. The returned record is
// the enqueued one; persistence completes asynchronously. A full inbox is
// reported as unavailability rather than blocking the caller.
func (s *Service) Dispatch(ctx context.Context, tenantID string, in Input) (*Notification, error) {
	n, err := NewNotification(id.NotificationID(uuid.New()), tenantID,
		in.RecipientID, in.Kind, in.Title, in.Body, in.RelatedID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	select {
	case s.inbox <- n:
		return n, nil
	default:
		return nil, dErrors.New(dErrors.CodeInternal, "notification dispatch queue is full")
	}
}

// DispatchAll fans one message out to many recipients.
func (s *Service) DispatchAll(ctx context.Context, tenantID string, recipients []id.EmployeeID, in Input) ([]Notification, error) {
	out := make([]Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		in.RecipientID = recipientID
		n, err := s.Dispatch(ctx, tenantID, in)
		if err != nil {
			return out, err
		}
		out = append(out, *n)
	}
	return out, nil
}

// Inbox returns a recipient's notifications, newest first.
func (s *Service) Inbox(ctx context.Context, tenantID string, recipientID id.EmployeeID) ([]Notification, int, error) {
	notifications, err := s.store.ListByRecipient(ctx, tenantID, recipientID)
	if err != nil {
		return nil, 0, wrapNotificationErr(err)
	}
	unread, err := s.store.CountUnread(ctx, tenantID, recipientID)
	if err != nil {
		return nil, 0, wrapNotificationErr(err)
	}
	return notifications, unread, nil
}

func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID) (*Notification, error) {
	n, err := s.store.Get(ctx, notificationID)
	if err != nil {
		return nil, wrapNotificationErr(err)
	}
	n.MarkRead(requestcontext.Now(ctx))
	if err := s.store.Update(ctx, n); err != nil {
		return nil, wrapNotificationErr(err)
	}
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, tenantID string, recipientID id.EmployeeID) (int, error) {
	notifications, err := s.store.ListByRecipient(ctx, tenantID, recipientID)
	if err != nil {
		return 0, wrapNotificationErr(err)
	}
	now := requestcontext.Now(ctx)
	marked := 0
	for i := range notifications {
		if notifications[i].Read {
			continue
		}
		notifications[i].MarkRead(now)
		if err := s.store.Update(ctx, &notifications[i]); err != nil {
			return marked, wrapNotificationErr(err)
		}
		marked++
	}
	return marked, nil
}

func (s *Service) Delete(ctx context.Context, notificationID id.NotificationID) error {
	if err := s.store.Delete(ctx, notificationID); err != nil {
		return wrapNotificationErr(err)
	}
	return nil
}

func wrapNotificationErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "notification store failure")
	}
}
