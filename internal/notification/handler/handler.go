package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/notification"
	"peopleops/internal/transport/http/shared"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the notification service the HTTP layer needs.
type Service interface {
	Dispatch(ctx context.Context, tenantID string, in notification.Input) (*notification.Notification, error)
	Inbox(ctx context.Context, tenantID string, recipientID id.EmployeeID) ([]notification.Notification, int, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID) (*notification.Notification, error)
	MarkAllRead(ctx context.Context, tenantID string, recipientID id.EmployeeID) (int, error)
	Delete(ctx context.Context, notificationID id.NotificationID) error
}

// Handler serves the /notifications endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleInbox)
		r.Post("/", h.handleDispatch)
		r.Post("/markAllRead", h.handleMarkAllRead)
		r.Route("/{notificationID}", func(r chi.Router) {
			r.Post("/markRead", h.handleMarkRead)
			r.Delete("/", h.handleDelete)
		})
	})
}

type dispatchRequest struct {
	RecipientID string `json:"recipientId"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	RelatedID   string `json:"relatedId"`
}

func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	recipientID, err := id.ParseEmployeeID(req.RecipientID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	n, err := h.service.Dispatch(ctx, requestcontext.TenantID(ctx), notification.Input{
		RecipientID: recipientID,
		Kind:        notification.Kind(req.Kind),
		Title:       req.Title,
		Body:        req.Body,
		RelatedID:   req.RelatedID,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	// Persistence is asynchronous; the record is accepted, not yet stored.
	shared.WriteJSON(w, http.StatusAccepted, map[string]any{
		"success":      true,
		"notification": n,
	})
}

// recipientFromRequest resolves the inbox owner: an explicit query
// parameter, or the authenticated user.
func recipientFromRequest(r *http.Request) (id.EmployeeID, error) {
	raw := r.URL.Query().Get("recipientId")
	if raw == "" {
		raw = requestcontext.UserID(r.Context())
	}
	return id.ParseEmployeeID(raw)
}

func (h *Handler) handleInbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recipientID, err := recipientFromRequest(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	notifications, unread, err := h.service.Inbox(ctx, requestcontext.TenantID(ctx), recipientID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if notifications == nil {
		notifications = []notification.Notification{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	n, err := h.service.MarkRead(r.Context(), notificationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"notification": n,
	})
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recipientID, err := recipientFromRequest(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	marked, err := h.service.MarkAllRead(ctx, requestcontext.TenantID(ctx), recipientID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"markedCount": marked,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), notificationID); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
