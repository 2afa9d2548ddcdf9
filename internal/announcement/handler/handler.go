package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/announcement"
	"peopleops/internal/transport/http/shared"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the announcement service the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, tenantID string, in announcement.Input, createdBy string) (*announcement.Announcement, error)
	Get(ctx context.Context, announcementID id.AnnouncementID) (*announcement.Announcement, error)
	Update(ctx context.Context, announcementID id.AnnouncementID, in announcement.Input, updatedBy string) (*announcement.Announcement, error)
	Delete(ctx context.Context, announcementID id.AnnouncementID, deletedBy string) error
	List(ctx context.Context, tenantID string) ([]announcement.Announcement, error)
	ListVisible(ctx context.Context, tenantID string) ([]announcement.Announcement, error)
}

// Handler serves the /announcements endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/announcements", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/visible", h.handleListVisible)
		r.Route("/{announcementID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
		})
	})
}

type announcementRequest struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	PublishAt time.Time `json:"publishAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (req announcementRequest) toInput() announcement.Input {
	return announcement.Input{
		Title:     req.Title,
		Body:      req.Body,
		PublishAt: req.PublishAt,
		ExpiresAt: req.ExpiresAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req announcementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	created, err := h.service.Create(ctx, requestcontext.TenantID(ctx), req.toInput(), requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "announcement": created})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	announcements, err := h.service.List(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if announcements == nil {
		announcements = []announcement.Announcement{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "announcements": announcements})
}

func (h *Handler) handleListVisible(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	announcements, err := h.service.ListVisible(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if announcements == nil {
		announcements = []announcement.Announcement{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "announcements": announcements})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	announcementID, err := id.ParseAnnouncementID(chi.URLParam(r, "announcementID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	got, err := h.service.Get(r.Context(), announcementID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "announcement": got})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	announcementID, err := id.ParseAnnouncementID(chi.URLParam(r, "announcementID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req announcementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.service.Update(ctx, announcementID, req.toInput(), requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "announcement": updated})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	announcementID, err := id.ParseAnnouncementID(chi.URLParam(r, "announcementID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, announcementID, requestcontext.UserID(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
