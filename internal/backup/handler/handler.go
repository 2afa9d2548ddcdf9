package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/backup"
	"peopleops/internal/transport/http/shared"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the backup service the HTTP layer needs.
type Service interface {
	Request(ctx context.Context, tenantID, requestedBy string) (*backup.Run, error)
	Get(ctx context.Context, backupID id.BackupID) (*backup.Run, error)
	List(ctx context.Context, tenantID string) ([]backup.Run, error)
	MarkCompleted(ctx context.Context, backupID id.BackupID, sizeBytes int64, location, reportedBy string) (*backup.Run, error)
	MarkFailed(ctx context.Context, backupID id.BackupID, reason, reportedBy string) (*backup.Run, error)
}

// Handler serves the /backups endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/backups", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleRequest)
		r.Route("/{backupID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/complete", h.handleComplete)
			r.Post("/fail", h.handleFail)
		})
	})
}

func backupIDParam(r *http.Request) (id.BackupID, error) {
	return id.ParseBackupID(chi.URLParam(r, "backupID"))
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	run, err := h.service.Request(ctx, requestcontext.TenantID(ctx), requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "backup": run})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runs, err := h.service.List(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if runs == nil {
		runs = []backup.Run{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "backups": runs})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	backupID, err := backupIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	run, err := h.service.Get(r.Context(), backupID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "backup": run})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	backupID, err := backupIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		SizeBytes int64  `json:"sizeBytes"`
		Location  string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	run, err := h.service.MarkCompleted(ctx, backupID, req.SizeBytes, req.Location, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "backup": run})
}

func (h *Handler) handleFail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	backupID, err := backupIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	run, err := h.service.MarkFailed(ctx, backupID, req.Reason, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "backup": run})
}
