package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/report"
	"peopleops/internal/transport/http/shared"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the reporting service the HTTP layer needs.
type Service interface {
	Headcount(ctx context.Context, tenantID string) ([]report.HeadcountRow, error)
	LeaveUsage(ctx context.Context, tenantID string, year int) ([]report.LeaveUsageRow, error)
	AuditVolume(ctx context.Context, tenantID string, from, to time.Time) ([]report.AuditVolumeRow, error)
}

// Handler serves the /reports endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/headcount", h.handleHeadcount)
		r.Get("/leaveUsage", h.handleLeaveUsage)
		r.Get("/auditVolume", h.handleAuditVolume)
	})
}

func (h *Handler) handleHeadcount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := h.service.Headcount(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "headcount": rows})
}

func (h *Handler) handleLeaveUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year := requestcontext.Now(ctx).Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			shared.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "year must be a number, got %q", raw))
			return
		}
		year = parsed
	}
	rows, err := h.service.LeaveUsage(ctx, requestcontext.TenantID(ctx), year)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "leaveUsage": rows})
}

func (h *Handler) handleAuditVolume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from, err := queryTime(r, "from")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rows, err := h.service.AuditVolume(ctx, requestcontext.TenantID(ctx), from, to)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "auditVolume": rows})
}

func queryTime(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeBadRequest, "%s must be an RFC 3339 timestamp, got %q", key, raw)
	}
	return t, nil
}
