package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/audit"
	"peopleops/internal/transport/http/shared"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the ledger the HTTP layer needs.
type Service interface {
	Append(ctx context.Context, in audit.Input) (*audit.Entry, error)
	List(ctx context.Context, filter audit.Filter) ([]audit.Entry, int, error)
	FindByCorrelation(ctx context.Context, correlationID string) ([]audit.Entry, error)
	SuspiciousActivities(ctx context.Context, tenantID string, window time.Duration) ([]audit.Entry, error)
	FailedLogins(ctx context.Context, tenantID string, filter audit.Filter) ([]audit.Entry, int, error)
	Export(ctx context.Context, filter audit.Filter) (*audit.ExportResult, error)
	CleanupOldLogs(ctx context.Context, days int, requestedBy string) (int, error)
	VerifyFilter(ctx context.Context, filter audit.Filter) ([]id.EntryID, error)
}

// Handler serves the read-only /security-audit endpoints and the
// /permission-audit trail.
type Handler struct {
	logger *slog.Logger
	ledger Service
}

func New(ledger Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, ledger: ledger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/security-audit", func(r chi.Router) {
		r.Get("/logs", h.handleGetLogs)
		r.Get("/suspicious-activities", h.handleSuspicious)
		r.Get("/failed-logins", h.handleFailedLogins)
		r.Get("/export", h.handleExport)
		r.Get("/verify", h.handleVerify)
		r.Post("/cleanup", h.handleCleanup)
	})
	r.Route("/permission-audit", func(r chi.Router) {
		r.Get("/logs", h.handlePermissionLogs)
		r.Get("/correlation/{correlationID}", h.handleByCorrelation)
		r.Post("/record", h.handleRecordPermissionChange)
	})
}

func filterFromQuery(r *http.Request) audit.Filter {
	q := r.URL.Query()
	filter := audit.Filter{
		TenantID: requestcontext.TenantID(r.Context()),
		UserID:   q.Get("userId"),
		Action:   q.Get("action"),
		Resource: q.Get("resource"),
		Category: audit.Category(q.Get("category")),
		Severity: audit.Severity(q.Get("severity")),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("pageSize"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = t
		}
	}
	return filter
}

func (h *Handler) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := filterFromQuery(r)
	logs, total, err := h.ledger.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit logs",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	if logs == nil {
		logs = []audit.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"logs":       logs,
		"pagination": shared.NewPagination(filter.Page, filter.PageSize, total),
	})
}

func (h *Handler) handleSuspicious(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	window := 7 * 24 * time.Hour
	if raw := r.URL.Query().Get("windowHours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "windowHours must be a positive integer"))
			return
		}
		window = time.Duration(hours) * time.Hour
	}
	activities, err := h.ledger.SuspiciousActivities(ctx, requestcontext.TenantID(ctx), window)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if activities == nil {
		activities = []audit.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"activities": activities,
	})
}

func (h *Handler) handleFailedLogins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := filterFromQuery(r)
	logs, total, err := h.ledger.FailedLogins(ctx, requestcontext.TenantID(ctx), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if logs == nil {
		logs = []audit.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"logs":       logs,
		"pagination": shared.NewPagination(filter.Page, filter.PageSize, total),
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := filterFromQuery(r)
	result, err := h.ledger.Export(ctx, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tampered, err := h.ledger.VerifyFilter(ctx, audit.Filter{TenantID: requestcontext.TenantID(ctx)})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	ids := make([]string, 0, len(tampered))
	for _, entryID := range tampered {
		ids = append(ids, entryID.String())
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  len(ids) == 0,
		"tampered": ids,
	})
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		OlderThanDays int `json:"olderThanDays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	deleted, err := h.ledger.CleanupOldLogs(ctx, req.OlderThanDays, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "audit cleanup failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   map[string]int{"deleted": deleted},
	})
}

func (h *Handler) handlePermissionLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := filterFromQuery(r)
	filter.Category = audit.CategoryPermission
	logs, total, err := h.ledger.List(ctx, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if logs == nil {
		logs = []audit.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"logs":       logs,
		"pagination": shared.NewPagination(filter.Page, filter.PageSize, total),
	})
}

func (h *Handler) handleByCorrelation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := chi.URLParam(r, "correlationID")
	logs, err := h.ledger.FindByCorrelation(ctx, correlationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if logs == nil {
		logs = []audit.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"logs":    logs,
	})
}

type recordPermissionRequest struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resourceId"`
	TargetUser string         `json:"targetUser"`
	Before     map[string]any `json:"before"`
	After      map[string]any `json:"after"`
	Fields     []string       `json:"fields"`
}

func (h *Handler) handleRecordPermissionChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req recordPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	entry, err := h.ledger.Append(ctx, audit.Input{
		Action:        req.Action,
		Resource:      req.Resource,
		ResourceID:    req.ResourceID,
		UserID:        requestcontext.UserID(ctx),
		TenantID:      requestcontext.TenantID(ctx),
		Category:      audit.CategoryPermission,
		CorrelationID: requestcontext.RequestID(ctx),
		Changes: audit.Changes{
			Before: req.Before,
			After:  req.After,
			Fields: req.Fields,
		},
		RetentionPolicy: audit.RetentionExtended,
		IP:              requestcontext.ClientIP(ctx),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "failed to record permission change",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"logs":    []audit.Entry{*entry},
	})
}
