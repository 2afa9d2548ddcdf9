// Package handler exposes the login throttle to the auth collaborator. The
// identity provider calls these endpoints around each credential check.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/security/lockout"
	"peopleops/internal/transport/http/shared"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the lockout service the HTTP layer needs.
type Service interface {
	Check(ctx context.Context, tenantID, identifier, ip string) (*lockout.Status, error)
	RecordFailure(ctx context.Context, tenantID, identifier, ip string) (*lockout.Status, error)
	Clear(ctx context.Context, tenantID, identifier, ip string) error
}

// Handler serves the /lockout endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/lockout", func(r chi.Router) {
		r.Post("/check", h.handle(h.service.Check))
		r.Post("/recordFailure", h.handle(h.service.RecordFailure))
		r.Post("/clear", h.handleClear)
	})
}

type attemptRequest struct {
	Identifier string `json:"identifier"`
	IP         string `json:"ip"`
}

func (req *attemptRequest) resolve(ctx context.Context) (string, string, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "identifier is required")
	}
	ip := req.IP
	if ip == "" {
		ip = requestcontext.ClientIP(ctx)
	}
	return identifier, ip, nil
}

func (h *Handler) handle(op func(ctx context.Context, tenantID, identifier, ip string) (*lockout.Status, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req attemptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
		identifier, ip, err := req.resolve(ctx)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		status, err := op(ctx, requestcontext.TenantID(ctx), identifier, ip)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "lockout": status})
	}
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	identifier, ip, err := req.resolve(ctx)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Clear(ctx, requestcontext.TenantID(ctx), identifier, ip); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
