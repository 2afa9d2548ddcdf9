package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/security"
	"peopleops/internal/transport/http/shared"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the security settings service the HTTP layer
// needs.
type Service interface {
	EnsureSettings(ctx context.Context, tenantID string) (*security.Settings, error)
	UpdateSettings(ctx context.Context, tenantID string, in security.UpdateInput, modifiedBy string) (*security.Settings, error)
	TestPassword(ctx context.Context, tenantID, candidate string) (security.PasswordCheck, error)
	IsIPWhitelisted(ctx context.Context, tenantID, ip string) (bool, error)
}

// Handler serves the /security-settings endpoints. Each policy section is
// also addressable as its own sub-resource.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/security-settings", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Put("/", h.handleUpdate)
		r.Put("/password-policy", h.sectionUpdate(func(in *security.UpdateInput, raw json.RawMessage) error {
			in.PasswordPolicy = &security.PasswordPolicy{}
			return json.Unmarshal(raw, in.PasswordPolicy)
		}))
		r.Put("/lockout", h.sectionUpdate(func(in *security.UpdateInput, raw json.RawMessage) error {
			in.Lockout = &security.Lockout{}
			return json.Unmarshal(raw, in.Lockout)
		}))
		r.Put("/2fa", h.sectionUpdate(func(in *security.UpdateInput, raw json.RawMessage) error {
			in.TwoFactor = &security.TwoFactor{}
			return json.Unmarshal(raw, in.TwoFactor)
		}))
		r.Put("/ip-whitelist", h.sectionUpdate(func(in *security.UpdateInput, raw json.RawMessage) error {
			in.IPWhitelist = &security.IPWhitelist{}
			return json.Unmarshal(raw, in.IPWhitelist)
		}))
		r.Put("/session", h.sectionUpdate(func(in *security.UpdateInput, raw json.RawMessage) error {
			in.Session = &security.Session{}
			return json.Unmarshal(raw, in.Session)
		}))
		r.Put("/audit", h.sectionUpdate(func(in *security.UpdateInput, raw json.RawMessage) error {
			in.Audit = &security.AuditSettings{}
			return json.Unmarshal(raw, in.Audit)
		}))
		r.Post("/testPassword", h.handleTestPassword)
		r.Get("/check-ip", h.handleCheckIP)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	settings, err := h.service.EnsureSettings(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load security settings",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"settings": settings,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var in security.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	h.update(w, r, in)
}

// sectionUpdate adapts a single-section body into a partial update.
func (h *Handler) sectionUpdate(bind func(*security.UpdateInput, json.RawMessage) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
		var in security.UpdateInput
		if err := bind(&in, raw); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
		h.update(w, r, in)
	}
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, in security.UpdateInput) {
	ctx := r.Context()
	settings, err := h.service.UpdateSettings(ctx, requestcontext.TenantID(ctx), in, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"settings": settings,
	})
}

func (h *Handler) handleTestPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	check, err := h.service.TestPassword(ctx, requestcontext.TenantID(ctx), req.Password)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) handleCheckIP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		ip = requestcontext.ClientIP(ctx)
	}
	allowed, err := h.service.IsIPWhitelisted(ctx, requestcontext.TenantID(ctx), ip)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"allowed": allowed,
	})
}
