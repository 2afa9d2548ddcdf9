package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/notification"
	"peopleops/internal/survey"
	"peopleops/internal/transport/http/shared"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the survey service the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, tenantID string, in survey.Input, createdBy string) (*survey.Survey, error)
	Get(ctx context.Context, surveyID id.SurveyID) (*survey.Survey, error)
	List(ctx context.Context, tenantID string) ([]survey.Survey, error)
	Update(ctx context.Context, surveyID id.SurveyID, in survey.Input, updatedBy string) (*survey.Survey, error)
	Delete(ctx context.Context, surveyID id.SurveyID, deletedBy string) error
	Open(ctx context.Context, surveyID id.SurveyID, openedBy string) (*survey.Survey, error)
	CloseSurvey(ctx context.Context, surveyID id.SurveyID, closedBy string) (*survey.Survey, error)
	Assign(ctx context.Context, surveyID id.SurveyID, recipients []id.EmployeeID, assignedBy string) ([]notification.Notification, error)
}

// Handler serves the /surveys endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/surveys", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{surveyID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/open", h.handleOpen)
			r.Post("/close", h.handleClose)
			r.Post("/assign", h.handleAssign)
		})
	})
}

func surveyIDParam(r *http.Request) (id.SurveyID, error) {
	return id.ParseSurveyID(chi.URLParam(r, "surveyID"))
}

type surveyRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []survey.Question `json:"questions"`
}

func (req surveyRequest) toInput() survey.Input {
	return survey.Input{
		Title:       req.Title,
		Description: req.Description,
		Questions:   req.Questions,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req surveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	created, err := h.service.Create(ctx, requestcontext.TenantID(ctx), req.toInput(), requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "survey": created})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	surveys, err := h.service.List(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if surveys == nil {
		surveys = []survey.Survey{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "surveys": surveys})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	surveyID, err := surveyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	got, err := h.service.Get(r.Context(), surveyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "survey": got})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	surveyID, err := surveyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req surveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.service.Update(ctx, surveyID, req.toInput(), requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "survey": updated})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	surveyID, err := surveyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, surveyID, requestcontext.UserID(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	surveyID, err := surveyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	opened, err := h.service.Open(ctx, surveyID, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "survey": opened})
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	surveyID, err := surveyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	closed, err := h.service.CloseSurvey(ctx, surveyID, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "survey": closed})
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	surveyID, err := surveyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		EmployeeIDs []string `json:"employeeIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	recipients := make([]id.EmployeeID, 0, len(req.EmployeeIDs))
	for _, raw := range req.EmployeeIDs {
		employeeID, err := id.ParseEmployeeID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		recipients = append(recipients, employeeID)
	}
	sent, err := h.service.Assign(ctx, surveyID, recipients, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"notifications": sent,
	})
}
