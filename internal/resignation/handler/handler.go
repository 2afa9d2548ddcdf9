package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/resignation"
	"peopleops/internal/transport/http/shared"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the resignation service the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, tenantID string, in resignation.CreateInput, createdBy string) (*resignation.Record, error)
	Get(ctx context.Context, employeeID id.EmployeeID) (*resignation.Record, error)
	List(ctx context.Context, tenantID string) ([]resignation.Record, error)
	Delete(ctx context.Context, employeeID id.EmployeeID, deletedBy string) error
	AddPenalty(ctx context.Context, employeeID id.EmployeeID, penalty resignation.Penalty, addedBy string) (*resignation.Record, error)
	RemovePenalty(ctx context.Context, employeeID id.EmployeeID, index int, removedBy string) (*resignation.Record, error)
	UpdateResignationType(ctx context.Context, employeeID id.EmployeeID, t resignation.Type, updatedBy string) (*resignation.Record, error)
	UpdateStatus(ctx context.Context, employeeID id.EmployeeID, status resignation.Status, updatedBy string) (*resignation.Record, error)
	GenerateLetter(ctx context.Context, employeeID id.EmployeeID) (*resignation.Letter, error)
}

// Handler serves the /resigned-employees endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/resigned-employees", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Post("/penalties", h.handleAddPenalty)
			r.Delete("/penalties/{index}", h.handleRemovePenalty)
			r.Put("/type", h.handleUpdateType)
			r.Put("/status", h.handleUpdateStatus)
			r.Get("/letter", h.handleLetter)
		})
	})
}

func employeeIDParam(r *http.Request) (id.EmployeeID, error) {
	return id.ParseEmployeeID(chi.URLParam(r, "employeeID"))
}

type createRequest struct {
	EmployeeID      string    `json:"employeeId"`
	ResignationType string    `json:"resignationType"`
	ResignationDate time.Time `json:"resignationDate"`
	LastWorkingDay  time.Time `json:"lastWorkingDay"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	employeeID, err := id.ParseEmployeeID(req.EmployeeID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.service.Create(ctx, requestcontext.TenantID(ctx), resignation.CreateInput{
		EmployeeID:      employeeID,
		ResignationType: resignation.Type(req.ResignationType),
		ResignationDate: req.ResignationDate,
		LastWorkingDay:  req.LastWorkingDay,
	}, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"record":  record,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.service.List(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if records == nil {
		records = []resignation.Record{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"records": records,
	})
}

func (h *Handler) handleLetter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := employeeIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	letter, err := h.service.GenerateLetter(ctx, employeeID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"letter":  letter,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := employeeIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.service.Get(ctx, employeeID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  record,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := employeeIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, employeeID, requestcontext.UserID(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

type penaltyRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

func (h *Handler) handleAddPenalty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := employeeIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req penaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, err := h.service.AddPenalty(ctx, employeeID, resignation.Penalty{
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
	}, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "penalty rejected",
			"employee_id", employeeID.String(), "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  record,
	})
}

func (h *Handler) handleRemovePenalty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := employeeIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "penalty index must be an integer"))
		return
	}
	record, err := h.service.RemovePenalty(ctx, employeeID, index, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  record,
	})
}

func (h *Handler) handleUpdateType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := employeeIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		ResignationType string `json:"resignationType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, err := h.service.UpdateResignationType(ctx, employeeID,
		resignation.Type(req.ResignationType), requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  record,
	})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := employeeIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, err := h.service.UpdateStatus(ctx, employeeID,
		resignation.Status(req.Status), requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  record,
	})
}
