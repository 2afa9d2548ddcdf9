package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/employee"
	"peopleops/internal/transport/http/shared"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the employee service the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, tenantID string, in employee.CreateInput, createdBy string) (*employee.Employee, error)
	Get(ctx context.Context, employeeID id.EmployeeID) (*employee.Detail, error)
	List(ctx context.Context, tenantID string) ([]employee.Detail, error)
	Update(ctx context.Context, employeeID id.EmployeeID, in employee.UpdateInput, updatedBy string) (*employee.Employee, error)
	Delete(ctx context.Context, employeeID id.EmployeeID, deletedBy string) error
	ChangeRole(ctx context.Context, employeeID id.EmployeeID, role employee.Role, changedBy string) (*employee.Employee, error)
}

// Handler serves the /users endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Put("/role", h.handleChangeRole)
		})
	})
}

func employeeIDParam(r *http.Request) (id.EmployeeID, error) {
	return id.ParseEmployeeID(chi.URLParam(r, "employeeID"))
}

type createRequest struct {
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Password     string    `json:"password"`
	DepartmentID string    `json:"departmentId"`
	PositionID   string    `json:"positionId"`
	SchoolID     string    `json:"schoolId"`
	HireDate     time.Time `json:"hireDate"`
	Role         string    `json:"role"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	in := employee.CreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		HireDate:  req.HireDate,
		Role:      employee.Role(req.Role),
	}
	if req.DepartmentID != "" {
		departmentID, err := id.ParseDepartmentID(req.DepartmentID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		in.DepartmentID = departmentID
	}
	if req.PositionID != "" {
		positionID, err := id.ParsePositionID(req.PositionID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		in.PositionID = positionID
	}
	if req.SchoolID != "" {
		schoolID, err := id.ParseSchoolID(req.SchoolID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		in.SchoolID = schoolID
	}
	created, err := h.service.Create(ctx, requestcontext.TenantID(ctx), in, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    created,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := h.service.List(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if users == nil {
		users = []employee.Detail{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := employeeIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	detail, err := h.service.Get(ctx, employeeID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    detail,
	})
}

type updateRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DepartmentID string `json:"departmentId"`
	PositionID   string `json:"positionId"`
	SchoolID     string `json:"schoolId"`
	Status       string `json:"status"`
	Role         string `json:"role"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := employeeIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	in := employee.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Status:    employee.Status(req.Status),
		Role:      employee.Role(req.Role),
	}
	if req.DepartmentID != "" {
		departmentID, err := id.ParseDepartmentID(req.DepartmentID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		in.DepartmentID = departmentID
	}
	if req.PositionID != "" {
		positionID, err := id.ParsePositionID(req.PositionID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		in.PositionID = positionID
	}
	if req.SchoolID != "" {
		schoolID, err := id.ParseSchoolID(req.SchoolID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		in.SchoolID = schoolID
	}
	updated, err := h.service.Update(ctx, employeeID, in, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    updated,
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

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := employeeIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	updated, err := h.service.ChangeRole(ctx, employeeID, employee.Role(req.Role), requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "role change rejected",
			"employee_id", employeeID.String(), "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    updated,
	})
}
