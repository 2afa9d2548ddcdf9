package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/org"
	"peopleops/internal/transport/http/shared"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the org service the HTTP layer needs.
type Service interface {
	CreateDepartment(ctx context.Context, tenantID, name, description, createdBy string) (*org.Department, error)
	GetDepartment(ctx context.Context, departmentID id.DepartmentID) (*org.Department, error)
	UpdateDepartment(ctx context.Context, departmentID id.DepartmentID, name, description, updatedBy string) (*org.Department, error)
	DeleteDepartment(ctx context.Context, departmentID id.DepartmentID, deletedBy string) error
	ListDepartments(ctx context.Context, tenantID string) ([]org.Department, error)

	CreatePosition(ctx context.Context, tenantID, title, description string, departmentID id.DepartmentID, createdBy string) (*org.Position, error)
	GetPosition(ctx context.Context, positionID id.PositionID) (*org.Position, error)
	UpdatePosition(ctx context.Context, positionID id.PositionID, title, description string, departmentID id.DepartmentID, updatedBy string) (*org.Position, error)
	DeletePosition(ctx context.Context, positionID id.PositionID, deletedBy string) error
	ListPositions(ctx context.Context, tenantID string) ([]org.Position, error)

	CreateSchool(ctx context.Context, tenantID, name, address, createdBy string) (*org.School, error)
	GetSchool(ctx context.Context, schoolID id.SchoolID) (*org.School, error)
	UpdateSchool(ctx context.Context, schoolID id.SchoolID, name, address, updatedBy string) (*org.School, error)
	DeleteSchool(ctx context.Context, schoolID id.SchoolID, deletedBy string) error
	ListSchools(ctx context.Context, tenantID string) ([]org.School, error)
}

// Handler serves the /departments, /positions and /schools endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/departments", func(r chi.Router) {
		r.Get("/", h.handleListDepartments)
		r.Post("/", h.handleCreateDepartment)
		r.Route("/{departmentID}", func(r chi.Router) {
			r.Get("/", h.handleGetDepartment)
			r.Put("/", h.handleUpdateDepartment)
			r.Delete("/", h.handleDeleteDepartment)
		})
	})
	r.Route("/positions", func(r chi.Router) {
		r.Get("/", h.handleListPositions)
		r.Post("/", h.handleCreatePosition)
		r.Route("/{positionID}", func(r chi.Router) {
			r.Get("/", h.handleGetPosition)
			r.Put("/", h.handleUpdatePosition)
			r.Delete("/", h.handleDeletePosition)
		})
	})
	r.Route("/schools", func(r chi.Router) {
		r.Get("/", h.handleListSchools)
		r.Post("/", h.handleCreateSchool)
		r.Route("/{schoolID}", func(r chi.Router) {
			r.Get("/", h.handleGetSchool)
			r.Put("/", h.handleUpdateSchool)
			r.Delete("/", h.handleDeleteSchool)
		})
	})
}

type departmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	d, err := h.service.CreateDepartment(ctx, requestcontext.TenantID(ctx),
		req.Name, req.Description, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "department": d})
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, err := id.ParseDepartmentID(chi.URLParam(r, "departmentID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	d, err := h.service.GetDepartment(r.Context(), departmentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "department": d})
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	departmentID, err := id.ParseDepartmentID(chi.URLParam(r, "departmentID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	d, err := h.service.UpdateDepartment(ctx, departmentID, req.Name, req.Description, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "department": d})
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	departmentID, err := id.ParseDepartmentID(chi.URLParam(r, "departmentID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.DeleteDepartment(ctx, departmentID, requestcontext.UserID(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	departments, err := h.service.ListDepartments(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if departments == nil {
		departments = []org.Department{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "departments": departments})
}

type positionRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	DepartmentID string `json:"departmentId"`
}

func (r positionRequest) departmentID() (id.DepartmentID, error) {
	if r.DepartmentID == "" {
		return id.DepartmentID{}, nil
	}
	return id.ParseDepartmentID(r.DepartmentID)
}

func (h *Handler) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	departmentID, err := req.departmentID()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	p, err := h.service.CreatePosition(ctx, requestcontext.TenantID(ctx),
		req.Title, req.Description, departmentID, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "position": p})
}

func (h *Handler) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	positionID, err := id.ParsePositionID(chi.URLParam(r, "positionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	p, err := h.service.GetPosition(r.Context(), positionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "position": p})
}

func (h *Handler) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	positionID, err := id.ParsePositionID(chi.URLParam(r, "positionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	departmentID, err := req.departmentID()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	p, err := h.service.UpdatePosition(ctx, positionID, req.Title, req.Description, departmentID, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "position": p})
}

func (h *Handler) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	positionID, err := id.ParsePositionID(chi.URLParam(r, "positionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.DeletePosition(ctx, positionID, requestcontext.UserID(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleListPositions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	positions, err := h.service.ListPositions(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if positions == nil {
		positions = []org.Position{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "positions": positions})
}

type schoolRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (h *Handler) handleCreateSchool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req schoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	sc, err := h.service.CreateSchool(ctx, requestcontext.TenantID(ctx),
		req.Name, req.Address, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "school": sc})
}

func (h *Handler) handleGetSchool(w http.ResponseWriter, r *http.Request) {
	schoolID, err := id.ParseSchoolID(chi.URLParam(r, "schoolID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	sc, err := h.service.GetSchool(r.Context(), schoolID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "school": sc})
}

func (h *Handler) handleUpdateSchool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schoolID, err := id.ParseSchoolID(chi.URLParam(r, "schoolID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req schoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	sc, err := h.service.UpdateSchool(ctx, schoolID, req.Name, req.Address, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "school": sc})
}

func (h *Handler) handleDeleteSchool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schoolID, err := id.ParseSchoolID(chi.URLParam(r, "schoolID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.DeleteSchool(ctx, schoolID, requestcontext.UserID(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleListSchools(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schools, err := h.service.ListSchools(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if schools == nil {
		schools = []org.School{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "schools": schools})
}
