package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/holiday"
	"peopleops/internal/transport/http/shared"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the holiday service the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, tenantID string, in holiday.CreateInput, createdBy string) (*holiday.Holiday, error)
	Get(ctx context.Context, holidayID id.HolidayID) (*holiday.Holiday, error)
	Update(ctx context.Context, holidayID id.HolidayID, in holiday.CreateInput, updatedBy string) (*holiday.Holiday, error)
	Delete(ctx context.Context, holidayID id.HolidayID, deletedBy string) error
	List(ctx context.Context, tenantID string, schoolID id.SchoolID) ([]holiday.Holiday, error)
	CheckWorkingDay(ctx context.Context, tenantID string, date time.Time, schoolID id.SchoolID) (*holiday.WorkingDayCheck, error)
}

// Handler serves the /holidays endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/holidays", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/checkWorkingDay", h.handleCheckWorkingDay)
		r.Post("/parseDateString", h.handleParseDateString)
		r.Route("/{holidayID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
		})
	})
}

type holidayRequest struct {
	SchoolID    string `json:"schoolId"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Recurring   bool   `json:"recurring"`
	Description string `json:"description"`
}

func (req holidayRequest) toInput() (holiday.CreateInput, error) {
	in := holiday.CreateInput{
		Name:        req.Name,
		Recurring:   req.Recurring,
		Description: req.Description,
	}
	if req.SchoolID != "" {
		schoolID, err := id.ParseSchoolID(req.SchoolID)
		if err != nil {
			return holiday.CreateInput{}, err
		}
		in.SchoolID = schoolID
	}
	if req.Date != "" {
		date, err := holiday.ParseDate(req.Date)
		if err != nil {
			return holiday.CreateInput{}, err
		}
		in.Date = date
	}
	return in, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	in, err := req.toInput()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	created, err := h.service.Create(ctx, requestcontext.TenantID(ctx), in, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "holiday": created})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var schoolID id.SchoolID
	if raw := r.URL.Query().Get("schoolId"); raw != "" {
		parsed, err := id.ParseSchoolID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		schoolID = parsed
	}
	holidays, err := h.service.List(ctx, requestcontext.TenantID(ctx), schoolID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if holidays == nil {
		holidays = []holiday.Holiday{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "holidays": holidays})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	holidayID, err := id.ParseHolidayID(chi.URLParam(r, "holidayID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	got, err := h.service.Get(r.Context(), holidayID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "holiday": got})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	holidayID, err := id.ParseHolidayID(chi.URLParam(r, "holidayID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	in, err := req.toInput()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	updated, err := h.service.Update(ctx, holidayID, in, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "holiday": updated})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	holidayID, err := id.ParseHolidayID(chi.URLParam(r, "holidayID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, holidayID, requestcontext.UserID(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleCheckWorkingDay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := holiday.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var schoolID id.SchoolID
	if raw := r.URL.Query().Get("schoolId"); raw != "" {
		parsed, err := id.ParseSchoolID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		schoolID = parsed
	}
	check, err := h.service.CheckWorkingDay(ctx, requestcontext.TenantID(ctx), date, schoolID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "check": check})
}

func (h *Handler) handleParseDateString(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	parsed, err := holiday.ParseDate(req.Date)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "date": parsed})
}
