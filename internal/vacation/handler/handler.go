package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/transport/http/shared"
	"peopleops/internal/vacation"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Service is the slice of the policy/balance engine the HTTP layer needs.
type Service interface {
	CreatePolicy(ctx context.Context, tenantID string, in vacation.CreatePolicyInput, createdBy string) (*vacation.Policy, error)
	UpdatePolicy(ctx context.Context, policyID id.PolicyID, in vacation.CreatePolicyInput, updatedBy string) (*vacation.Policy, error)
	DeletePolicy(ctx context.Context, policyID id.PolicyID) error
	ActivatePolicy(ctx context.Context, policyID id.PolicyID, activatedBy string) (*vacation.Policy, error)
	CancelPolicy(ctx context.Context, policyID id.PolicyID, cancelledBy string) (*vacation.Policy, error)
	GetPolicy(ctx context.Context, policyID id.PolicyID) (*vacation.Policy, error)
	ListPolicies(ctx context.Context, tenantID string) ([]vacation.Policy, error)
	FindActivePolicies(ctx context.Context, tenantID string) ([]vacation.Policy, error)
	ApplyToEmployee(ctx context.Context, policyID id.PolicyID, employeeID id.EmployeeID, appliedBy string) (*vacation.ApplyResult, error)
	ApplyToAll(ctx context.Context, policyID id.PolicyID, appliedBy string) (*vacation.ApplyReport, error)
	TestPolicyOnEmployee(ctx context.Context, policyID id.PolicyID, employeeID id.EmployeeID) (*vacation.ApplyResult, error)
	ListApplications(ctx context.Context, policyID id.PolicyID) ([]vacation.Application, error)
	GetOrCreateBalance(ctx context.Context, employeeID id.EmployeeID, year int) (*vacation.Balance, error)
	ListBalances(ctx context.Context, tenantID string, year int) ([]vacation.Balance, error)
	SubmitRequest(ctx context.Context, tenantID string, in vacation.SubmitRequestInput, requestedBy string) (*vacation.LeaveRequest, error)
	GetRequest(ctx context.Context, requestID id.LeaveRequestID) (*vacation.LeaveRequest, error)
	ListRequests(ctx context.Context, tenantID string) ([]vacation.LeaveRequest, error)
	ListRequestsByEmployee(ctx context.Context, employeeID id.EmployeeID) ([]vacation.LeaveRequest, error)
	UpdateRequest(ctx context.Context, requestID id.LeaveRequestID, in vacation.SubmitRequestInput, updatedBy string) (*vacation.LeaveRequest, error)
	ApproveRequest(ctx context.Context, requestID id.LeaveRequestID, decidedBy string) (*vacation.LeaveRequest, error)
	RejectRequest(ctx context.Context, requestID id.LeaveRequestID, decidedBy string) (*vacation.LeaveRequest, error)
	DeleteRequest(ctx context.Context, requestID id.LeaveRequestID) error
}

// Handler serves the /mixed-vacation policy endpoints, the /requests leave
// workflow and the /leaves balance reads.
type Handler struct {
	logger *slog.Logger
	engine Service
}

func New(engine Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, engine: engine}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/mixed-vacation", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/active", h.handleListActive)
		r.Route("/{policyID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/activate", h.handleActivate)
			r.Post("/cancel", h.handleCancel)
			r.Post("/applyToEmployee", h.handleApplyToEmployee)
			r.Post("/applyToAll", h.handleApplyToAll)
			r.Post("/testPolicyOnEmployee", h.handleTestOnEmployee)
			r.Get("/applications", h.handleApplications)
		})
	})
	r.Route("/requests", func(r chi.Router) {
		r.Get("/", h.handleListRequests)
		r.Post("/", h.handleSubmitRequest)
		r.Route("/{requestID}", func(r chi.Router) {
			r.Get("/", h.handleGetRequest)
			r.Put("/", h.handleUpdateRequest)
			r.Delete("/", h.handleDeleteRequest)
			r.Post("/approve", h.handleApproveRequest)
			r.Post("/reject", h.handleRejectRequest)
		})
	})
	r.Route("/leaves", func(r chi.Router) {
		r.Get("/balances", h.handleListBalances)
		r.Get("/balances/{employeeID}", h.handleGetBalance)
	})
}

type policyRequest struct {
	Name                 string    `json:"name"`
	StartDate            time.Time `json:"startDate"`
	EndDate              time.Time `json:"endDate"`
	TotalDays            int       `json:"totalDays"`
	PersonalDaysRequired int       `json:"personalDaysRequired"`
}

func (p policyRequest) input() vacation.CreatePolicyInput {
	return vacation.CreatePolicyInput{
		Name:                 p.Name,
		StartDate:            p.StartDate,
		EndDate:              p.EndDate,
		TotalDays:            p.TotalDays,
		PersonalDaysRequired: p.PersonalDaysRequired,
	}
}

func policyIDParam(r *http.Request) (id.PolicyID, error) {
	return id.ParsePolicyID(chi.URLParam(r, "policyID"))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	policy, err := h.engine.CreatePolicy(ctx, requestcontext.TenantID(ctx), req.input(), requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"policy":  policy,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policies, err := h.engine.ListPolicies(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if policies == nil {
		policies = []vacation.Policy{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"policies": policies,
	})
}

func (h *Handler) handleListActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policies, err := h.engine.FindActivePolicies(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if policies == nil {
		policies = []vacation.Policy{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"policies": policies,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID, err := policyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	policy, err := h.engine.GetPolicy(ctx, policyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"policy":  policy,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID, err := policyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	policy, err := h.engine.UpdatePolicy(ctx, policyID, req.input(), requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"policy":  policy,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID, err := policyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.engine.DeletePolicy(ctx, policyID); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.ActivatePolicy)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.CancelPolicy)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, id.PolicyID, string) (*vacation.Policy, error)) {
	ctx := r.Context()
	policyID, err := policyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	policy, err := op(ctx, policyID, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"policy":  policy,
	})
}

type applyRequest struct {
	EmployeeID string `json:"employeeId"`
}

func (h *Handler) handleApplyToEmployee(w http.ResponseWriter, r *http.Request) {
	h.applyOne(w, r, h.engine.ApplyToEmployee)
}

func (h *Handler) handleTestOnEmployee(w http.ResponseWriter, r *http.Request) {
	h.applyOne(w, r, func(ctx context.Context, policyID id.PolicyID, employeeID id.EmployeeID, _ string) (*vacation.ApplyResult, error) {
		return h.engine.TestPolicyOnEmployee(ctx, policyID, employeeID)
	})
}

func (h *Handler) applyOne(w http.ResponseWriter, r *http.Request, op func(context.Context, id.PolicyID, id.EmployeeID, string) (*vacation.ApplyResult, error)) {
	ctx := r.Context()
	policyID, err := policyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	employeeID, err := id.ParseEmployeeID(req.EmployeeID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := op(ctx, policyID, employeeID, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "policy application rejected",
			"policy_id", policyID.String(),
			"employee_id", employeeID.String(),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
	})
}

func (h *Handler) handleApplyToAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID, err := policyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	report, err := h.engine.ApplyToAll(ctx, policyID, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"applied": report.Applied,
		"failed":  report.Failed,
	})
}

func (h *Handler) handleApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	policyID, err := policyIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	apps, err := h.engine.ListApplications(ctx, policyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if apps == nil {
		apps = []vacation.Application{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"applications": apps,
	})
}

type leaveRequestPayload struct {
	EmployeeID string    `json:"employeeId"`
	Category   string    `json:"category"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Reason     string    `json:"reason"`
}

func (p leaveRequestPayload) input() (vacation.SubmitRequestInput, error) {
	in := vacation.SubmitRequestInput{
		Category:  vacation.LeaveCategory(p.Category),
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Reason:    p.Reason,
	}
	if p.EmployeeID != "" {
		employeeID, err := id.ParseEmployeeID(p.EmployeeID)
		if err != nil {
			return in, err
		}
		in.EmployeeID = employeeID
	}
	return in, nil
}

func requestIDParam(r *http.Request) (id.LeaveRequestID, error) {
	return id.ParseLeaveRequestID(chi.URLParam(r, "requestID"))
}

func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload leaveRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	in, err := payload.input()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	req, err := h.engine.SubmitRequest(ctx, requestcontext.TenantID(ctx), in, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"request": req,
	})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		requests []vacation.LeaveRequest
		err      error
	)
	if raw := r.URL.Query().Get("employeeId"); raw != "" {
		var employeeID id.EmployeeID
		employeeID, err = id.ParseEmployeeID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		requests, err = h.engine.ListRequestsByEmployee(ctx, employeeID)
	} else {
		requests, err = h.engine.ListRequests(ctx, requestcontext.TenantID(ctx))
	}
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if requests == nil {
		requests = []vacation.LeaveRequest{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"requests": requests,
	})
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := requestIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	req, err := h.engine.GetRequest(ctx, requestID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"request": req,
	})
}

func (h *Handler) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := requestIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var payload leaveRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	in, err := payload.input()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	req, err := h.engine.UpdateRequest(ctx, requestID, in, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"request": req,
	})
}

func (h *Handler) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := requestIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.engine.DeleteRequest(ctx, requestID); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.engine.ApproveRequest)
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.engine.RejectRequest)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op func(context.Context, id.LeaveRequestID, string) (*vacation.LeaveRequest, error)) {
	ctx := r.Context()
	requestID, err := requestIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	req, err := op(ctx, requestID, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"request": req,
	})
}

func yearParam(r *http.Request) int {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	if year == 0 {
		year = requestcontext.Now(r.Context()).Year()
	}
	return year
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, err := id.ParseEmployeeID(chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	balance, err := h.engine.GetOrCreateBalance(ctx, employeeID, yearParam(r))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"balance": balance,
	})
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	balances, err := h.engine.ListBalances(ctx, requestcontext.TenantID(ctx), yearParam(r))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if balances == nil {
		balances = []vacation.Balance{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"balances": balances,
	})
}
