package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/audit"
	"peopleops/internal/audit/store"
	"peopleops/pkg/requestcontext"
	"peopleops/pkg/testutil"
)

func newAuditRouter(t *testing.T) (*chi.Mux, *audit.Ledger) {
	t.Helper()
	ledger := audit.NewLedger(store.NewInMemory(), audit.WithLogger(slog.Default()))
	router := chi.NewRouter()
	New(ledger, slog.Default()).Register(router)
	return router, ledger
}

func seedEntry(t *testing.T, ledger *audit.Ledger, action string) *audit.Entry {
	t.Helper()
	entry, err := ledger.Append(testutil.TenantContext("tenant-1"), audit.Input{
		Action:        action,
		Resource:      "employee",
		ResourceID:    "emp-1",
		UserID:        "admin-1",
		TenantID:      "tenant-1",
		CorrelationID: "corr-1",
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return entry
}

func TestGetLogs(t *testing.T) {
	router, ledger := newAuditRouter(t)
	seedEntry(t, ledger, "employee_updated")
	seedEntry(t, ledger, "login_failed")

	req := httptest.NewRequest(http.MethodGet, "/security-audit/logs", nil)
	req = req.WithContext(requestcontext.WithTenantID(req.Context(), "tenant-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Success    bool          `json:"success"`
		Logs       []audit.Entry `json:"logs"`
		Pagination struct {
			TotalItems int `json:"totalItems"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || len(body.Logs) != 2 || body.Pagination.TotalItems != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestFailedLoginsFiltersByAction(t *testing.T) {
	router, ledger := newAuditRouter(t)
	seedEntry(t, ledger, "employee_updated")
	seedEntry(t, ledger, "login_failed")

	req := httptest.NewRequest(http.MethodGet, "/security-audit/failed-logins", nil)
	req = req.WithContext(requestcontext.WithTenantID(req.Context(), "tenant-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body struct {
		Logs []audit.Entry `json:"logs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Logs) != 1 || body.Logs[0].Action != "login_failed" {
		t.Fatalf("expected one failed login, got %+v", body.Logs)
	}
}

func TestSuspiciousActivitiesRejectsBadWindow(t *testing.T) {
	router, _ := newAuditRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/security-audit/suspicious-activities?windowHours=-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCleanup(t *testing.T) {
	router, _ := newAuditRouter(t)

	t.Run("rejects non-positive threshold", func(t *testing.T) {
		body, _ := json.Marshal(map[string]int{"olderThanDays": 0})
		req := httptest.NewRequest(http.MethodPost, "/security-audit/cleanup", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns deleted count", func(t *testing.T) {
		body, _ := json.Marshal(map[string]int{"olderThanDays": 30})
		req := httptest.NewRequest(http.MethodPost, "/security-audit/cleanup", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Success bool           `json:"success"`
			Stats   map[string]int `json:"stats"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.Success || resp.Stats["deleted"] != 0 {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})
}

func TestRecordPermissionChange(t *testing.T) {
	router, ledger := newAuditRouter(t)

	payload := map[string]any{
		"action":     "permission_granted",
		"resource":   "user",
		"resourceId": "u-7",
		"before":     map[string]any{"role": "staff"},
		"after":      map[string]any{"role": "admin"},
		"fields":     []string{"role"},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/permission-audit/record", bytes.NewReader(body))
	ctx := requestcontext.WithTenantID(req.Context(), "tenant-1")
	ctx = requestcontext.WithUserID(ctx, "admin-1")
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	logs, err := ledger.FindByCorrelation(ctx, "req-1")
	if err != nil {
		t.Fatalf("query trail: %v", err)
	}
	if len(logs) != 1 || logs[0].Category != audit.CategoryPermission {
		t.Fatalf("expected one permission entry, got %+v", logs)
	}
	if logs[0].Severity != audit.SeverityWarning {
		t.Fatalf("permission changes default to warning severity, got %s", logs[0].Severity)
	}
}
