package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"peopleops/internal/security"
	"peopleops/internal/security/store"
	"peopleops/pkg/testutil"
)

func newSecurityRouter(t *testing.T) *chi.Mux {
	t.Helper()
	svc := security.NewService(store.NewInMemory())
	router := chi.NewRouter()
	New(svc, slog.Default()).Register(router)
	return router
}

func doJSON(t *testing.T, router *chi.Mux, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req = testutil.WithAuth(req, "admin-1", "tenant-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetCreatesDefaults(t *testing.T) {
	router := newSecurityRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/security-settings/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Settings security.Settings `json:"settings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Settings.PasswordPolicy.MinLength != 8 || body.Settings.Lockout.MaxAttempts != 5 {
		t.Fatalf("unexpected defaults: %+v", body.Settings)
	}
}

func TestTestPasswordShort(t *testing.T) {
	router := newSecurityRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/security-settings/testPassword",
		map[string]string{"password": "short"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var check security.PasswordCheck
	if err := json.NewDecoder(rec.Body).Decode(&check); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if check.Valid {
		t.Fatal("expected invalid password")
	}
	found := false
	for _, msg := range check.Errors {
		if msg == "Password must be at least 8 characters" {
			found = true
		}
	}
	if !found || len(check.Errors) < 2 {
		t.Fatalf("expected every violated rule, got %v", check.Errors)
	}
}

func TestSectionUpdate(t *testing.T) {
	router := newSecurityRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/security-settings/lockout",
		map[string]int{"maxAttempts": 3, "lockoutDurationMinutes": 60})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Settings security.Settings `json:"settings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Settings.Lockout.MaxAttempts != 3 {
		t.Fatalf("section update not applied: %+v", body.Settings.Lockout)
	}
	// Other sections keep their defaults.
	if body.Settings.PasswordPolicy.MinLength != 8 {
		t.Fatalf("unrelated section mutated: %+v", body.Settings.PasswordPolicy)
	}
}

func TestUpdateRejectsOutOfRange(t *testing.T) {
	router := newSecurityRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/security-settings/lockout",
		map[string]int{"maxAttempts": 99, "lockoutDurationMinutes": 30})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Errors) == 0 {
		t.Fatalf("expected violations in response, got %+v", body)
	}
}

func TestCheckIP(t *testing.T) {
	router := newSecurityRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/security-settings/ip-whitelist",
		map[string]any{"enabled": true, "entries": []string{"10.0.0.0/8"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("enable whitelist: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/security-settings/check-ip?ip=10.1.2.3", nil)
	var body struct {
		Allowed bool `json:"allowed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Allowed {
		t.Fatal("expected 10.1.2.3 to be allowed")
	}

	rec = doJSON(t, router, http.MethodGet, "/security-settings/check-ip?ip=203.0.113.9", nil)
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Allowed {
		t.Fatal("expected 203.0.113.9 to be rejected")
	}
}
