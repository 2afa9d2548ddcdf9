package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/employee"
	"peopleops/internal/employee/store"
	"peopleops/pkg/testutil"
)

var testNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestRouter() chi.Router {
	svc := employee.NewService(store.NewInMemory())
	h := New(svc, slog.Default())
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = testutil.WithAuth(req, "admin-1", "tenant-1")
	req = testutil.WithTime(req, testNow)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createUser(t *testing.T, router chi.Router, email string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/users", map[string]any{
		"firstName": "Amira",
		"lastName":  "Hassan",
		"email":     email,
		"hireDate":  testNow.AddDate(-1, 0, 0),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		User employee.Employee `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.User.ID.String()
}

func TestCreateAndGetUser(t *testing.T) {
	router := newTestRouter()
	userID := createUser(t, router, "amira@example.com")

	rec := doJSON(t, router, http.MethodGet, "/users/"+userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool            `json:"success"`
		User    employee.Detail `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "amira@example.com", resp.User.Email)
	assert.Equal(t, employee.StatusActive, resp.User.Status)
}

func TestCreateUserValidation(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/users", map[string]any{
		"email": "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error  string   `json:"error"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "validation_error", resp.Error)
	assert.NotEmpty(t, resp.Errors)
}

func TestDuplicateEmailConflicts(t *testing.T) {
	router := newTestRouter()
	createUser(t, router, "amira@example.com")

	rec := doJSON(t, router, http.MethodPost, "/users", map[string]any{
		"firstName": "Another",
		"lastName":  "Person",
		"email":     "amira@example.com",
		"hireDate":  testNow.AddDate(-1, 0, 0),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateUserStatus(t *testing.T) {
	router := newTestRouter()
	userID := createUser(t, router, "amira@example.com")

	rec := doJSON(t, router, http.MethodPut, "/users/"+userID, map[string]any{
		"status": "inactive",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User employee.Employee `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, employee.StatusInactive, resp.User.Status)
}

func TestChangeRole(t *testing.T) {
	router := newTestRouter()
	userID := createUser(t, router, "amira@example.com")

	rec := doJSON(t, router, http.MethodPut, "/users/"+userID+"/role", map[string]any{
		"role": "manager",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/users/"+userID+"/role", map[string]any{
		"role": "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	router := newTestRouter()
	userID := createUser(t, router, "amira@example.com")

	rec := doJSON(t, router, http.MethodDelete, "/users/"+userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/users/"+userID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedUserID(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodGet, "/users/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
