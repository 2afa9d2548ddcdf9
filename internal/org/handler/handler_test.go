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

	"peopleops/internal/org"
	"peopleops/internal/org/store"
	"peopleops/pkg/testutil"
)

var testNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestRouter() chi.Router {
	svc := org.NewService(store.NewInMemory())
	r := chi.NewRouter()
	New(svc, slog.Default()).Register(r)
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

func TestDepartmentCRUD(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/departments", map[string]any{
		"name": "Engineering",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Department org.Department `json:"department"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = doJSON(t, router, http.MethodPost, "/departments", map[string]any{
		"name": "engineering",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/departments/"+created.Department.ID.String(), map[string]any{
		"description": "builds things",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/departments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Departments []org.Department `json:"departments"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	require.Len(t, listed.Departments, 1)
	assert.Equal(t, "builds things", listed.Departments[0].Description)

	rec = doJSON(t, router, http.MethodDelete, "/departments/"+created.Department.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/departments/"+created.Department.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPositionValidatesDepartment(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/positions", map[string]any{
		"title":        "Staff Engineer",
		"departmentId": "5d2f2f80-1111-4f9a-9a80-6a2a8d2a71f1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/positions", map[string]any{
		"title": "Staff Engineer",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSchoolValidation(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/schools", map[string]any{
		"address": "1 North Rd",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid_input", resp.Error)
}
