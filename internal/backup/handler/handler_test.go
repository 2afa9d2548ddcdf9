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

	"peopleops/internal/backup"
	"peopleops/internal/backup/store"
	"peopleops/pkg/testutil"
)

var testNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestRouter() chi.Router {
	svc := backup.NewService(store.NewInMemory())
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

func requestRun(t *testing.T, router chi.Router) backup.Run {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/backups", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Backup backup.Run `json:"backup"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Backup
}

func TestRequestAndComplete(t *testing.T) {
	router := newTestRouter()
	run := requestRun(t, router)
	assert.Equal(t, backup.StatusRequested, run.Status)
	assert.Equal(t, "admin-1", run.RequestedBy)

	rec := doJSON(t, router, http.MethodPost, "/backups/"+run.ID.String()+"/complete", map[string]any{
		"sizeBytes": 1 << 20,
		"location":  "s3://backups/tenant-1/2026-06-15.tar.gz",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Backup backup.Run `json:"backup"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, backup.StatusCompleted, resp.Backup.Status)
	assert.Equal(t, int64(1<<20), resp.Backup.SizeBytes)
}

func TestCompleteIsTerminal(t *testing.T) {
	router := newTestRouter()
	run := requestRun(t, router)

	rec := doJSON(t, router, http.MethodPost, "/backups/"+run.ID.String()+"/complete", map[string]any{
		"sizeBytes": 100,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/backups/"+run.ID.String()+"/fail", map[string]any{
		"reason": "disk full",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Code string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invariant_violation", resp.Code)
}

func TestFailRecordsReason(t *testing.T) {
	router := newTestRouter()
	run := requestRun(t, router)

	rec := doJSON(t, router, http.MethodPost, "/backups/"+run.ID.String()+"/fail", map[string]any{
		"reason": "disk full",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Backup backup.Run `json:"backup"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, backup.StatusFailed, resp.Backup.Status)
	assert.Equal(t, "disk full", resp.Backup.Error)
}

func TestListReturnsRuns(t *testing.T) {
	router := newTestRouter()
	requestRun(t, router)
	requestRun(t, router)

	rec := doJSON(t, router, http.MethodGet, "/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Backups []backup.Run `json:"backups"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Backups, 2)
}
