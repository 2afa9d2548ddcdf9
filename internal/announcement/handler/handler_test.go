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

	"peopleops/internal/announcement"
	"peopleops/internal/announcement/store"
	"peopleops/pkg/testutil"
)

var testNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestRouter() chi.Router {
	svc := announcement.NewService(store.NewInMemory())
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

func TestAnnouncementCRUD(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/announcements", map[string]any{
		"title": "Office closure",
		"body":  "The campus closes early on Thursday.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Announcement announcement.Announcement `json:"announcement"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, testNow, created.Announcement.PublishAt)

	rec = doJSON(t, router, http.MethodGet, "/announcements", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/announcements/"+created.Announcement.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/announcements/"+created.Announcement.ID.String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVisibleExcludesScheduled(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/announcements", map[string]any{
		"title":     "Next month's townhall",
		"body":      "Details to follow.",
		"publishAt": testNow.AddDate(0, 1, 0),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/announcements", map[string]any{
		"title": "Live now",
		"body":  "Effective immediately.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/announcements/visible", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Announcements []announcement.Announcement `json:"announcements"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Announcements, 1)
	assert.Equal(t, "Live now", resp.Announcements[0].Title)
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/announcements", map[string]any{
		"title":     "Broken",
		"body":      "window ends before it starts",
		"publishAt": testNow,
		"expiresAt": testNow.Add(-time.Hour),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Code string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "validation_error", resp.Code)
}
