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
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/notification"
	"peopleops/internal/notification/store"
	"peopleops/pkg/testutil"
)

var testNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (chi.Router, *store.InMemory) {
	st := store.NewInMemory()
	svc := notification.NewService(st)
	t.Cleanup(svc.Close)
	r := chi.NewRouter()
	New(svc, slog.Default()).Register(r)
	return r, st
}

func doJSON(t *testing.T, router chi.Router, userID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = testutil.WithAuth(req, userID, "tenant-1")
	req = testutil.WithTime(req, testNow)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDispatchAndInbox(t *testing.T) {
	router, _ := newTestRouter(t)
	recipient := uuid.New().String()

	rec := doJSON(t, router, recipient, http.MethodPost, "/notifications", map[string]any{
		"recipientId": recipient,
		"title":       "Welcome",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	// The worker persists asynchronously.
	require.Eventually(t, func() bool {
		rec := doJSON(t, router, recipient, http.MethodGet, "/notifications", nil)
		if rec.Code != http.StatusOK {
			return false
		}
		var resp struct {
			Notifications []notification.Notification `json:"notifications"`
			UnreadCount   int                         `json:"unreadCount"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			return false
		}
		return len(resp.Notifications) == 1 && resp.UnreadCount == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDispatchValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, uuid.New().String(), http.MethodPost, "/notifications", map[string]any{
		"title": "No recipient",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkReadFlow(t *testing.T) {
	router, st := newTestRouter(t)
	recipient := uuid.New().String()

	rec := doJSON(t, router, recipient, http.MethodPost, "/notifications", map[string]any{
		"recipientId": recipient,
		"title":       "Welcome",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created struct {
		Notification notification.Notification `json:"notification"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	require.Eventually(t, func() bool {
		_, err := st.Get(t.Context(), created.Notification.ID)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	rec = doJSON(t, router, recipient, http.MethodPost,
		"/notifications/"+created.Notification.ID.String()+"/markRead", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Notification notification.Notification `json:"notification"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Notification.Read)
	assert.Equal(t, testNow, resp.Notification.ReadAt)
}
