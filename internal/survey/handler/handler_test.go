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
	notificationstore "peopleops/internal/notification/store"
	"peopleops/internal/survey"
	"peopleops/internal/survey/store"
	"peopleops/pkg/testutil"
)

var testNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	notifier := notification.NewService(notificationstore.NewInMemory())
	t.Cleanup(notifier.Close)
	svc := survey.NewService(store.NewInMemory(), survey.WithNotifier(notifier))
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

func createSurvey(t *testing.T, router chi.Router) survey.Survey {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/surveys", map[string]any{
		"title": "Quarterly engagement",
		"questions": []map[string]any{
			{"text": "How supported do you feel?", "kind": "scale", "required": true},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Survey survey.Survey `json:"survey"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Survey
}

func TestSurveyLifecycle(t *testing.T) {
	router := newTestRouter(t)
	created := createSurvey(t, router)
	assert.Equal(t, survey.StatusDraft, created.Status)

	rec := doJSON(t, router, http.MethodPost, "/surveys/"+created.ID.String()+"/open", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Survey survey.Survey `json:"survey"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, survey.StatusOpen, resp.Survey.Status)

	rec = doJSON(t, router, http.MethodPost, "/surveys/"+created.ID.String()+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, survey.StatusClosed, resp.Survey.Status)
}

func TestAssignRequiresOpenSurvey(t *testing.T) {
	router := newTestRouter(t)
	created := createSurvey(t, router)

	rec := doJSON(t, router, http.MethodPost, "/surveys/"+created.ID.String()+"/assign", map[string]any{
		"employeeIds": []string{uuid.NewString()},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Code string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invariant_violation", resp.Code)
}

func TestAssignDispatchesNotifications(t *testing.T) {
	router := newTestRouter(t)
	created := createSurvey(t, router)

	rec := doJSON(t, router, http.MethodPost, "/surveys/"+created.ID.String()+"/open", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/surveys/"+created.ID.String()+"/assign", map[string]any{
		"employeeIds": []string{uuid.NewString(), uuid.NewString()},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Notifications []notification.Notification `json:"notifications"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Notifications, 2)
	assert.Equal(t, notification.KindSurveyAssignment, resp.Notifications[0].Kind)
	assert.Equal(t, created.ID.String(), resp.Notifications[0].RelatedID)
}

func TestCreateRejectsEmptyQuestions(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/surveys", map[string]any{"title": "Empty"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Code string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "validation_error", resp.Code)
}

func TestMalformedSurveyID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/surveys/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
