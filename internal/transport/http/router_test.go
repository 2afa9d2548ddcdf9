package httptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/platform/middleware"
	"peopleops/internal/transport/http/shared"
	"peopleops/pkg/requestcontext"
)

type echoHandler struct{}

func (echoHandler) Register(r chi.Router) {
	r.Get("/echo", func(w http.ResponseWriter, r *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"userId":  requestcontext.UserID(r.Context()),
		})
	})
}

func TestHealthzIsOpen(t *testing.T) {
	router := NewRouter(Config{Auth: middleware.NewHMACValidator("test-key")}, echoHandler{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	router := NewRouter(Config{Auth: middleware.NewHMACValidator("test-key")}, echoHandler{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/echo", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIAcceptsValidToken(t *testing.T) {
	validator := middleware.NewHMACValidator("test-key")
	router := NewRouter(Config{Auth: validator}, echoHandler{})

	token, err := validator.IssueToken("admin-1", "tenant-1", "admin", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "admin-1")
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := NewRouter(Config{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
