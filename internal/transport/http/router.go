// Package httptransport assembles the HTTP surface. It owns the middleware
// chain and route mounting; all business logic stays in the domain handlers.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"peopleops/internal/platform/metrics"
	"peopleops/internal/platform/middleware"
	"peopleops/internal/transport/http/shared"
)

// Handler is anything that mounts its routes on the authenticated API tree.
type Handler interface {
	Register(r chi.Router)
}

// Config carries the cross-cutting pieces every route shares.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Auth           middleware.JWTValidator
	RequestTimeout time.Duration
}

// NewRouter builds the full route tree. Health and metrics stay outside the
// auth gate; everything registered by the handlers requires a valid token.
func NewRouter(cfg Config, handlers ...Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientContext)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Tracing)
	if cfg.Metrics != nil {
		r.Use(middleware.Latency(cfg.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		if cfg.Auth != nil {
			api.Use(middleware.RequireAuth(cfg.Auth, logger))
		}
		for _, h := range handlers {
			h.Register(api)
		}
	})

	return r
}
