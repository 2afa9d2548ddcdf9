// Package httpserver assembles the process-level http.Server fronting the
// peopleops API router.
package httpserver

import (
	"net/http"
	"time"
)

// Deadlines sized for an admin API exchanging small JSON payloads. The
// write timeout sits above the router's per-request timeout so handlers
// time out first and can still write their error response.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 35 * time.Second
	idleTimeout       = 90 * time.Second
)

// New builds the server for the given listen address and router.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
