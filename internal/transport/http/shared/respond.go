// Package shared centralizes JSON response envelopes so every handler maps
// domain errors to HTTP identically.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "peopleops/pkg/domain-errors"
)

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the page count for a list response.
func NewPagination(page, pageSize, totalItems int) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}
	return Pagination{Page: page, PageSize: pageSize, TotalItems: totalItems, TotalPages: totalPages}
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into its HTTP response. Internal
// errors omit the description so infrastructure details never leak; all
// other codes surface their message. Validation errors additionally carry
// the full violation list.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	body := map[string]any{"error": string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
			if len(de.Violations) > 0 {
				body["errors"] = de.Violations
			}
		}
	}
	WriteJSON(w, status, body)
}
