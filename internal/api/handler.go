// Package api provides the HTTP handlers for the fsql REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fsql/internal/config"
	"fsql/internal/middleware"
	"fsql/internal/service/query"
	"fsql/internal/service/savedquery"
	"fsql/internal/service/workspace"
)

// Handler holds the services the HTTP endpoints delegate to.
type Handler struct {
	query     *query.Service
	workspace *workspace.Service
	saved     *savedquery.Service
	cfg       *config.Config
	log       *slog.Logger
}

// NewHandler creates a Handler with all required service dependencies.
func NewHandler(q *query.Service, ws *workspace.Service, saved *savedquery.Service, cfg *config.Config, log *slog.Logger) *Handler {
	return &Handler{query: q, workspace: ws, saved: saved, cfg: cfg, log: log}
}

// respondJSON writes v as a JSON response with the given status.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			h.log.Warn("response encoding failed", "error", err)
		}
	}
}

// respondError maps a domain error to a status code and writes it as JSON.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err)
	}
	h.respondJSON(w, status, map[string]interface{}{
		"code":    status,
		"message": err.Error(),
	})
}

// decodeJSON parses the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
