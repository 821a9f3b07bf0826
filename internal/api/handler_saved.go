package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fsql/internal/domain"
)

type savedQueryRequest struct {
	Name string `json:"name"`
	SQL  string `json:"sql"`
}

// CreateSavedQuery stores a named SQL script.
func (h *Handler) CreateSavedQuery(w http.ResponseWriter, r *http.Request) {
	var req savedQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	sq, err := h.saved.Create(r.Context(), req.Name, req.SQL)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, sq)
}

// UpdateSavedQuery renames a saved query or replaces its SQL. Empty fields
// keep their current value.
func (h *Handler) UpdateSavedQuery(w http.ResponseWriter, r *http.Request) {
	var req savedQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	sq, err := h.saved.Update(r.Context(), chi.URLParam(r, "id"), req.Name, req.SQL)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, sq)
}

// GetSavedQuery returns one saved query by id.
func (h *Handler) GetSavedQuery(w http.ResponseWriter, r *http.Request) {
	sq, err := h.saved.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, sq)
}

// ListSavedQueries returns all saved queries ordered by name.
func (h *Handler) ListSavedQueries(w http.ResponseWriter, r *http.Request) {
	queries, err := h.saved.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"saved_queries": queries})
}

// DeleteSavedQuery removes a saved query.
func (h *Handler) DeleteSavedQuery(w http.ResponseWriter, r *http.Request) {
	if err := h.saved.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
