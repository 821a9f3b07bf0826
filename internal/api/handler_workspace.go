package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fsql/internal/domain"
)

type attachDatabaseRequest struct {
	Path  string `json:"path"`
	Alias string `json:"alias,omitempty"`
}

// AttachDatabase attaches a folder as a queryable database.
func (h *Handler) AttachDatabase(w http.ResponseWriter, r *http.Request) {
	var req attachDatabaseRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if req.Path == "" {
		h.respondError(w, r, domain.ErrValidation("path is required"))
		return
	}
	db, err := h.workspace.Attach(r.Context(), req.Path, req.Alias)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, db)
}

// DetachDatabase detaches a previously attached folder.
func (h *Handler) DetachDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.workspace.Detach(r.Context(), chi.URLParam(r, "alias")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshDatabase re-scans an attached folder and re-registers its tables.
func (h *Handler) RefreshDatabase(w http.ResponseWriter, r *http.Request) {
	db, err := h.workspace.Refresh(r.Context(), chi.URLParam(r, "alias"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, db)
}

// ListDatabases returns all attached databases with their schemas.
func (h *Handler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"databases": h.workspace.Databases(r.Context()),
	})
}

// ListRecents returns previously attached folders, most recent first.
func (h *Handler) ListRecents(w http.ResponseWriter, r *http.Request) {
	recents, err := h.workspace.Recents(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"recents": recents})
}

// ListTables returns the registered tables of one schema.
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.workspace.Tables(r.Context(), chi.URLParam(r, "schema"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"tables": tables})
}

// DescribeTable returns column names and types for a table.
func (h *Handler) DescribeTable(w http.ResponseWriter, r *http.Request) {
	cols, err := h.query.Describe(r.Context(), chi.URLParam(r, "schema"), chi.URLParam(r, "table"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"columns": cols})
}

// PreviewTable returns the first rows of a table.
func (h *Handler) PreviewTable(w http.ResponseWriter, r *http.Request) {
	res, err := h.query.Preview(r.Context(), chi.URLParam(r, "schema"), chi.URLParam(r, "table"), queryInt(r, "limit", h.cfg.PreviewLimit))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

// ProfileTable returns per-column statistics for a table.
func (h *Handler) ProfileTable(w http.ResponseWriter, r *http.Request) {
	profile, err := h.query.Profile(r.Context(), chi.URLParam(r, "schema"), chi.URLParam(r, "table"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}
