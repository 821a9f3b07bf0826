package api

import (
	"fmt"
	"net/http"
	"strconv"

	"fsql/internal/domain"
	"fsql/internal/exporter"
)

type executeQueryRequest struct {
	SQL string `json:"sql"`
}

// ExecuteQuery runs a SQL script and returns per-statement outcomes.
func (h *Handler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var req executeQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	res, err := h.query.Execute(r.Context(), req.SQL)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

type exportQueryRequest struct {
	SQL    string `json:"sql"`
	Format string `json:"format"` // csv, tsv, json, or xlsx
}

// ExportQuery runs a single SELECT and streams the result in the requested
// format as a file download.
func (h *Handler) ExportQuery(w http.ResponseWriter, r *http.Request) {
	var req exportQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.query.Query(r.Context(), req.SQL)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "result."+string(format)))
	if err := exporter.Write(w, res, format); err != nil {
		// Headers are already out, so just log the failure.
		h.log.Warn("export stream failed", "format", format, "error", err)
	}
}

// UndoLastWrite restores the most recently backed-up file and returns the
// write-log entry that was undone.
func (h *Handler) UndoLastWrite(w http.ResponseWriter, r *http.Request) {
	entry, err := h.query.UndoLastWrite(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entry)
}

// ListHistory returns recently executed scripts, newest first.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	entries, err := h.query.History(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
