package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/editor"
	"github.com/txn2/mcp-data-catalog/pkg/export"
	"github.com/txn2/mcp-data-catalog/pkg/session"
)

// listFilter reads the location and text query parameters.
func listFilter(r *http.Request) catalog.ListFilter {
	q := r.URL.Query()
	return catalog.ListFilter{
		Location: strings.TrimSpace(q.Get("location")),
		Text:     strings.TrimSpace(q.Get("text")),
	}
}

// LoadEntries handles GET /entries. The loaded snapshot becomes the
// session's editor buffer.
func (h *Handler) LoadEntries(w http.ResponseWriter, r *http.Request) {
	snap, err := h.editor.Load(r.Context(), listFilter(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if snap.Rows == nil {
		snap.Rows = []catalog.Entry{}
	}

	if err := h.updateState(r, func(st *session.Interaction) {
		st.Snapshot = snap.Clone()
		st.LastSave = nil
	}); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// saveRequest is the body of PUT /entries.
type saveRequest struct {
	Token string          `json:"token" validate:"required"`
	Rows  []catalog.Entry `json:"rows" validate:"required"`
}

// SaveEntries handles PUT /entries. Rows are checked against the session's
// editor buffer, which is claimed for the duration of the save, and only
// changed rows are written.
func (h *Handler) SaveEntries(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	id := session.IDFromContext(r.Context())
	snap, err := session.ClaimSnapshot(r.Context(), h.sessions, id, req.Token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.editor.Save(r.Context(), snap, req.Token, req.Rows)
	if relErr := session.ReleaseSnapshot(r.Context(), h.sessions, id, snap, res); relErr != nil {
		slog.Warn("session update failed", "error", relErr)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if res.Failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, res)
}

// ExportEntries handles GET /entries/export.
func (h *Handler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context(), listFilter(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	cols, rows := export.Entries(entries)
	if err := export.ServeCSV(w, "catalog_entries.csv", cols, rows); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// Verify the editor service satisfies Editor.
var _ Editor = (*editor.Editor)(nil)
