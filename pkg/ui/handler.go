// Package ui serves the server-rendered catalog pages: browse, editor,
// search and comment generation.
package ui

import (
	"errors"
	"log/slog"
	"net/http"

	gomponents "maragu.dev/gomponents"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/commentgen"
	"github.com/txn2/mcp-data-catalog/pkg/editor"
	"github.com/txn2/mcp-data-catalog/pkg/search"
	"github.com/txn2/mcp-data-catalog/pkg/session"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
)

// DefaultPreviewLimit caps the table preview on the detail page.
const DefaultPreviewLimit = 100

// Handler serves the catalog pages.
type Handler struct {
	Store        catalog.Store
	Editor       *editor.Editor
	Search       *search.Aggregator
	Warehouse    warehouse.Provider
	Comments     *commentgen.Generator
	Sessions     session.Store
	PreviewLimit int
}

// NewHandler creates a page handler. A nil store or warehouse falls back to
// the noop implementation.
func NewHandler(
	store catalog.Store,
	editorSvc *editor.Editor,
	searchSvc *search.Aggregator,
	wh warehouse.Provider,
	comments *commentgen.Generator,
	sessions session.Store,
	previewLimit int,
) *Handler {
	if store == nil {
		store = catalog.NewNoopStore()
	}
	if wh == nil {
		wh = warehouse.NewNoopProvider()
	}
	if previewLimit <= 0 {
		previewLimit = DefaultPreviewLimit
	}
	return &Handler{
		Store:        store,
		Editor:       editorSvc,
		Search:       searchSvc,
		Warehouse:    wh,
		Comments:     comments,
		Sessions:     sessions,
		PreviewLimit: previewLimit,
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// state returns the interaction state of the request's session.
func (h *Handler) state(r *http.Request) session.Interaction {
	id := session.IDFromContext(r.Context())
	if id == "" || h.Sessions == nil {
		return session.Interaction{}
	}
	sess, err := h.Sessions.Get(r.Context(), id)
	if err != nil || sess == nil {
		return session.Interaction{}
	}
	return sess.State
}

func (h *Handler) updateState(r *http.Request, fn func(*session.Interaction)) {
	id := session.IDFromContext(r.Context())
	if id == "" || h.Sessions == nil {
		return
	}
	if err := h.Sessions.Update(r.Context(), id, fn); err != nil {
		slog.Warn("session update failed", "error", err)
	}
}

func statusFor(err error) (status int, title string) {
	switch {
	case errors.Is(err, catalog.ErrEntryNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, editor.ErrStaleSnapshot):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, editor.ErrRowMismatch), errors.Is(err, editor.ErrReadOnlyField):
		return http.StatusUnprocessableEntity, "Invalid Edit"
	case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, commentgen.ErrIncompletePath):
		return http.StatusBadRequest, "Invalid Request"
	case errors.Is(err, warehouse.ErrNotConfigured):
		return http.StatusServiceUnavailable, "Warehouse Unavailable"
	default:
		return http.StatusInternalServerError, "Unexpected Error"
	}
}

func (h *Handler) renderServiceError(w http.ResponseWriter, err error) {
	status, title := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("page request failed", "error", err)
	}
	renderHTML(w, status, errorPage(title, err.Error()))
}
