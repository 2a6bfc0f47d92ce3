package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the pages on r. Paths are relative to the /ui mount.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) { redirect(w, r, "/ui/browse") })
	r.Get("/browse", h.Browse)
	r.Get("/tables/{database}/{schema}/{table}", h.TableDetail)
	r.Get("/tables/{database}/{schema}/{table}/preview.csv", h.PreviewCSV)

	r.Get("/editor", h.EditorPage)
	r.Post("/editor/reload", h.EditorReload)
	r.Post("/editor/save", h.EditorSave)
	r.Get("/editor/export.csv", h.EditorExport)

	r.Get("/search", h.SearchPage)
	r.Post("/search", h.SearchRun)
	r.Post("/search/clear", h.SearchClear)
	r.Get("/search/export.csv", h.SearchExport)

	r.Get("/comments", h.CommentsPage)
	r.Post("/comments/generate", h.CommentsGenerate)
	r.Post("/comments/save", h.CommentsSave)
	r.Post("/comments/cancel", h.CommentsCancel)
	r.Post("/comments/entry", h.CommentsEntrySave)
}
