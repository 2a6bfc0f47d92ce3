// Package api provides the JSON REST endpoints of the data catalog.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/commentgen"
	"github.com/txn2/mcp-data-catalog/pkg/editor"
	"github.com/txn2/mcp-data-catalog/pkg/search"
	"github.com/txn2/mcp-data-catalog/pkg/session"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
)

// DefaultPreviewLimit caps table previews when no limit is configured.
const DefaultPreviewLimit = 100

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Editor loads and saves editor snapshots.
type Editor interface {
	Load(ctx context.Context, filter catalog.ListFilter) (*editor.Snapshot, error)
	Save(ctx context.Context, snap *editor.Snapshot, token string, edited []catalog.Entry) (*editor.SaveResult, error)
}

// Searcher runs the three search strategies.
type Searcher interface {
	Filter(ctx context.Context, sel search.Selection) (*search.Result, error)
	Keyword(ctx context.Context, term string) (*search.Result, error)
	AI(ctx context.Context, question string) (*search.Result, error)
}

// Commenter drafts and writes back table and column comments.
type Commenter interface {
	GenerateColumnComments(ctx context.Context, table catalog.LocationPath) (*commentgen.ColumnDrafts, error)
	GenerateTableComment(ctx context.Context, table catalog.LocationPath) (string, error)
	Coverage(ctx context.Context, table catalog.LocationPath) (*commentgen.Coverage, error)
	SaveTableComment(ctx context.Context, table catalog.LocationPath, comment string) error
	SaveColumnComments(ctx context.Context, table catalog.LocationPath, drafts []commentgen.ColumnDraft) (*commentgen.SaveResult, error)
}

// Deps are the services behind the API.
type Deps struct {
	Store        catalog.Store
	Editor       Editor
	Search       Searcher
	Warehouse    warehouse.Provider
	Comments     Commenter
	Sessions     session.Store
	PreviewLimit int
}

// Handler provides the catalog REST API endpoints.
type Handler struct {
	router       chi.Router
	store        catalog.Store
	editor       Editor
	search       Searcher
	warehouse    warehouse.Provider
	comments     Commenter
	sessions     session.Store
	previewLimit int
	validate     *validator.Validate
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	h := &Handler{
		router:       chi.NewRouter(),
		store:        d.Store,
		editor:       d.Editor,
		search:       d.Search,
		warehouse:    d.Warehouse,
		comments:     d.Comments,
		sessions:     d.Sessions,
		previewLimit: d.PreviewLimit,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
	if h.store == nil {
		h.store = catalog.NewNoopStore()
	}
	if h.warehouse == nil {
		h.warehouse = warehouse.NewNoopProvider()
	}
	if h.previewLimit <= 0 {
		h.previewLimit = DefaultPreviewLimit
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// registerRoutes registers all API routes.
func (h *Handler) registerRoutes() {
	r := h.router

	r.Get("/databases", h.ListDatabases)
	r.Get("/databases/{database}/schemas", h.ListSchemas)
	r.Get("/databases/{database}/schemas/{schema}/tables", h.ListTables)
	r.Get("/locate/{table}", h.LocateTable)

	r.Route("/tables/{database}/{schema}/{table}", func(r chi.Router) {
		r.Get("/", h.DescribeTable)
		r.Get("/preview", h.PreviewTable)
		r.Get("/preview.csv", h.PreviewTableCSV)
	})

	r.Route("/entries", func(r chi.Router) {
		r.Get("/", h.LoadEntries)
		r.Put("/", h.SaveEntries)
		r.Get("/export", h.ExportEntries)
	})

	r.Route("/search", func(r chi.Router) {
		r.Post("/", h.RunSearch)
		r.Get("/", h.LastSearch)
		r.Delete("/", h.ClearSearch)
		r.Get("/export", h.ExportSearch)
	})

	r.Route("/warehouse", func(r chi.Router) {
		r.Get("/databases", h.WarehouseDatabases)
		r.Get("/databases/{database}/schemas", h.WarehouseSchemas)
		r.Get("/databases/{database}/schemas/{schema}/tables", h.WarehouseTables)
	})

	r.Route("/comments/{database}/{schema}/{table}", func(r chi.Router) {
		r.Get("/coverage", h.CommentCoverage)
		r.Post("/generate", h.GenerateComments)
		r.Get("/drafts", h.CommentDrafts)
		r.Delete("/drafts", h.DiscardDrafts)
		r.Put("/", h.SaveComments)
	})
}

// tablePath reads the table path URL parameters.
func tablePath(r *http.Request) catalog.LocationPath {
	return catalog.LocationPath{
		Database: pathParam(r, "database"),
		Schema:   pathParam(r, "schema"),
		Table:    pathParam(r, "table"),
	}
}

// pathParam returns a decoded URL parameter. chi routes on the raw path when
// it carries escapes such as %2F, and then the parameter is still escaped.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// decodeBody decodes and validates a JSON request body.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("field %s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag())
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrStaleSnapshot):
		return http.StatusConflict
	case errors.Is(err, editor.ErrRowMismatch), errors.Is(err, editor.ErrReadOnlyField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, commentgen.ErrIncompletePath):
		return http.StatusBadRequest
	case errors.Is(err, warehouse.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError writes err with the status statusFor assigns.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// state returns the interaction state of the request's session, or a zero
// state when the request has no session.
func (h *Handler) state(r *http.Request) session.Interaction {
	id := session.IDFromContext(r.Context())
	if id == "" || h.sessions == nil {
		return session.Interaction{}
	}
	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil || sess == nil {
		return session.Interaction{}
	}
	return sess.State
}

// updateState applies fn to the request's session state. Requests without a
// session are ignored.
func (h *Handler) updateState(r *http.Request, fn func(*session.Interaction)) error {
	id := session.IDFromContext(r.Context())
	if id == "" || h.sessions == nil {
		return nil
	}
	if err := h.sessions.Update(r.Context(), id, fn); err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}
