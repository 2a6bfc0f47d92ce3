package api

import (
	"net/http"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/export"
	"github.com/txn2/mcp-data-catalog/pkg/resolver"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
)

type namesResponse struct {
	Data []string `json:"data"`
}

func names(v []string) namesResponse {
	if v == nil {
		v = []string{}
	}
	return namesResponse{Data: v}
}

// ListDatabases handles GET /databases.
func (h *Handler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	res, err := resolver.Load(r.Context(), h.store)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names(res.ListDatabases()))
}

// ListSchemas handles GET /databases/{database}/schemas.
func (h *Handler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	res, err := resolver.Load(r.Context(), h.store)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names(res.ListSchemas(pathParam(r, "database"))))
}

// ListTables handles GET /databases/{database}/schemas/{schema}/tables.
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	res := resolver.New(nil, h.store)
	tables, err := res.ListTables(r.Context(), pathParam(r, "database"), pathParam(r, "schema"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names(tables))
}

type locateResponse struct {
	Data []catalog.LocationPath `json:"data"`
}

// LocateTable handles GET /locate/{table}.
func (h *Handler) LocateTable(w http.ResponseWriter, r *http.Request) {
	paths, err := resolver.Locate(r.Context(), h.store, pathParam(r, "table"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if paths == nil {
		paths = []catalog.LocationPath{}
	}
	writeJSON(w, http.StatusOK, locateResponse{Data: paths})
}

// tableResponse is the detail view of one table.
type tableResponse struct {
	Table        catalog.LocationPath       `json:"table"`
	Entry        *catalog.Entry             `json:"entry"`
	Columns      []catalog.ColumnDescriptor `json:"columns"`
	ColumnsError string                     `json:"columns_error,omitempty"`
	Connection   warehouse.ConnectionInfo   `json:"connection"`
}

// DescribeTable handles GET /tables/{database}/{schema}/{table}.
func (h *Handler) DescribeTable(w http.ResponseWriter, r *http.Request) {
	path := tablePath(r)
	resp := tableResponse{
		Table:      path,
		Columns:    []catalog.ColumnDescriptor{},
		Connection: h.warehouse.ConnectionInfo(path),
	}

	entry, err := h.store.Get(r.Context(), catalog.Key{TableName: path.Table, Location: path.Location()})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp.Entry = entry

	if cols, err := h.warehouse.DescribeTable(r.Context(), path); err != nil {
		resp.ColumnsError = err.Error()
	} else if cols != nil {
		resp.Columns = cols
	}
	writeJSON(w, http.StatusOK, resp)
}

// PreviewTable handles GET /tables/{database}/{schema}/{table}/preview.
func (h *Handler) PreviewTable(w http.ResponseWriter, r *http.Request) {
	preview, err := h.warehouse.Preview(r.Context(), tablePath(r), h.previewLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// PreviewTableCSV handles GET /tables/{database}/{schema}/{table}/preview.csv.
func (h *Handler) PreviewTableCSV(w http.ResponseWriter, r *http.Request) {
	path := tablePath(r)
	preview, err := h.warehouse.Preview(r.Context(), path, h.previewLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := export.ServeCSV(w, export.Filename(path, "preview"), preview.Columns, preview.Rows); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// WarehouseDatabases handles GET /warehouse/databases.
func (h *Handler) WarehouseDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := h.warehouse.ListDatabases(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names(dbs))
}

// WarehouseSchemas handles GET /warehouse/databases/{database}/schemas.
func (h *Handler) WarehouseSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.warehouse.ListSchemas(r.Context(), pathParam(r, "database"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names(schemas))
}

// WarehouseTables handles GET /warehouse/databases/{database}/schemas/{schema}/tables.
func (h *Handler) WarehouseTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.warehouse.ListTables(r.Context(), pathParam(r, "database"), pathParam(r, "schema"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names(tables))
}
