package ui

import (
	"errors"
	"net/http"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/export"
	"github.com/txn2/mcp-data-catalog/pkg/resolver"
	"github.com/txn2/mcp-data-catalog/pkg/search"
	"github.com/txn2/mcp-data-catalog/pkg/session"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
)

type browsePageData struct {
	Selection search.Selection
	Databases []string
	Schemas   []string
	Tables    []string
	Lookup    string
	Located   []catalog.LocationPath
	Error     string
}

// Browse handles GET /ui/browse. Query parameters replace the session
// selection; without them the last selection is shown again.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := h.state(r).Selection
	if q.Has("database") || q.Has("schema") {
		sel = search.Selection{Database: formString(q, "database"), Schema: formString(q, "schema")}
		if sel.Database == "" {
			sel.Schema = ""
		}
		h.updateState(r, func(st *session.Interaction) { st.Selection = sel })
	}

	d := browsePageData{Selection: sel, Lookup: formString(q, "table")}

	res, err := resolver.Load(r.Context(), h.Store)
	if err != nil {
		h.renderServiceError(w, err)
		return
	}
	d.Databases = res.ListDatabases()
	if sel.Database != "" {
		d.Schemas = res.ListSchemas(sel.Database)
	}
	if sel.Schema != "" {
		tables, err := res.ListTables(r.Context(), sel.Database, sel.Schema)
		if err != nil {
			d.Error = err.Error()
		}
		d.Tables = tables
	}
	if d.Lookup != "" {
		located, err := resolver.Locate(r.Context(), h.Store, d.Lookup)
		if err != nil {
			d.Error = err.Error()
		}
		d.Located = located
	}

	renderHTML(w, http.StatusOK, browsePage(d))
}

func browsePage(d browsePageData) Node {
	dbLinks := make([]Node, 0, len(d.Databases))
	for _, db := range d.Databases {
		dbLinks = append(dbLinks, Li(linkIfNot(db, d.Selection.Database, browseURL(db, ""))))
	}
	schemaLinks := make([]Node, 0, len(d.Schemas))
	for _, s := range d.Schemas {
		schemaLinks = append(schemaLinks, Li(linkIfNot(s, d.Selection.Schema, browseURL(d.Selection.Database, s))))
	}
	tableLinks := make([]Node, 0, len(d.Tables))
	for _, t := range d.Tables {
		tableLinks = append(tableLinks, Li(A(Href(tablePathURL(d.Selection.Database, d.Selection.Schema, t)), Text(t))))
	}

	var located Node
	if d.Lookup != "" {
		rows := make([]Node, 0, len(d.Located))
		for _, p := range d.Located {
			rows = append(rows, Li(A(Href(tablePathURL(p.Database, p.Schema, p.Table)), Text(p.String()))))
		}
		if len(rows) == 0 {
			rows = append(rows, Li(Class("muted"), Text("No location holds "+d.Lookup)))
		}
		located = card(H2(Text("Locations of "+d.Lookup)), Ul(Group(rows)))
	}

	return appPage("Browse", "browse",
		errorCard(d.Error),
		card(
			Form(Method("get"), Action("/ui/browse"),
				Label(Text("Find table "), Input(Type("text"), Name("table"), Value(d.Lookup), Placeholder("TABLE_NAME"))),
				Button(Type("submit"), Text("Locate")),
			),
		),
		located,
		Div(Class("columns"),
			card(H2(Text("Databases")), emptyList(dbLinks, "No databases in the catalog.")),
			card(H2(Text("Schemas")), emptyList(schemaLinks, "Select a database.")),
			card(H2(Text("Tables")), emptyList(tableLinks, "Select a schema.")),
		),
	)
}

func linkIfNot(label, selected, href string) Node {
	if label == selected {
		return Strong(Text(label))
	}
	return A(Href(href), Text(label))
}

func emptyList(items []Node, empty string) Node {
	if len(items) == 0 {
		return P(Class("muted"), Text(empty))
	}
	return Ul(Group(items))
}

type tableDetailPageData struct {
	Path          catalog.LocationPath
	Entry         *catalog.Entry
	Columns       []catalog.ColumnDescriptor
	ColumnsError  string
	Preview       *warehouse.Preview
	PreviewError  string
	PreviewLimit  int
	Connection    warehouse.ConnectionInfo
	EntryNotFound bool
}

// TableDetail handles GET /ui/tables/{database}/{schema}/{table}. Warehouse
// failures are shown inline so the catalog entry stays visible.
func (h *Handler) TableDetail(w http.ResponseWriter, r *http.Request) {
	path := tablePath(r)
	d := tableDetailPageData{
		Path:         path,
		PreviewLimit: h.PreviewLimit,
		Connection:   h.Warehouse.ConnectionInfo(path),
	}

	entry, err := h.Store.Get(r.Context(), catalog.Key{TableName: path.Table, Location: path.Location()})
	switch {
	case errors.Is(err, catalog.ErrEntryNotFound):
		d.EntryNotFound = true
	case err != nil:
		h.renderServiceError(w, err)
		return
	default:
		d.Entry = entry
	}

	if cols, err := h.Warehouse.DescribeTable(r.Context(), path); err != nil {
		d.ColumnsError = err.Error()
	} else {
		d.Columns = cols
	}
	if preview, err := h.Warehouse.Preview(r.Context(), path, h.PreviewLimit); err != nil {
		d.PreviewError = err.Error()
	} else {
		d.Preview = preview
	}

	renderHTML(w, http.StatusOK, tableDetailPage(d))
}

// PreviewCSV handles GET /ui/tables/{database}/{schema}/{table}/preview.csv.
func (h *Handler) PreviewCSV(w http.ResponseWriter, r *http.Request) {
	path := tablePath(r)
	preview, err := h.Warehouse.Preview(r.Context(), path, h.PreviewLimit)
	if err != nil {
		h.renderServiceError(w, err)
		return
	}
	if err := export.ServeCSV(w, export.Filename(path, "preview"), preview.Columns, preview.Rows); err != nil {
		h.renderServiceError(w, err)
	}
}

func tablePath(r *http.Request) catalog.LocationPath {
	return catalog.LocationPath{
		Database: pathParam(r, "database"),
		Schema:   pathParam(r, "schema"),
		Table:    pathParam(r, "table"),
	}
}

func tableDetailPage(d tableDetailPageData) Node {
	return appPage("Table: "+d.Path.String(), "browse",
		entryCard(d),
		connectionCard(d.Connection),
		columnsCard(d),
		previewCard(d),
		P(A(Href(browseURL(d.Path.Database, d.Path.Schema)), Text("<- Back to browse"))),
	)
}

func entryCard(d tableDetailPageData) Node {
	if d.EntryNotFound {
		return card(H2(Text("Catalog entry")), P(Class("muted"), Text("No catalog entry for this table.")))
	}
	e := d.Entry
	complete := "incomplete"
	if e.ColumnCommentsComplete() {
		complete = "complete"
	}
	return card(
		H2(Text("Catalog entry")),
		Table(TBody(
			detailRow("Account", strOrDash(e.Account)),
			detailRow("Classification", strOrDash(e.Classification)),
			detailRow("Columns", intOrDash(e.ColumnCount)),
			detailRow("Records", intOrDash(e.RecordCount)),
			detailRow("Created", timeOrDash(e.CreationDate)),
			detailRow("Updated", timeOrDash(e.UpdateDate)),
			detailRow("Owner", strOrDash(e.Owner)),
			detailRow("Sub owner", strOrDash(e.SubOwner)),
			detailRow("Table comment", strOrDash(e.TableComment)),
			detailRow("Column comments", complete),
			detailRow("Publish", strOrDash(e.Publish)),
			detailRow("Scope", strOrDash(e.Scope)),
			detailRow("Application project", strOrDash(e.ApplicationProject)),
			detailRow("Comment", strOrDash(e.Comment)),
		)),
	)
}

func detailRow(label, value string) Node {
	return Tr(Th(Text(label)), Td(Text(value)))
}

func connectionCard(c warehouse.ConnectionInfo) Node {
	return card(
		H2(Text("Connection")),
		Table(TBody(
			detailRow("Server", dashIfEmpty(c.Server)),
			detailRow("Database", c.Database),
			detailRow("Schema", c.Schema),
			detailRow("Table", c.Table),
			detailRow("Full path", c.FullPath),
		)),
	)
}

func columnsCard(d tableDetailPageData) Node {
	if d.ColumnsError != "" {
		return card(H2(Text("Columns")), P(Class("muted"), Text("Columns unavailable: "+d.ColumnsError)))
	}
	var catalogComments map[string]string
	if d.Entry != nil {
		catalogComments = d.Entry.ColumnComments()
	}
	rows := make([]Node, 0, len(d.Columns))
	for _, c := range d.Columns {
		rows = append(rows, Tr(
			Td(Text(c.Name)),
			Td(Text(c.DataType)),
			Td(Text(dashIfEmpty(c.Comment))),
			Td(Text(dashIfEmpty(catalogComments[c.Name]))),
		))
	}
	return Div(Class("card table-wrap"),
		H2(Text("Columns")),
		Table(headerRow("Name", "Type", "Warehouse comment", "Catalog comment"), TBody(Group(rows))),
	)
}

func previewCard(d tableDetailPageData) Node {
	if d.PreviewError != "" {
		return card(H2(Text("Preview")), P(Class("muted"), Text("Preview unavailable: "+d.PreviewError)))
	}
	rows := make([]Node, 0, len(d.Preview.Rows))
	for _, row := range d.Preview.Rows {
		cells := make([]Node, 0, len(row))
		for _, v := range row {
			cells = append(cells, Td(Text(v)))
		}
		rows = append(rows, Tr(Group(cells)))
	}
	return Div(Class("card table-wrap"),
		H2(Textf("Preview (first %d rows)", d.PreviewLimit)),
		P(A(Href(tablePathURL(d.Path.Database, d.Path.Schema, d.Path.Table)+"/preview.csv"), Text("Download CSV"))),
		Table(headerRow(d.Preview.Columns...), TBody(Group(rows))),
	)
}
