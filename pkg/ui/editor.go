package ui

import (
	"log/slog"
	"net/http"
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/editor"
	"github.com/txn2/mcp-data-catalog/pkg/export"
	"github.com/txn2/mcp-data-catalog/pkg/session"
)

type editorPageData struct {
	Locations []string
	Snapshot  *editor.Snapshot
	LastSave  *editor.SaveResult
	Error     string
}

// EditorPage handles GET /ui/editor. The first visit loads every entry into
// the session buffer; later visits show the buffer as last loaded or saved.
func (h *Handler) EditorPage(w http.ResponseWriter, r *http.Request) {
	st := h.state(r)
	if st.Snapshot == nil {
		snap, err := h.load(r, catalog.ListFilter{})
		if err != nil {
			h.renderServiceError(w, err)
			return
		}
		st.Snapshot, st.LastSave = snap, nil
	}
	h.renderEditor(w, r, http.StatusOK, st.Snapshot, st.LastSave, "")
}

// EditorReload handles POST /ui/editor/reload. It loads a fresh buffer with
// a new token for the submitted location and text filter.
func (h *Handler) EditorReload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, err)
		return
	}
	filter := catalog.ListFilter{
		Location: formString(r.PostForm, "location"),
		Text:     formString(r.PostForm, "text"),
	}
	if _, err := h.load(r, filter); err != nil {
		h.renderServiceError(w, err)
		return
	}
	redirect(w, r, "/ui/editor")
}

func (h *Handler) load(r *http.Request, filter catalog.ListFilter) (*editor.Snapshot, error) {
	snap, err := h.Editor.Load(r.Context(), filter)
	if err != nil {
		return nil, err
	}
	h.updateState(r, func(st *session.Interaction) {
		st.Snapshot = snap.Clone()
		st.LastSave = nil
	})
	return snap, nil
}

// EditorSave handles POST /ui/editor/save. The submitted form overlays the
// editable fields of the buffered rows; read-only fields always come from
// the buffer. The buffer is claimed while the rows are written.
func (h *Handler) EditorSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, err)
		return
	}
	st := h.state(r)
	if st.Snapshot == nil {
		redirect(w, r, "/ui/editor")
		return
	}

	id := session.IDFromContext(r.Context())
	token := formString(r.PostForm, "token")
	snap, err := session.ClaimSnapshot(r.Context(), h.Sessions, id, token)
	if err != nil {
		status, _ := statusFor(err)
		h.renderEditor(w, r, status, st.Snapshot, nil, err.Error())
		return
	}

	edited := editedRows(r.PostForm, snap.Rows)
	res, err := h.Editor.Save(r.Context(), snap, token, edited)
	if relErr := session.ReleaseSnapshot(r.Context(), h.Sessions, id, snap, res); relErr != nil {
		slog.Warn("session update failed", "error", relErr)
	}
	if err != nil {
		status, _ := statusFor(err)
		h.renderEditor(w, r, status, st.Snapshot, nil, err.Error())
		return
	}
	redirect(w, r, "/ui/editor")
}

// EditorExport handles GET /ui/editor/export.csv.
func (h *Handler) EditorExport(w http.ResponseWriter, r *http.Request) {
	var rows []catalog.Entry
	if snap := h.state(r).Snapshot; snap != nil {
		rows = snap.Rows
	}
	cols, records := export.Entries(rows)
	if err := export.ServeCSV(w, "catalog_entries.csv", cols, records); err != nil {
		h.renderServiceError(w, err)
	}
}

// editedRows copies rows and replaces their editable fields with the
// submitted values. Field names are "<column>_<row index>".
func editedRows(values map[string][]string, rows []catalog.Entry) []catalog.Entry {
	out := make([]catalog.Entry, len(rows))
	for i, row := range rows {
		suffix := "_" + strconv.Itoa(i)
		row.Editable = catalog.Editable{
			Owner:              formOptionalString(values, catalog.ColOwner+suffix),
			SubOwner:           formOptionalString(values, catalog.ColSubOwner+suffix),
			Publish:            formOptionalString(values, catalog.ColPublish+suffix),
			Scope:              formOptionalString(values, catalog.ColScope+suffix),
			ApplicationProject: formOptionalString(values, catalog.ColApplicationProject+suffix),
			Comment:            formOptionalString(values, catalog.ColComment+suffix),
		}
		out[i] = row
	}
	return out
}

func (h *Handler) renderEditor(w http.ResponseWriter, r *http.Request, status int, snap *editor.Snapshot, last *editor.SaveResult, errMsg string) {
	locations, err := h.Store.Locations(r.Context())
	if err != nil {
		h.renderServiceError(w, err)
		return
	}
	renderHTML(w, status, editorPage(editorPageData{
		Locations: locations,
		Snapshot:  snap,
		LastSave:  last,
		Error:     errMsg,
	}))
}

var readOnlyHeaders = []string{"Table", "Location", "Account", "Classification", "Columns", "Records", "Updated", "Table comment"}

var editableHeaders = []string{"Owner", "Sub owner", "Publish", "Scope", "Application project", "Comment"}

func editorPage(d editorPageData) Node {
	snap := d.Snapshot

	header := make([]Node, 0, len(readOnlyHeaders)+len(editableHeaders))
	for _, name := range readOnlyHeaders {
		header = append(header, Th(Text(name)))
	}
	for _, name := range editableHeaders {
		header = append(header, Th(Class("editable"), Text(name)))
	}

	rows := make([]Node, 0, len(snap.Rows))
	for i, e := range snap.Rows {
		suffix := "_" + strconv.Itoa(i)
		values := e.Editable.Values()
		cells := []Node{
			Td(A(Href(tablePathURL(e.Path().Database, e.Path().Schema, e.TableName)), Text(e.TableName))),
			Td(Text(e.Location)),
			Td(Text(strOrDash(e.Account))),
			Td(Text(strOrDash(e.Classification))),
			Td(Text(intOrDash(e.ColumnCount))),
			Td(Text(intOrDash(e.RecordCount))),
			Td(Text(timeOrDash(e.UpdateDate))),
			Td(Text(strOrDash(e.TableComment))),
		}
		for j, col := range catalog.EditableColumns {
			cells = append(cells, Td(Input(Type("text"), Name(col+suffix), Value(catalog.Deref(values[j])))))
		}
		rows = append(rows, Tr(Group(cells)))
	}

	return appPage("Editor", "editor",
		errorCard(d.Error),
		saveResultCard(d.LastSave),
		card(
			Form(Method("post"), Action("/ui/editor/reload"),
				selectField("location", "Location", snap.Filter.Location, d.Locations),
				Label(Text(" Contains "), Input(Type("text"), Name("text"), Value(snap.Filter.Text))),
				Button(Type("submit"), Text("Reload")),
			),
			P(Class("muted"), Textf("%d rows. Highlighted columns are editable; the rest are read-only.", len(snap.Rows))),
			A(Href("/ui/editor/export.csv"), Text("Download CSV")),
		),
		Div(Class("card table-wrap"),
			Form(Method("post"), Action("/ui/editor/save"),
				Input(Type("hidden"), Name("token"), Value(snap.Token)),
				Table(THead(Tr(Group(header))), TBody(Group(rows))),
				Button(Type("submit"), Text("Save changes")),
			),
		),
	)
}

func saveResultCard(res *editor.SaveResult) Node {
	if res == nil {
		return nil
	}
	summary := P(Textf("Saved: %d updated, %d failed, %d unchanged.", res.Updated, res.Failed, res.Unchanged))
	if len(res.Failures) == 0 {
		return Div(Class("card notice"), summary)
	}
	items := make([]Node, 0, len(res.Failures))
	for _, f := range res.Failures {
		items = append(items, Li(Textf("%s.%s: %s", f.Location, f.TableName, f.Message)))
	}
	return Div(Class("card error"), summary, Ul(Group(items)))
}
