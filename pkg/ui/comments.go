package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/commentgen"
	"github.com/txn2/mcp-data-catalog/pkg/session"
)

// columnFieldPrefix prefixes the form field of each column comment.
const columnFieldPrefix = "col_"

type commentsPageData struct {
	Path          catalog.LocationPath
	Databases     []string
	Schemas       []string
	Tables        []string
	Coverage      *commentgen.Coverage
	CoverageError string
	TableDraft    string
	ColumnDrafts  *commentgen.ColumnDrafts
	Entry         *catalog.Entry
	EntryError    string
	Notice        string
	Error         string
}

// CommentsPage handles GET /ui/comments. The database, schema and table
// pickers list the live warehouse; choosing another table drops the drafts
// of the previous one.
func (h *Handler) CommentsPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := catalog.LocationPath{
		Database: formString(q, "database"),
		Schema:   formString(q, "schema"),
		Table:    formString(q, "table"),
	}
	if !q.Has("database") {
		path = h.state(r).CommentTable
	}
	h.renderComments(w, r, http.StatusOK, path, "", "")
}

// CommentsGenerate handles POST /ui/comments/generate. The target field
// selects the table comment or the column comments.
func (h *Handler) CommentsGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, err)
		return
	}
	path := formPath(r.PostForm)

	if formString(r.PostForm, "target") == "table" {
		comment, err := h.Comments.GenerateTableComment(r.Context(), path)
		if err != nil {
			status, _ := statusFor(err)
			h.renderComments(w, r, status, path, "", "Generating table comment failed: "+err.Error())
			return
		}
		h.updateState(r, func(st *session.Interaction) {
			selectCommentTable(st, path)
			st.TableDraft = comment
		})
		h.renderComments(w, r, http.StatusOK, path, "Table comment drafted. Review it before saving.", "")
		return
	}

	drafts, err := h.Comments.GenerateColumnComments(r.Context(), path)
	if err != nil {
		status, _ := statusFor(err)
		h.renderComments(w, r, status, path, "", "Generating column comments failed: "+err.Error())
		return
	}
	h.updateState(r, func(st *session.Interaction) {
		selectCommentTable(st, path)
		st.ColumnDrafts = drafts
	})
	notice := fmt.Sprintf("Drafted %d column comments.", drafts.Generated)
	if drafts.Failed > 0 {
		notice += fmt.Sprintf(" %d columns failed and are marked %s.", drafts.Failed, commentgen.ErrorMarker)
	}
	h.renderComments(w, r, http.StatusOK, path, notice, "")
}

// CommentsSave handles POST /ui/comments/save. Blank fields, fields still
// holding the error marker and fields equal to the current comment are not
// written.
func (h *Handler) CommentsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, err)
		return
	}
	path := formPath(r.PostForm)

	cov, err := h.Comments.Coverage(r.Context(), path)
	if err != nil {
		status, _ := statusFor(err)
		h.renderComments(w, r, status, path, "", "Reading current comments failed: "+err.Error())
		return
	}

	var notices []string
	if comment := formString(r.PostForm, "table_comment"); comment != "" && comment != strings.TrimSpace(cov.TableComment) {
		if err := h.Comments.SaveTableComment(r.Context(), path, comment); err != nil {
			status, _ := statusFor(err)
			h.renderComments(w, r, status, path, "", "Saving table comment failed: "+err.Error())
			return
		}
		notices = append(notices, "Table comment saved.")
	}

	drafts := changedColumnDrafts(r.PostForm, cov.Columns)
	var errMsg string
	if len(drafts) > 0 {
		res, err := h.Comments.SaveColumnComments(r.Context(), path, drafts)
		if err != nil {
			status, _ := statusFor(err)
			h.renderComments(w, r, status, path, strings.Join(notices, " "), "Saving column comments failed: "+err.Error())
			return
		}
		notices = append(notices, fmt.Sprintf("%d column comments saved, %d skipped.", res.Saved, res.Skipped))
		if len(res.Failures) > 0 {
			failed := make([]string, 0, len(res.Failures))
			for _, f := range res.Failures {
				failed = append(failed, f.Column+": "+f.Error)
			}
			errMsg = "Some column comments were not saved: " + strings.Join(failed, "; ")
		}
	}
	if len(notices) == 0 {
		h.renderComments(w, r, http.StatusBadRequest, path, "", "Nothing to save.")
		return
	}

	h.updateState(r, func(st *session.Interaction) {
		if st.CommentTable == path {
			st.ClearDrafts()
		}
	})
	h.renderComments(w, r, http.StatusOK, path, strings.Join(notices, " "), errMsg)
}

// CommentsEntrySave handles POST /ui/comments/entry and writes the editable
// catalog entry fields of the selected table. Empty fields are stored as null.
func (h *Handler) CommentsEntrySave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, err)
		return
	}
	path := formPath(r.PostForm)
	if !path.Complete() {
		h.renderComments(w, r, http.StatusBadRequest, path, "", "Select a database, schema and table.")
		return
	}

	key := catalog.Key{TableName: path.Table, Location: path.Location()}
	if err := h.Store.UpdateEditable(r.Context(), key, entryFields(r.PostForm)); err != nil {
		status, _ := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("saving catalog entry failed", "table", path.String(), "error", err)
		}
		h.renderComments(w, r, status, path, "", "Saving catalog entry failed: "+err.Error())
		return
	}
	slog.Info("catalog entry saved", "table", path.String())
	h.renderComments(w, r, http.StatusOK, path, "Catalog entry saved.", "")
}

func entryFields(values map[string][]string) catalog.Editable {
	return catalog.Editable{
		Owner:              formOptionalString(values, catalog.ColOwner),
		SubOwner:           formOptionalString(values, catalog.ColSubOwner),
		Publish:            formOptionalString(values, catalog.ColPublish),
		Scope:              formOptionalString(values, catalog.ColScope),
		ApplicationProject: formOptionalString(values, catalog.ColApplicationProject),
		Comment:            formOptionalString(values, catalog.ColComment),
	}
}

// CommentsCancel handles POST /ui/comments/cancel and discards the drafts.
func (h *Handler) CommentsCancel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, err)
		return
	}
	path := formPath(r.PostForm)
	h.updateState(r, func(st *session.Interaction) {
		if st.CommentTable == path {
			st.ClearDrafts()
		}
	})
	redirect(w, r, commentsURL(path))
}

func selectCommentTable(st *session.Interaction, path catalog.LocationPath) {
	if st.CommentTable != path {
		st.ClearDrafts()
		st.CommentTable = path
	}
}

func formPath(values map[string][]string) catalog.LocationPath {
	return catalog.LocationPath{
		Database: formString(values, "database"),
		Schema:   formString(values, "schema"),
		Table:    formString(values, "table"),
	}
}

func commentsURL(p catalog.LocationPath) string {
	return pageURL("/ui/comments", "database", p.Database, "schema", p.Schema, "table", p.Table)
}

// changedColumnDrafts collects the submitted column comments that differ from
// the current ones, in column order.
func changedColumnDrafts(values map[string][]string, cols []catalog.ColumnDescriptor) []commentgen.ColumnDraft {
	var drafts []commentgen.ColumnDraft
	for _, c := range cols {
		v := formString(values, columnFieldPrefix+c.Name)
		if v == "" || v == strings.TrimSpace(c.Comment) {
			continue
		}
		drafts = append(drafts, commentgen.ColumnDraft{Column: c.Name, DataType: c.DataType, Comment: v})
	}
	return drafts
}

func (h *Handler) renderComments(w http.ResponseWriter, r *http.Request, status int, path catalog.LocationPath, notice, errMsg string) {
	ctx := r.Context()
	d := commentsPageData{Path: path, Notice: notice, Error: errMsg}

	var err error
	if d.Databases, err = h.Warehouse.ListDatabases(ctx); err != nil {
		d.Error = joinMessages(d.Error, "Listing databases failed: "+err.Error())
	}
	if path.Database != "" {
		if d.Schemas, err = h.Warehouse.ListSchemas(ctx, path.Database); err != nil {
			d.Error = joinMessages(d.Error, "Listing schemas failed: "+err.Error())
		}
	}
	if path.Database != "" && path.Schema != "" {
		if d.Tables, err = h.Warehouse.ListTables(ctx, path.Database, path.Schema); err != nil {
			d.Error = joinMessages(d.Error, "Listing tables failed: "+err.Error())
		}
	}

	if path.Complete() {
		if d.Coverage, err = h.Comments.Coverage(ctx, path); err != nil {
			d.CoverageError = err.Error()
		}
		var st session.Interaction
		h.updateState(r, func(s *session.Interaction) {
			selectCommentTable(s, path)
			st = *s
		})
		if st.CommentTable == path {
			d.TableDraft = st.TableDraft
			d.ColumnDrafts = st.ColumnDrafts
		}

		d.Entry, err = h.Store.Get(ctx, catalog.Key{TableName: path.Table, Location: path.Location()})
		if err != nil && !errors.Is(err, catalog.ErrEntryNotFound) {
			d.EntryError = err.Error()
		}
	}

	renderHTML(w, status, commentsPage(d))
}

func joinMessages(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

func commentsPage(d commentsPageData) Node {
	return appPage("Comments", "comments",
		noticeCard(d.Notice),
		errorCard(d.Error),
		card(
			Form(Method("get"), Action("/ui/comments"),
				selectField("database", "Database", d.Path.Database, d.Databases),
				selectField("schema", "Schema", d.Path.Schema, d.Schemas),
				selectField("table", "Table", d.Path.Table, d.Tables),
				Button(Type("submit"), Text("Select")),
			),
		),
		commentsBody(d),
		commentsEntryCard(d),
	)
}

func commentsEntryCard(d commentsPageData) Node {
	if !d.Path.Complete() {
		return nil
	}
	title := H2(Text("Catalog entry"))
	switch {
	case d.EntryError != "":
		return card(title, P(Class("muted"), Text("Catalog entry unavailable: "+d.EntryError)))
	case d.Entry == nil:
		return card(title, P(Class("muted"), Text("This table is not registered in the catalog.")))
	}
	e := d.Entry
	return card(title,
		Form(Method("post"), Action("/ui/comments/entry"),
			Input(Type("hidden"), Name("database"), Value(d.Path.Database)),
			Input(Type("hidden"), Name("schema"), Value(d.Path.Schema)),
			Input(Type("hidden"), Name("table"), Value(d.Path.Table)),
			Div(Class("columns"),
				Div(
					entryInput(catalog.ColOwner, "Owner", e.Owner),
					entryInput(catalog.ColSubOwner, "Sub owner", e.SubOwner),
					entryInput(catalog.ColPublish, "Publish", e.Publish),
				),
				Div(
					entryInput(catalog.ColScope, "Scope", e.Scope),
					entryInput(catalog.ColApplicationProject, "Application project", e.ApplicationProject),
				),
			),
			P(Label(Text("Comment "), Textarea(Name(catalog.ColComment), Rows("3"), Text(catalog.Deref(e.Comment))))),
			Button(Type("submit"), Text("Save catalog entry")),
		),
	)
}

func entryInput(name, label string, value *string) Node {
	return P(Label(Text(label+" "), Input(Type("text"), Name(name), Value(catalog.Deref(value)))))
}

func commentsBody(d commentsPageData) Node {
	if !d.Path.Complete() {
		return card(P(Class("muted"), Text("Select a database, schema and table.")))
	}
	if d.CoverageError != "" {
		return card(P(Class("muted"), Text("Table unavailable: "+d.CoverageError)))
	}
	cov := d.Coverage

	hidden := Group([]Node{
		Input(Type("hidden"), Name("database"), Value(d.Path.Database)),
		Input(Type("hidden"), Name("schema"), Value(d.Path.Schema)),
		Input(Type("hidden"), Name("table"), Value(d.Path.Table)),
	})

	tableComment := cov.TableComment
	if d.TableDraft != "" {
		tableComment = d.TableDraft
	}
	drafts := map[string]commentgen.ColumnDraft{}
	if d.ColumnDrafts != nil {
		for _, draft := range d.ColumnDrafts.Drafts {
			drafts[draft.Column] = draft
		}
	}

	rows := make([]Node, 0, len(cov.Columns))
	for _, c := range cov.Columns {
		value, note := c.Comment, ""
		if draft, ok := drafts[c.Name]; ok {
			value = draft.Comment
			note = draft.Error
		}
		rows = append(rows, Tr(
			Td(Text(c.Name)),
			Td(Text(c.DataType)),
			Td(Text(dashIfEmpty(c.Comment))),
			Td(Textarea(Name(columnFieldPrefix+c.Name), Rows("2"), Text(value)), If(note != "", P(Class("muted"), Text(note)))),
		))
	}

	hasTable := "no"
	if cov.HasTableComment() {
		hasTable = "yes"
	}

	return Group([]Node{
		card(
			H2(Text("Coverage of "+d.Path.String())),
			P(Textf("Table comment: %s. Columns commented: %d of %d (%.0f%%).", hasTable, cov.Commented, cov.Total, cov.Percent())),
			Form(Class("inline-form"), Method("post"), Action("/ui/comments/generate"), hidden,
				Input(Type("hidden"), Name("target"), Value("table")),
				Button(Type("submit"), Text("Generate table comment")),
			),
			Form(Class("inline-form"), Method("post"), Action("/ui/comments/generate"), hidden,
				Input(Type("hidden"), Name("target"), Value("columns")),
				Button(Type("submit"), Text("Generate column comments")),
			),
			Form(Class("inline-form"), Method("post"), Action("/ui/comments/cancel"), hidden,
				Button(Type("submit"), Text("Discard drafts")),
			),
		),
		Div(Class("card table-wrap"),
			Form(Method("post"), Action("/ui/comments/save"), hidden,
				H2(Text("Table comment")),
				Textarea(Name("table_comment"), Rows("3"), Text(tableComment)),
				H2(Text("Column comments")),
				Table(headerRow("Column", "Type", "Current", "Draft"), TBody(Group(rows))),
				Button(Type("submit"), Text("Save comments")),
			),
		),
	})
}
