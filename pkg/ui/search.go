package ui

import (
	"net/http"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/txn2/mcp-data-catalog/pkg/export"
	"github.com/txn2/mcp-data-catalog/pkg/resolver"
	"github.com/txn2/mcp-data-catalog/pkg/search"
	"github.com/txn2/mcp-data-catalog/pkg/session"
)

type searchPageData struct {
	Selection search.Selection
	Databases []string
	Schemas   []string
	Strategy  search.Strategy
	Query     string
	Result    *search.Result
	Error     string
}

// SearchPage handles GET /ui/search and shows the session's last result.
func (h *Handler) SearchPage(w http.ResponseWriter, r *http.Request) {
	st := h.state(r)
	h.renderSearch(w, r, http.StatusOK, searchPageData{
		Selection: st.Selection,
		Strategy:  search.StrategyFilter,
		Result:    st.Search,
	})
}

// SearchRun handles POST /ui/search. A successful result replaces the
// session's last result; a failed search leaves it in place.
func (h *Handler) SearchRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderServiceError(w, err)
		return
	}
	d := searchPageData{
		Strategy: search.Strategy(formString(r.PostForm, "strategy")),
		Query:    formString(r.PostForm, "query"),
		Selection: search.Selection{
			Database: formString(r.PostForm, "database"),
			Schema:   formString(r.PostForm, "schema"),
			Table:    formString(r.PostForm, "table"),
		},
	}

	var (
		res *search.Result
		err error
	)
	switch d.Strategy {
	case search.StrategyKeyword:
		res, err = h.Search.Keyword(r.Context(), d.Query)
	case search.StrategyAI:
		res, err = h.Search.AI(r.Context(), d.Query)
	default:
		d.Strategy = search.StrategyFilter
		res, err = h.Search.Filter(r.Context(), d.Selection)
	}
	if err != nil {
		status, _ := statusFor(err)
		d.Result = h.state(r).Search
		d.Error = err.Error()
		h.renderSearch(w, r, status, d)
		return
	}

	h.updateState(r, func(st *session.Interaction) {
		st.Search = res
		if d.Strategy == search.StrategyFilter {
			st.Selection = d.Selection
		}
	})
	d.Result = res
	h.renderSearch(w, r, http.StatusOK, d)
}

// SearchClear handles POST /ui/search/clear.
func (h *Handler) SearchClear(w http.ResponseWriter, r *http.Request) {
	h.updateState(r, func(st *session.Interaction) { st.Search = nil })
	redirect(w, r, "/ui/search")
}

// SearchExport handles GET /ui/search/export.csv.
func (h *Handler) SearchExport(w http.ResponseWriter, r *http.Request) {
	res := h.state(r).Search
	if res == nil {
		renderHTML(w, http.StatusNotFound, errorPage("Not Found", "There is no search result to export."))
		return
	}
	cols, rows := export.Entries(res.Entries)
	if err := export.ServeCSV(w, "search_results.csv", cols, rows); err != nil {
		h.renderServiceError(w, err)
	}
}

func (h *Handler) renderSearch(w http.ResponseWriter, r *http.Request, status int, d searchPageData) {
	res, err := resolver.Load(r.Context(), h.Store)
	if err != nil {
		h.renderServiceError(w, err)
		return
	}
	d.Databases = res.ListDatabases()
	if d.Selection.Database != "" {
		d.Schemas = res.ListSchemas(d.Selection.Database)
	}
	renderHTML(w, status, searchPage(d))
}

func strategyOption(value search.Strategy, label string, selected search.Strategy) Node {
	if value == selected {
		return Option(Value(string(value)), Selected(), Text(label))
	}
	return Option(Value(string(value)), Text(label))
}

func searchPage(d searchPageData) Node {
	return appPage("Search", "search",
		errorCard(d.Error),
		card(
			Form(Method("post"), Action("/ui/search"),
				Label(Text("Strategy "), Select(Name("strategy"),
					strategyOption(search.StrategyFilter, "Filter by location", d.Strategy),
					strategyOption(search.StrategyKeyword, "Keyword", d.Strategy),
					strategyOption(search.StrategyAI, "Ask a question (AI)", d.Strategy),
				)),
				P(
					selectField("database", "Database", d.Selection.Database, d.Databases),
					selectField("schema", "Schema", d.Selection.Schema, d.Schemas),
					Label(Text(" Table "), Input(Type("text"), Name("table"), Value(d.Selection.Table))),
				),
				P(Label(Text("Keyword or question "), Input(Type("text"), Name("query"), Value(d.Query), Placeholder("e.g. sales by region")))),
				Button(Type("submit"), Text("Search")),
			),
			P(Class("muted"), Textf("Results are limited to %d rows, ordered by table name.", search.ResultLimit)),
		),
		resultCard(d.Result),
	)
}

func resultCard(res *search.Result) Node {
	if res == nil {
		return nil
	}
	rows := make([]Node, 0, len(res.Entries))
	for _, e := range res.Entries {
		p := e.Path()
		rows = append(rows, Tr(
			Td(A(Href(tablePathURL(p.Database, p.Schema, p.Table)), Text(e.TableName))),
			Td(Text(e.Location)),
			Td(Text(strOrDash(e.TableComment))),
			Td(Text(strOrDash(e.Owner))),
			Td(Text(strOrDash(e.Scope))),
		))
	}
	return Div(Class("card table-wrap"),
		H2(Text(res.Provenance)),
		P(Class("muted"), Textf("%d tables.", len(res.Entries))),
		P(
			A(Href("/ui/search/export.csv"), Text("Download CSV")),
			Form(Class("inline-form"), Method("post"), Action("/ui/search/clear"),
				Button(Type("submit"), Text("Clear results")),
			),
		),
		Table(headerRow("Table", "Location", "Table comment", "Owner", "Scope"), TBody(Group(rows))),
	)
}
