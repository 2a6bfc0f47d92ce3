package ui

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type navItem struct {
	Label string
	Href  string
	Key   string
}

var navItems = []navItem{
	{Label: "Browse", Href: "/ui/browse", Key: "browse"},
	{Label: "Editor", Href: "/ui/editor", Key: "editor"},
	{Label: "Search", Href: "/ui/search", Key: "search"},
	{Label: "Comments", Href: "/ui/comments", Key: "comments"},
}

const stylesheet = `
body { font-family: system-ui, sans-serif; margin: 0; background: #f6f7f9; color: #1d2330; }
.layout { max-width: 1200px; margin: 0 auto; padding: 1rem 1.5rem; }
.topbar { display: flex; justify-content: space-between; align-items: center; }
.nav a { margin-right: 1rem; text-decoration: none; }
.nav a.active { font-weight: bold; }
.card { background: #fff; border: 1px solid #dde1e8; border-radius: 6px; padding: 1rem; margin-bottom: 1rem; }
.table-wrap { overflow-x: auto; }
table { border-collapse: collapse; width: 100%; }
th, td { border-bottom: 1px solid #e6e9ef; padding: 0.35rem 0.5rem; text-align: left; vertical-align: top; }
th.editable { background: #eef6ee; }
.muted { color: #6b7385; }
.notice { border-left: 4px solid #2e7d32; }
.error { border-left: 4px solid #c62828; }
.inline-form { display: inline; }
.columns { display: flex; gap: 1rem; }
.columns > div { flex: 1; }
`

func appPage(title, active string, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := ""
		if item.Key == active {
			className = "active"
		}
		nav = append(nav, A(Href(item.Href), Class(className), Text(item.Label)))
	}

	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | Data Catalog")),
			StyleEl(Raw(stylesheet)),
		),
		Body(
			Main(
				Class("layout"),
				Div(
					Class("topbar"),
					Div(
						Strong(Text("Data Catalog")),
						P(Class("muted"), Text("Table metadata, search and comment drafting")),
					),
				),
				Nav(Class("nav"), Group(nav)),
				H1(Class("page-title"), Text(title)),
				Group(body),
			),
		),
	)
}

func errorPage(title, message string) Node {
	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			TitleEl(Text(title+" | Data Catalog")),
			StyleEl(Raw(stylesheet)),
		),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href("/ui/browse"), Text("Back to browse"))),
			),
		),
	)
}

func card(children ...Node) Node {
	return Div(Class("card"), Group(children))
}

func noticeCard(message string) Node {
	if message == "" {
		return nil
	}
	return Div(Class("card notice"), P(Text(message)))
}

func errorCard(message string) Node {
	if message == "" {
		return nil
	}
	return Div(Class("card error"), P(Text(message)))
}

func headerRow(names ...string) Node {
	cells := make([]Node, 0, len(names))
	for _, n := range names {
		cells = append(cells, Th(Text(n)))
	}
	return THead(Tr(Group(cells)))
}

func selectField(name, label, selected string, options []string) Node {
	opts := []Node{Option(Value(""), Text("(any)"))}
	for _, o := range options {
		opts = append(opts, optionSelected(o, selected))
	}
	return Label(Text(label+" "), Select(Name(name), Group(opts)))
}

func optionSelected(value, selected string) Node {
	if value == selected {
		return Option(Value(value), Selected(), Text(value))
	}
	return Option(Value(value), Text(value))
}

func tablePathURL(database, schema, table string) string {
	return "/ui/tables/" + url.PathEscape(database) + "/" + url.PathEscape(schema) + "/" + url.PathEscape(table)
}

// pageURL appends the non-empty values as a query string.
func pageURL(path string, pairs ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			v.Set(pairs[i], pairs[i+1])
		}
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func browseURL(database, schema string) string {
	return pageURL("/ui/browse", "database", database, "schema", schema)
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

func dashIfEmpty(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func strOrDash(v *string) string {
	if v == nil {
		return "-"
	}
	return dashIfEmpty(*v)
}

func intOrDash(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func timeOrDash(v *time.Time) string {
	if v == nil || v.IsZero() {
		return "-"
	}
	return v.Format("2006-01-02 15:04")
}
