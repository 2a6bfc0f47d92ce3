package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/commentgen"
	"github.com/txn2/mcp-data-catalog/pkg/editor"
	"github.com/txn2/mcp-data-catalog/pkg/export"
	"github.com/txn2/mcp-data-catalog/pkg/search"
	"github.com/txn2/mcp-data-catalog/pkg/session"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
)

// Test constants to avoid repeated string literals.
const (
	testSessionID = "sess-1"
	testLocation  = "DWH.MART"
	testTablePath = "/tables/DWH/MART/TB_SALES"
	contentType   = "Content-Type"
	applicationJS = "application/json"
)

var errBoom = errors.New("boom")

// --- mocks ---

type mockStore struct {
	entries   []catalog.Entry
	locations []string
	tables    []string
	listErr   error
	updated   []catalog.Key
	updateErr map[string]error
}

func (m *mockStore) Locations(_ context.Context) ([]string, error) { return m.locations, m.listErr }

func (m *mockStore) ListTables(_ context.Context, _ string) ([]string, error) {
	return m.tables, m.listErr
}

func (m *mockStore) LocationsOf(_ context.Context, table string) ([]string, error) {
	var out []string
	for _, e := range m.entries {
		if e.TableName == table {
			out = append(out, e.Location)
		}
	}
	return out, m.listErr
}

func (m *mockStore) Get(_ context.Context, key catalog.Key) (*catalog.Entry, error) {
	for _, e := range m.entries {
		if e.Key() == key {
			out := e
			return &out, nil
		}
	}
	return nil, catalog.ErrEntryNotFound
}

func (m *mockStore) List(_ context.Context, _ catalog.ListFilter) ([]catalog.Entry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]catalog.Entry(nil), m.entries...), nil
}

func (m *mockStore) Search(_ context.Context, _ catalog.SearchQuery) ([]catalog.Entry, error) {
	return m.entries, m.listErr
}

func (m *mockStore) UpdateEditable(_ context.Context, key catalog.Key, _ catalog.Editable) error {
	if err := m.updateErr[key.TableName]; err != nil {
		return err
	}
	m.updated = append(m.updated, key)
	return nil
}

type mockWarehouse struct {
	warehouse.NoopProvider
	cols       []catalog.ColumnDescriptor
	describErr error
	preview    *warehouse.Preview
}

func (m *mockWarehouse) DescribeTable(_ context.Context, _ catalog.LocationPath) ([]catalog.ColumnDescriptor, error) {
	return m.cols, m.describErr
}

func (m *mockWarehouse) Preview(_ context.Context, _ catalog.LocationPath, limit int) (*warehouse.Preview, error) {
	if m.preview == nil {
		return nil, warehouse.ErrNotConfigured
	}
	p := *m.preview
	if len(p.Rows) > limit {
		p.Rows = p.Rows[:limit]
	}
	return &p, nil
}

func (*mockWarehouse) ListDatabases(_ context.Context) ([]string, error) {
	return []string{"DWH"}, nil
}

type mockCommenter struct {
	err         error
	savedTable  string
	savedDrafts []commentgen.ColumnDraft
	saveResult  *commentgen.SaveResult
}

func (m *mockCommenter) GenerateColumnComments(_ context.Context, table catalog.LocationPath) (*commentgen.ColumnDrafts, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &commentgen.ColumnDrafts{
		Table:     table,
		Drafts:    []commentgen.ColumnDraft{{Column: "ID", Comment: "Row id"}, {Column: "QTY", Comment: commentgen.ErrorMarker}},
		Generated: 1,
		Failed:    1,
	}, nil
}

func (m *mockCommenter) GenerateTableComment(_ context.Context, _ catalog.LocationPath) (string, error) {
	return "Daily sales", m.err
}

func (m *mockCommenter) Coverage(_ context.Context, table catalog.LocationPath) (*commentgen.Coverage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &commentgen.Coverage{Table: table, Commented: 3, Total: 4}, nil
}

func (m *mockCommenter) SaveTableComment(_ context.Context, _ catalog.LocationPath, comment string) error {
	m.savedTable = comment
	return m.err
}

func (m *mockCommenter) SaveColumnComments(_ context.Context, _ catalog.LocationPath, drafts []commentgen.ColumnDraft) (*commentgen.SaveResult, error) {
	m.savedDrafts = drafts
	if m.saveResult != nil {
		return m.saveResult, nil
	}
	return &commentgen.SaveResult{Saved: len(drafts)}, m.err
}

// --- fixture ---

type fixture struct {
	h        *Handler
	store    *mockStore
	wh       *mockWarehouse
	comments *mockCommenter
	sessions *session.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: &mockStore{
			entries: []catalog.Entry{
				{TableName: "TB_SALES", Location: testLocation, Editable: catalog.Editable{Owner: catalog.Str("alice")}},
				{TableName: "TB_STOCK", Location: testLocation},
			},
			locations: []string{testLocation, "DWH.STAGE", "CRM.PUBLIC"},
			tables:    []string{"TB_STOCK", "TB_SALES"},
		},
		wh:       &mockWarehouse{},
		comments: &mockCommenter{},
		sessions: session.NewMemoryStore(time.Hour),
	}
	now := time.Now()
	require.NoError(t, f.sessions.Create(context.Background(), &session.Session{
		ID: testSessionID, CreatedAt: now, LastActiveAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	f.h = NewHandler(Deps{
		Store:     f.store,
		Editor:    editor.New(f.store),
		Search:    search.New(f.store, nil, ""),
		Warehouse: f.wh,
		Comments:  f.comments,
		Sessions:  f.sessions,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(session.WithID(req.Context(), testSessionID))
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, req)
	return w
}

func (f *fixture) state(t *testing.T) session.Interaction {
	t.Helper()
	sess, err := f.sessions.Get(context.Background(), testSessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	return sess.State
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	assert.Equal(t, applicationJS, w.Header().Get(contentType))
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

// --- tests ---

func TestNewHandler_Defaults(t *testing.T) {
	h := NewHandler(Deps{})
	assert.NotNil(t, h.store)
	assert.NotNil(t, h.warehouse)
	assert.Equal(t, DefaultPreviewLimit, h.previewLimit)
}

func TestLocations(t *testing.T) {
	f := newFixture(t)

	var resp namesResponse
	w := f.do(t, http.MethodGet, "/databases", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &resp)
	assert.Equal(t, []string{"CRM", "DWH"}, resp.Data)

	w = f.do(t, http.MethodGet, "/databases/DWH/schemas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &resp)
	assert.Equal(t, []string{"MART", "STAGE"}, resp.Data)

	w = f.do(t, http.MethodGet, "/databases/NOPE/schemas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &resp)
	assert.Empty(t, resp.Data)

	w = f.do(t, http.MethodGet, "/databases/DWH/schemas/MART/tables", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &resp)
	assert.Equal(t, []string{"TB_SALES", "TB_STOCK"}, resp.Data)

	var located locateResponse
	w = f.do(t, http.MethodGet, "/locate/TB_SALES", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &located)
	assert.Equal(t, []catalog.LocationPath{{Database: "DWH", Schema: "MART", Table: "TB_SALES"}}, located.Data)
}

func TestLocations_StoreError(t *testing.T) {
	f := newFixture(t)
	f.store.listErr = errBoom

	w := f.do(t, http.MethodGet, "/databases", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "boom")
}

func TestDescribeTable(t *testing.T) {
	f := newFixture(t)
	f.wh.cols = []catalog.ColumnDescriptor{{Name: "ID", DataType: "bigint"}}

	w := f.do(t, http.MethodGet, testTablePath, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp tableResponse
	decodeJSON(t, w, &resp)
	require.NotNil(t, resp.Entry)
	assert.Equal(t, "alice", catalog.Deref(resp.Entry.Owner))
	assert.Len(t, resp.Columns, 1)
	assert.Equal(t, "DWH.MART.TB_SALES", resp.Connection.FullPath)

	f.wh.describErr = errBoom
	w = f.do(t, http.MethodGet, testTablePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &resp)
	assert.Equal(t, "boom", resp.ColumnsError)

	w = f.do(t, http.MethodGet, "/tables/DWH/MART/MISSING", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDescribeTable_EscapedPath(t *testing.T) {
	f := newFixture(t)
	f.store.entries = append(f.store.entries,
		catalog.Entry{TableName: "A/B", Location: "R&D.PUBLIC", Editable: catalog.Editable{Owner: catalog.Str("carol")}},
		catalog.Entry{TableName: "TB%20SALES", Location: "R&D.PUBLIC", Editable: catalog.Editable{Owner: catalog.Str("bob")}},
	)

	var resp tableResponse
	w := f.do(t, http.MethodGet, "/tables/R&D/PUBLIC/A%2FB", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &resp)
	require.NotNil(t, resp.Entry)
	assert.Equal(t, "carol", catalog.Deref(resp.Entry.Owner))

	resp = tableResponse{}
	w = f.do(t, http.MethodGet, "/tables/R&D/PUBLIC/TB%2520SALES", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &resp)
	require.NotNil(t, resp.Entry)
	assert.Equal(t, "bob", catalog.Deref(resp.Entry.Owner))

	var located locateResponse
	w = f.do(t, http.MethodGet, "/locate/A%2FB", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &located)
	assert.Equal(t, []catalog.LocationPath{{Database: "R&D", Schema: "PUBLIC", Table: "A/B"}}, located.Data)
}

func TestPreview(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, testTablePath+"/preview", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	f.wh.preview = &warehouse.Preview{Columns: []string{"ID", "NAME"}, Rows: [][]string{{"1", "Ünïcode"}}}
	w = f.do(t, http.MethodGet, testTablePath+"/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var preview warehouse.Preview
	decodeJSON(t, w, &preview)
	assert.Equal(t, []string{"ID", "NAME"}, preview.Columns)

	w = f.do(t, http.MethodGet, testTablePath+"/preview.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "DWH_MART_TB_SALES_preview.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), export.BOM+"ID,NAME\n"))
	assert.Contains(t, w.Body.String(), "1,Ünïcode")
}

func TestWarehouseListing(t *testing.T) {
	f := newFixture(t)

	var resp namesResponse
	w := f.do(t, http.MethodGet, "/warehouse/databases", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &resp)
	assert.Equal(t, []string{"DWH"}, resp.Data)

	w = f.do(t, http.MethodGet, "/warehouse/databases/DWH/schemas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &resp)
	assert.Empty(t, resp.Data)
}

func TestEntries_LoadAndSave(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/entries?location=DWH.MART", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap editor.Snapshot
	decodeJSON(t, w, &snap)
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, testLocation, snap.Filter.Location)

	st := f.state(t)
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, snap.Token, st.Snapshot.Token)

	rows := snap.Rows
	rows[1].Scope = catalog.Str("internal")
	w = f.do(t, http.MethodPut, "/entries", saveRequest{Token: snap.Token, Rows: rows})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res editor.SaveResult
	decodeJSON(t, w, &res)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Unchanged)
	assert.NotEqual(t, snap.Token, res.Token)
	assert.Equal(t, []catalog.Key{{TableName: "TB_STOCK", Location: testLocation}}, f.store.updated)

	st = f.state(t)
	assert.Equal(t, res.Token, st.Snapshot.Token)
	assert.Equal(t, "internal", catalog.Deref(st.Snapshot.Rows[1].Scope))
	require.NotNil(t, st.LastSave)

	// The old token is now stale.
	w = f.do(t, http.MethodPut, "/entries", saveRequest{Token: snap.Token, Rows: rows})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEntries_SavePartialFailure(t *testing.T) {
	f := newFixture(t)
	f.store.updateErr = map[string]error{"TB_SALES": errBoom}

	w := f.do(t, http.MethodGet, "/entries", nil)
	var snap editor.Snapshot
	decodeJSON(t, w, &snap)

	rows := snap.Rows
	rows[0].Owner = catalog.Str("bob")
	rows[1].Owner = catalog.Str("carol")
	w = f.do(t, http.MethodPut, "/entries", saveRequest{Token: snap.Token, Rows: rows})
	require.Equal(t, http.StatusMultiStatus, w.Code)

	var res editor.SaveResult
	decodeJSON(t, w, &res)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "TB_SALES", res.Failures[0].TableName)
	assert.Equal(t, "boom", res.Failures[0].Message)
}

func TestEntries_SaveWhileClaimed(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/entries", nil)
	var snap editor.Snapshot
	decodeJSON(t, w, &snap)

	claimed, err := session.ClaimSnapshot(context.Background(), f.sessions, testSessionID, snap.Token)
	require.NoError(t, err)

	rows := snap.Rows
	rows[0].Owner = catalog.Str("bob")
	w = f.do(t, http.MethodPut, "/entries", saveRequest{Token: snap.Token, Rows: rows})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, f.store.updated)

	require.NoError(t, session.ReleaseSnapshot(context.Background(), f.sessions, testSessionID, claimed, nil))
	w = f.do(t, http.MethodPut, "/entries", saveRequest{Token: snap.Token, Rows: rows})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.store.updated, 1)
}

func TestEntries_SaveRejections(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPut, "/entries", map[string]any{"rows": []catalog.Entry{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Token")

	w = f.do(t, http.MethodPut, "/entries", saveRequest{Token: "tok", Rows: []catalog.Entry{}})
	assert.Equal(t, http.StatusConflict, w.Code, "no snapshot loaded")

	w = f.do(t, http.MethodGet, "/entries", nil)
	var snap editor.Snapshot
	decodeJSON(t, w, &snap)

	rows := snap.Rows
	rows[0].TableComment = catalog.Str("changed")
	w = f.do(t, http.MethodPut, "/entries", saveRequest{Token: snap.Token, Rows: rows})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, f.store.updated)

	w = f.do(t, http.MethodPut, "/entries", saveRequest{Token: snap.Token, Rows: snap.Rows[:1]})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestEntries_Export(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/entries/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, export.BOM+"table_name,location"))
	assert.Contains(t, body, "TB_SALES,DWH.MART")
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/search", searchRequest{Strategy: "keyword", Query: "sales"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res search.Result
	decodeJSON(t, w, &res)
	assert.Equal(t, "Keyword search: sales", res.Provenance)
	assert.Len(t, res.Entries, 2)

	st := f.state(t)
	require.NotNil(t, st.Search)
	assert.Equal(t, res.Provenance, st.Search.Provenance)

	w = f.do(t, http.MethodGet, "/search", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/search/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "search_results.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), export.BOM))

	w = f.do(t, http.MethodDelete, "/search", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, f.state(t).Search)

	w = f.do(t, http.MethodGet, "/search/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearch_Filter(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/search", searchRequest{Strategy: "filter", Database: "DWH"})
	require.Equal(t, http.StatusOK, w.Code)
	var res search.Result
	decodeJSON(t, w, &res)
	assert.Equal(t, search.StrategyFilter, res.Strategy)
	assert.Equal(t, "Filter search (DB: DWH)", res.Provenance)
}

func TestSearch_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "missing strategy", body: map[string]string{"query": "x"}},
		{name: "unknown strategy", body: searchRequest{Strategy: "fuzzy", Query: "x"}},
		{name: "keyword without query", body: searchRequest{Strategy: "keyword"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w := f.do(t, http.MethodPost, "/search", searchRequest{Strategy: "keyword", Query: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code, "blank term")
}

func TestComments_GenerateAndSave(t *testing.T) {
	f := newFixture(t)
	base := "/comments/DWH/MART/TB_SALES"

	w := f.do(t, http.MethodGet, base+"/coverage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cov commentgen.Coverage
	decodeJSON(t, w, &cov)
	assert.Equal(t, 4, cov.Total)

	w = f.do(t, http.MethodPost, base+"/generate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var drafts draftsResponse
	decodeJSON(t, w, &drafts)
	require.NotNil(t, drafts.Columns)
	assert.Equal(t, commentgen.ErrorMarker, drafts.Columns.Drafts[1].Comment)

	w = f.do(t, http.MethodPost, base+"/generate", generateRequest{Target: "table"})
	require.Equal(t, http.StatusOK, w.Code)

	st := f.state(t)
	assert.Equal(t, catalog.LocationPath{Database: "DWH", Schema: "MART", Table: "TB_SALES"}, st.CommentTable)
	assert.Equal(t, "Daily sales", st.TableDraft)
	require.NotNil(t, st.ColumnDrafts)

	w = f.do(t, http.MethodGet, base+"/drafts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &drafts)
	assert.Equal(t, "Daily sales", drafts.TableComment)

	w = f.do(t, http.MethodPut, base, saveCommentsRequest{
		TableComment:   "Daily sales",
		ColumnComments: map[string]string{"QTY": "Quantity", "ID": "Row id"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved saveCommentsResponse
	decodeJSON(t, w, &saved)
	assert.True(t, saved.TableCommentSaved)
	assert.Equal(t, 2, saved.Columns.Saved)
	assert.Equal(t, "ID", f.comments.savedDrafts[0].Column)

	st = f.state(t)
	assert.Empty(t, st.TableDraft)
	assert.Nil(t, st.ColumnDrafts)
}

func TestComments_Errors(t *testing.T) {
	f := newFixture(t)
	base := "/comments/DWH/MART/TB_SALES"

	w := f.do(t, http.MethodPost, base+"/generate", generateRequest{Target: "rows"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, base, saveCommentsRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.comments.saveResult = &commentgen.SaveResult{Saved: 1, Failures: []commentgen.ColumnFailure{{Column: "QTY", Error: "denied"}}}
	w = f.do(t, http.MethodPut, base, saveCommentsRequest{ColumnComments: map[string]string{"ID": "x", "QTY": "y"}})
	assert.Equal(t, http.StatusMultiStatus, w.Code)

	f.comments.err = fmt.Errorf("generating: %w", warehouse.ErrNotConfigured)
	w = f.do(t, http.MethodGet, base+"/coverage", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestComments_DiscardDrafts(t *testing.T) {
	f := newFixture(t)
	base := "/comments/DWH/MART/TB_SALES"

	w := f.do(t, http.MethodPost, base+"/generate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Drafts of another table are left alone.
	w = f.do(t, http.MethodDelete, "/comments/DWH/MART/OTHER/drafts", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotNil(t, f.state(t).ColumnDrafts)

	w = f.do(t, http.MethodDelete, base+"/drafts", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, f.state(t).ColumnDrafts)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{catalog.ErrEntryNotFound, http.StatusNotFound},
		{editor.ErrStaleSnapshot, http.StatusConflict},
		{fmt.Errorf("x: %w", editor.ErrReadOnlyField), http.StatusUnprocessableEntity},
		{editor.ErrRowMismatch, http.StatusUnprocessableEntity},
		{search.ErrEmptyQuery, http.StatusBadRequest},
		{warehouse.ErrNotConfigured, http.StatusServiceUnavailable},
		{errBoom, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
