package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/commentgen"
	"github.com/txn2/mcp-data-catalog/pkg/search"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
)

// Test constants to avoid repeated string literals.
const (
	testName     = "test"
	testVersion  = "1.0"
	testDB       = "DWH"
	testSchema   = "MART"
	testTable    = "TB_SALES"
	testLocation = "DWH.MART"
)

var errBoom = errors.New("boom")

type mockStore struct {
	locations   []string
	tables      map[string][]string
	locationsOf map[string][]string
	entry       *catalog.Entry
	getErr      error
	updateErr   error
	updated     []catalog.Editable
}

func (m *mockStore) Locations(_ context.Context) ([]string, error) { return m.locations, nil }

func (m *mockStore) ListTables(_ context.Context, location string) ([]string, error) {
	return m.tables[location], nil
}

func (m *mockStore) LocationsOf(_ context.Context, table string) ([]string, error) {
	return m.locationsOf[table], nil
}

func (m *mockStore) Get(_ context.Context, _ catalog.Key) (*catalog.Entry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.entry == nil {
		return nil, catalog.ErrEntryNotFound
	}
	e := *m.entry
	return &e, nil
}

func (*mockStore) List(_ context.Context, _ catalog.ListFilter) ([]catalog.Entry, error) {
	return nil, nil
}

func (*mockStore) Search(_ context.Context, _ catalog.SearchQuery) ([]catalog.Entry, error) {
	return nil, nil
}

func (m *mockStore) UpdateEditable(_ context.Context, _ catalog.Key, fields catalog.Editable) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, fields)
	return nil
}

type mockSearcher struct {
	sel      search.Selection
	strategy search.Strategy
	query    string
	err      error
}

func (m *mockSearcher) result(s search.Strategy) (*search.Result, error) {
	m.strategy = s
	if m.err != nil {
		return nil, m.err
	}
	return &search.Result{Strategy: s, Provenance: "p", Entries: []catalog.Entry{{TableName: testTable, Location: testLocation}}}, nil
}

func (m *mockSearcher) Filter(_ context.Context, sel search.Selection) (*search.Result, error) {
	m.sel = sel
	return m.result(search.StrategyFilter)
}

func (m *mockSearcher) Keyword(_ context.Context, term string) (*search.Result, error) {
	m.query = term
	return m.result(search.StrategyKeyword)
}

func (m *mockSearcher) AI(_ context.Context, question string) (*search.Result, error) {
	m.query = question
	return m.result(search.StrategyAI)
}

type mockCommenter struct {
	drafts       *commentgen.ColumnDrafts
	tableComment string
	err          error
	savedTable   string
	savedDrafts  []commentgen.ColumnDraft
}

func (m *mockCommenter) GenerateColumnComments(_ context.Context, _ catalog.LocationPath) (*commentgen.ColumnDrafts, error) {
	return m.drafts, m.err
}

func (m *mockCommenter) GenerateTableComment(_ context.Context, _ catalog.LocationPath) (string, error) {
	return m.tableComment, m.err
}

func (m *mockCommenter) Coverage(_ context.Context, table catalog.LocationPath) (*commentgen.Coverage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &commentgen.Coverage{Table: table, Commented: 1, Total: 2}, nil
}

func (m *mockCommenter) SaveTableComment(_ context.Context, _ catalog.LocationPath, comment string) error {
	m.savedTable = comment
	return m.err
}

func (m *mockCommenter) SaveColumnComments(_ context.Context, _ catalog.LocationPath, drafts []commentgen.ColumnDraft) (*commentgen.SaveResult, error) {
	m.savedDrafts = drafts
	return &commentgen.SaveResult{Saved: len(drafts)}, m.err
}

type mockWarehouse struct {
	warehouse.NoopProvider
	cols []catalog.ColumnDescriptor
	err  error
}

func (m *mockWarehouse) DescribeTable(_ context.Context, _ catalog.LocationPath) ([]catalog.ColumnDescriptor, error) {
	return m.cols, m.err
}

type fixture struct {
	tk       *Toolkit
	store    *mockStore
	searcher *mockSearcher
	comments *mockCommenter
	wh       *mockWarehouse
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    &mockStore{},
		searcher: &mockSearcher{},
		comments: &mockCommenter{},
		wh:       &mockWarehouse{},
	}
	tk, err := New(testName, f.store, f.searcher, f.wh, f.comments)
	require.NoError(t, err)
	f.tk = tk
	return f
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func decode(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), v))
}

func TestNew_RequiresServices(t *testing.T) {
	_, err := New(testName, nil, nil, nil, &mockCommenter{})
	assert.Error(t, err)

	_, err = New(testName, nil, &mockSearcher{}, nil, nil)
	assert.Error(t, err)

	tk, err := New(testName, nil, &mockSearcher{}, nil, &mockCommenter{})
	require.NoError(t, err)
	assert.NotNil(t, tk.store)
	assert.NotNil(t, tk.warehouse)
}

func TestToolkit_Metadata(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "catalog", f.tk.Kind())
	assert.Equal(t, testName, f.tk.Name())
	assert.Len(t, f.tk.Tools(), 7)
	assert.Contains(t, f.tk.Tools(), "catalog_search")
	assert.NoError(t, f.tk.Close())
}

func TestToolkit_RegisterTools(t *testing.T) {
	f := newFixture(t)
	s := mcp.NewServer(&mcp.Implementation{Name: testName, Version: testVersion}, nil)
	f.tk.RegisterTools(s)
	// If RegisterTools panics, this test fails.
}

func TestHandleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("filter is the default strategy", func(t *testing.T) {
		f := newFixture(t)
		res, _, err := f.tk.handleSearch(ctx, nil, searchInput{Database: " DWH ", Schema: testSchema})
		require.NoError(t, err)

		var out search.Result
		decode(t, res, &out)
		assert.Equal(t, search.StrategyFilter, out.Strategy)
		assert.Equal(t, search.Selection{Database: testDB, Schema: testSchema}, f.searcher.sel)
		assert.Len(t, out.Entries, 1)
	})

	t.Run("keyword", func(t *testing.T) {
		f := newFixture(t)
		res, _, err := f.tk.handleSearch(ctx, nil, searchInput{Strategy: "Keyword", Query: "sales"})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, search.StrategyKeyword, f.searcher.strategy)
		assert.Equal(t, "sales", f.searcher.query)
	})

	t.Run("ai", func(t *testing.T) {
		f := newFixture(t)
		res, _, err := f.tk.handleSearch(ctx, nil, searchInput{Strategy: "ai", Query: "where are orders?"})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, search.StrategyAI, f.searcher.strategy)
	})

	t.Run("invalid strategy", func(t *testing.T) {
		f := newFixture(t)
		res, _, err := f.tk.handleSearch(ctx, nil, searchInput{Strategy: "fuzzy"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "invalid strategy")
	})

	t.Run("search error", func(t *testing.T) {
		f := newFixture(t)
		f.searcher.err = search.ErrEmptyQuery
		res, _, err := f.tk.handleSearch(ctx, nil, searchInput{Strategy: "keyword"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "search term is empty")
	})
}

func TestHandleLocations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.locations = []string{"DWH.STAGE", testLocation, "CRM.PUBLIC"}
	f.store.tables = map[string][]string{testLocation: {"TB_B", "TB_A"}}
	f.store.locationsOf = map[string][]string{testTable: {testLocation}}

	var out locationsOutput
	res, _, err := f.tk.handleLocations(ctx, nil, locationsInput{})
	require.NoError(t, err)
	decode(t, res, &out)
	assert.Equal(t, []string{"CRM", "DWH"}, out.Databases)

	out = locationsOutput{}
	res, _, err = f.tk.handleLocations(ctx, nil, locationsInput{Database: testDB})
	require.NoError(t, err)
	decode(t, res, &out)
	assert.Equal(t, []string{testSchema, "STAGE"}, out.Schemas)

	out = locationsOutput{}
	res, _, err = f.tk.handleLocations(ctx, nil, locationsInput{Database: testDB, Schema: testSchema})
	require.NoError(t, err)
	decode(t, res, &out)
	assert.Equal(t, []string{"TB_A", "TB_B"}, out.Tables)

	out = locationsOutput{}
	res, _, err = f.tk.handleLocations(ctx, nil, locationsInput{Table: testTable})
	require.NoError(t, err)
	decode(t, res, &out)
	assert.Equal(t, []catalog.LocationPath{{Database: testDB, Schema: testSchema, Table: testTable}}, out.Locations)
}

func TestHandleDescribe(t *testing.T) {
	ctx := context.Background()
	in := tableInput{Database: testDB, Schema: testSchema, Table: testTable}

	t.Run("incomplete path", func(t *testing.T) {
		f := newFixture(t)
		res, _, err := f.tk.handleDescribe(ctx, nil, tableInput{Database: testDB})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("entry and columns", func(t *testing.T) {
		f := newFixture(t)
		f.store.entry = &catalog.Entry{TableName: testTable, Location: testLocation}
		f.wh.cols = []catalog.ColumnDescriptor{{Name: "ID", DataType: "bigint"}}

		res, _, err := f.tk.handleDescribe(ctx, nil, in)
		require.NoError(t, err)

		var out describeOutput
		decode(t, res, &out)
		require.NotNil(t, out.Entry)
		assert.Equal(t, testTable, out.Entry.TableName)
		assert.Len(t, out.Columns, 1)
		require.NotNil(t, out.Connection)
		assert.Equal(t, "DWH.MART.TB_SALES", out.Connection.FullPath)
	})

	t.Run("warehouse only", func(t *testing.T) {
		f := newFixture(t)
		f.wh.cols = []catalog.ColumnDescriptor{{Name: "ID"}}
		res, _, err := f.tk.handleDescribe(ctx, nil, in)
		require.NoError(t, err)

		var out describeOutput
		decode(t, res, &out)
		assert.Nil(t, out.Entry)
	})

	t.Run("catalog only", func(t *testing.T) {
		f := newFixture(t)
		f.store.entry = &catalog.Entry{TableName: testTable, Location: testLocation}
		f.wh.err = errBoom
		res, _, err := f.tk.handleDescribe(ctx, nil, in)
		require.NoError(t, err)

		var out describeOutput
		decode(t, res, &out)
		assert.Equal(t, "boom", out.ColumnsError)
	})

	t.Run("found nowhere", func(t *testing.T) {
		f := newFixture(t)
		f.wh.err = errBoom
		res, _, err := f.tk.handleDescribe(ctx, nil, in)
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("store error", func(t *testing.T) {
		f := newFixture(t)
		f.store.getErr = errBoom
		res, _, err := f.tk.handleDescribe(ctx, nil, in)
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestHandleUpdate(t *testing.T) {
	ctx := context.Background()
	owner, empty := "bob", ""

	t.Run("missing identity", func(t *testing.T) {
		f := newFixture(t)
		res, _, err := f.tk.handleUpdate(ctx, nil, updateInput{TableName: testTable})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("overlays provided fields", func(t *testing.T) {
		f := newFixture(t)
		f.store.entry = &catalog.Entry{
			TableName: testTable, Location: testLocation,
			Editable: catalog.Editable{Owner: catalog.Str("alice"), Scope: catalog.Str("internal"), Comment: catalog.Str("old")},
		}

		res, _, err := f.tk.handleUpdate(ctx, nil, updateInput{
			TableName: testTable, Location: testLocation, Owner: &owner, Comment: &empty,
		})
		require.NoError(t, err)

		var out updateOutput
		decode(t, res, &out)
		assert.True(t, out.Changed)
		require.Len(t, f.store.updated, 1)
		got := f.store.updated[0]
		assert.Equal(t, "bob", catalog.Deref(got.Owner))
		assert.Equal(t, "internal", catalog.Deref(got.Scope))
		assert.Nil(t, got.Comment)
	})

	t.Run("unchanged skips the write", func(t *testing.T) {
		f := newFixture(t)
		f.store.entry = &catalog.Entry{TableName: testTable, Location: testLocation}
		res, _, err := f.tk.handleUpdate(ctx, nil, updateInput{TableName: testTable, Location: testLocation, Owner: &empty})
		require.NoError(t, err)

		var out updateOutput
		decode(t, res, &out)
		assert.False(t, out.Changed)
		assert.Empty(t, f.store.updated)
	})

	t.Run("unknown entry", func(t *testing.T) {
		f := newFixture(t)
		res, _, err := f.tk.handleUpdate(ctx, nil, updateInput{TableName: testTable, Location: testLocation, Owner: &owner})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "not found")
	})

	t.Run("write error", func(t *testing.T) {
		f := newFixture(t)
		f.store.entry = &catalog.Entry{TableName: testTable, Location: testLocation}
		f.store.updateErr = errBoom
		res, _, err := f.tk.handleUpdate(ctx, nil, updateInput{TableName: testTable, Location: testLocation, Owner: &owner})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestHandleCoverage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, _, err := f.tk.handleCoverage(ctx, nil, tableInput{Database: testDB, Schema: testSchema, Table: testTable})
	require.NoError(t, err)
	var out commentgen.Coverage
	decode(t, res, &out)
	assert.Equal(t, 2, out.Total)

	f.comments.err = errBoom
	res, _, err = f.tk.handleCoverage(ctx, nil, tableInput{Database: testDB, Schema: testSchema, Table: testTable})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleGenerateComments(t *testing.T) {
	ctx := context.Background()

	t.Run("columns", func(t *testing.T) {
		f := newFixture(t)
		f.comments.drafts = &commentgen.ColumnDrafts{
			Drafts:    []commentgen.ColumnDraft{{Column: "ID", Comment: "Row id"}, {Column: "QTY", Comment: commentgen.ErrorMarker}},
			Generated: 1,
			Failed:    1,
		}
		res, _, err := f.tk.handleGenerateComments(ctx, nil, generateInput{Database: testDB, Schema: testSchema, Table: testTable})
		require.NoError(t, err)

		var out commentgen.ColumnDrafts
		decode(t, res, &out)
		assert.Equal(t, 1, out.Failed)
		assert.Equal(t, commentgen.ErrorMarker, out.Drafts[1].Comment)
	})

	t.Run("table", func(t *testing.T) {
		f := newFixture(t)
		f.comments.tableComment = "Daily sales"
		res, _, err := f.tk.handleGenerateComments(ctx, nil, generateInput{Database: testDB, Schema: testSchema, Table: testTable, Target: "table"})
		require.NoError(t, err)

		var out generateTableOutput
		decode(t, res, &out)
		assert.Equal(t, "Daily sales", out.Comment)
	})

	t.Run("invalid target", func(t *testing.T) {
		f := newFixture(t)
		res, _, err := f.tk.handleGenerateComments(ctx, nil, generateInput{Database: testDB, Schema: testSchema, Table: testTable, Target: "rows"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("generator error", func(t *testing.T) {
		f := newFixture(t)
		f.comments.err = errBoom
		res, _, err := f.tk.handleGenerateComments(ctx, nil, generateInput{Database: testDB, Schema: testSchema, Table: testTable})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestHandleSaveComments(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to save", func(t *testing.T) {
		f := newFixture(t)
		res, _, err := f.tk.handleSaveComments(ctx, nil, saveCommentsInput{Database: testDB, Schema: testSchema, Table: testTable, TableComment: "  "})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("table and columns", func(t *testing.T) {
		f := newFixture(t)
		res, _, err := f.tk.handleSaveComments(ctx, nil, saveCommentsInput{
			Database: testDB, Schema: testSchema, Table: testTable,
			TableComment:   "Daily sales",
			ColumnComments: map[string]string{"QTY": "Quantity", "ID": "Row id"},
		})
		require.NoError(t, err)

		var out saveCommentsOutput
		decode(t, res, &out)
		assert.True(t, out.TableCommentSaved)
		require.NotNil(t, out.Columns)
		assert.Equal(t, 2, out.Columns.Saved)
		assert.Equal(t, "Daily sales", f.comments.savedTable)
		require.Len(t, f.comments.savedDrafts, 2)
		assert.Equal(t, "ID", f.comments.savedDrafts[0].Column)
		assert.Equal(t, "QTY", f.comments.savedDrafts[1].Column)
	})

	t.Run("write error", func(t *testing.T) {
		f := newFixture(t)
		f.comments.err = errBoom
		res, _, err := f.tk.handleSaveComments(ctx, nil, saveCommentsInput{Database: testDB, Schema: testSchema, Table: testTable, TableComment: "x"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestErrorResult(t *testing.T) {
	res := errorResult(`bad "input"`)
	assert.True(t, res.IsError)
	assert.Equal(t, `{"error": "bad \"input\""}`, resultText(t, res))
}
