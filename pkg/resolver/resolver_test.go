package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
)

type mockSource struct {
	locations  []string
	tables     map[string][]string
	locErr     error
	tablesErr  error
	lastLookup string
}

func (m *mockSource) Locations(_ context.Context) ([]string, error) {
	return m.locations, m.locErr
}

func (m *mockSource) ListTables(_ context.Context, location string) ([]string, error) {
	m.lastLookup = location
	return m.tables[location], m.tablesErr
}

func (m *mockSource) LocationsOf(_ context.Context, table string) ([]string, error) {
	var out []string
	for loc, tables := range m.tables {
		for _, t := range tables {
			if t == table {
				out = append(out, loc)
			}
		}
	}
	return out, m.locErr
}

func TestListDatabases(t *testing.T) {
	r := New([]string{"D2.S1", "D1.S2", "D1.S1", "D1.S1", "", "SOLO"}, nil)
	assert.Equal(t, []string{"D1", "D2", "SOLO"}, r.ListDatabases())
}

func TestListDatabases_CaseSensitive(t *testing.T) {
	r := New([]string{"b.x", "A.x", "a.x"}, nil)
	assert.Equal(t, []string{"A", "a", "b"}, r.ListDatabases())
}

func TestListSchemas(t *testing.T) {
	r := New([]string{"D1.S2", "D1.S1", "D2.S9", "SOLO"}, nil)

	assert.Equal(t, []string{"S1", "S2"}, r.ListSchemas("D1"))
	assert.Equal(t, []string{"S9"}, r.ListSchemas("D2"))
	assert.Empty(t, r.ListSchemas("SOLO"))
	assert.Empty(t, r.ListSchemas("UNKNOWN"))
}

func TestListSchemas_ReturnsCopy(t *testing.T) {
	r := New([]string{"D1.S1"}, nil)
	got := r.ListSchemas("D1")
	got[0] = "mutated"
	assert.Equal(t, []string{"S1"}, r.ListSchemas("D1"))
}

func TestListTables(t *testing.T) {
	src := &mockSource{tables: map[string][]string{"D1.S1": {"T2", "T1", "T1"}}}
	r := New([]string{"D1.S1"}, src)

	tables, err := r.ListTables(context.Background(), "D1", "S1")
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2"}, tables)
	assert.Equal(t, "D1.S1", src.lastLookup)

	tables, err = r.ListTables(context.Background(), "D1", "NOPE")
	require.NoError(t, err)
	assert.Empty(t, tables)

	tables, err = r.ListTables(context.Background(), "", "S1")
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestListTables_Error(t *testing.T) {
	src := &mockSource{tablesErr: errors.New("db down")}
	r := New(nil, src)

	_, err := r.ListTables(context.Background(), "D1", "S1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing tables of D1.S1")
}

func TestLoad(t *testing.T) {
	src := &mockSource{locations: []string{"D1.S1", "D2.S1"}}
	r, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "D2"}, r.ListDatabases())

	_, err = Load(context.Background(), &mockSource{locErr: errors.New("timeout")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading locations")
}

func TestLocate(t *testing.T) {
	src := &mockSource{tables: map[string][]string{
		"D2.S1": {"ORDERS"},
		"D1.S1": {"ORDERS", "ITEMS"},
	}}

	paths, err := Locate(context.Background(), src, "ORDERS")
	require.NoError(t, err)
	assert.Equal(t, []catalog.LocationPath{
		{Database: "D1", Schema: "S1", Table: "ORDERS"},
		{Database: "D2", Schema: "S1", Table: "ORDERS"},
	}, paths)

	paths, err = Locate(context.Background(), src, "")
	require.NoError(t, err)
	assert.Empty(t, paths)
}
