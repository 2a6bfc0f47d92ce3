// Package resolver derives the database, schema and table hierarchy from the
// location strings held in the catalog store.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
)

// TableLister returns the table names stored under a location.
type TableLister interface {
	ListTables(ctx context.Context, location string) ([]string, error)
}

// LocationSource provides the distinct locations and their tables.
type LocationSource interface {
	TableLister
	Locations(ctx context.Context) ([]string, error)
	LocationsOf(ctx context.Context, tableName string) ([]string, error)
}

// Resolver answers hierarchy questions over one snapshot of the location set.
type Resolver struct {
	schemas map[string][]string
	dbs     []string
	tables  TableLister
}

// New builds a resolver over a location set. Duplicate and empty locations
// are ignored; a location without a separator contributes only a database.
func New(locations []string, tables TableLister) *Resolver {
	set := make(map[string]map[string]struct{})
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		p := catalog.ParseLocation(loc)
		if _, ok := set[p.Database]; !ok {
			set[p.Database] = make(map[string]struct{})
		}
		if p.Schema != "" {
			set[p.Database][p.Schema] = struct{}{}
		}
	}

	r := &Resolver{
		schemas: make(map[string][]string, len(set)),
		dbs:     make([]string, 0, len(set)),
		tables:  tables,
	}
	for db, schemas := range set {
		r.dbs = append(r.dbs, db)
		list := make([]string, 0, len(schemas))
		for s := range schemas {
			list = append(list, s)
		}
		sort.Strings(list)
		r.schemas[db] = list
	}
	sort.Strings(r.dbs)
	return r
}

// Load fetches the current location set and builds a resolver over it.
func Load(ctx context.Context, src LocationSource) (*Resolver, error) {
	locations, err := src.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading locations: %w", err)
	}
	return New(locations, src), nil
}

// ListDatabases returns the distinct databases in ascending order.
func (r *Resolver) ListDatabases() []string {
	return append([]string(nil), r.dbs...)
}

// ListSchemas returns the schemas of a database in ascending order. An
// unknown database yields an empty list.
func (r *Resolver) ListSchemas(database string) []string {
	return append([]string(nil), r.schemas[database]...)
}

// ListTables returns the table names stored under database.schema in
// ascending order. An unknown pair yields an empty list.
func (r *Resolver) ListTables(ctx context.Context, database, schema string) ([]string, error) {
	if database == "" || schema == "" || r.tables == nil {
		return nil, nil
	}
	tables, err := r.tables.ListTables(ctx, catalog.JoinLocation(database, schema))
	if err != nil {
		return nil, fmt.Errorf("listing tables of %s.%s: %w", database, schema, err)
	}
	out := dedupe(tables)
	sort.Strings(out)
	return out, nil
}

// Locate returns every path that holds a table name, sorted by location.
func Locate(ctx context.Context, src LocationSource, table string) ([]catalog.LocationPath, error) {
	if table == "" {
		return nil, nil
	}
	locations, err := src.LocationsOf(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("locating table %s: %w", table, err)
	}
	sort.Strings(locations)

	paths := make([]catalog.LocationPath, 0, len(locations))
	for _, loc := range dedupe(locations) {
		p := catalog.ParseLocation(loc)
		p.Table = table
		paths = append(paths, p)
	}
	return paths, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
