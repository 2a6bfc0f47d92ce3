// Package warehouse defines live schema introspection and comment write-back
// against the data warehouse that the catalog describes.
package warehouse

import (
	"context"
	"errors"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
)

// ErrNotConfigured is returned by the noop provider.
var ErrNotConfigured = errors.New("no warehouse configured")

// Provider introspects and annotates warehouse tables.
// Trino implements this.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// ListDatabases returns the databases visible to the connection.
	ListDatabases(ctx context.Context) ([]string, error)

	// ListSchemas returns the schemas of a database.
	ListSchemas(ctx context.Context, database string) ([]string, error)

	// ListTables returns the tables of a schema.
	ListTables(ctx context.Context, database, schema string) ([]string, error)

	// DescribeTable returns the live columns of a table in ordinal order.
	DescribeTable(ctx context.Context, table catalog.LocationPath) ([]catalog.ColumnDescriptor, error)

	// TableComment returns the current table comment, or "" when none is set.
	TableComment(ctx context.Context, table catalog.LocationPath) (string, error)

	// SampleValues returns up to limit non-null values of a column as text.
	SampleValues(ctx context.Context, table catalog.LocationPath, column string, limit int) ([]string, error)

	// Preview returns up to limit rows of a table.
	Preview(ctx context.Context, table catalog.LocationPath, limit int) (*Preview, error)

	// SetTableComment replaces the table comment.
	SetTableComment(ctx context.Context, table catalog.LocationPath, comment string) error

	// SetColumnComment replaces one column comment.
	SetColumnComment(ctx context.Context, table catalog.LocationPath, column, comment string) error

	// ConnectionInfo returns what an external BI tool needs to reach the table.
	ConnectionInfo(table catalog.LocationPath) ConnectionInfo

	// Close releases resources.
	Close() error
}

// Preview is a rectangular sample of table rows rendered as text.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ConnectionInfo describes how to connect to a table from outside.
type ConnectionInfo struct {
	Server   string `json:"server"`
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Table    string `json:"table"`
	FullPath string `json:"full_path"`
}
