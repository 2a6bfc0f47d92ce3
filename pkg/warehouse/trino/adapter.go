// Package trino provides a Trino implementation of the warehouse provider.
package trino

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	trinoclient "github.com/txn2/mcp-trino/pkg/client"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
)

const (
	defaultPort    = 8080
	defaultTimeout = 120 * time.Second
	clientSource   = "mcp-data-catalog"
)

// Client is the subset of the mcp-trino client used by the adapter.
type Client interface {
	Query(ctx context.Context, sql string, opts trinoclient.QueryOptions) (*trinoclient.QueryResult, error)
	ListCatalogs(ctx context.Context) ([]string, error)
	ListSchemas(ctx context.Context, catalog string) ([]string, error)
	ListTables(ctx context.Context, catalog, schema string) ([]trinoclient.TableInfo, error)
	DescribeTable(ctx context.Context, catalog, schema, table string) (*trinoclient.TableInfo, error)
	Ping(ctx context.Context) error
	Close() error
}

// Config holds Trino adapter configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	Catalog   string
	Schema    string
	SSL       bool
	SSLVerify bool
	Timeout   time.Duration
}

// Adapter implements warehouse.Provider using Trino.
type Adapter struct {
	cfg    Config
	client Client
}

// New creates a Trino adapter with a real client.
func New(cfg Config) (*Adapter, error) {
	if cfg.Host == "" {
		return nil, errors.New("trino host is required")
	}
	cfg = applyDefaults(cfg)

	client, err := trinoclient.New(trinoclient.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Password:  cfg.Password,
		Catalog:   cfg.Catalog,
		Schema:    cfg.Schema,
		SSL:       cfg.SSL,
		SSLVerify: cfg.SSLVerify,
		Timeout:   cfg.Timeout,
		Source:    clientSource,
	})
	if err != nil {
		return nil, fmt.Errorf("creating trino client: %w", err)
	}
	return &Adapter{cfg: cfg, client: client}, nil
}

// NewWithClient creates an adapter over an existing client.
func NewWithClient(cfg Config, client Client) (*Adapter, error) {
	if client == nil {
		return nil, errors.New("trino client is required")
	}
	return &Adapter{cfg: applyDefaults(cfg), client: client}, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}

// Name returns the provider name.
func (*Adapter) Name() string {
	return "trino"
}

// Ping verifies the connection.
func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		return fmt.Errorf("pinging trino: %w", err)
	}
	return nil
}

// ListDatabases returns the Trino catalogs, sorted.
func (a *Adapter) ListDatabases(ctx context.Context) ([]string, error) {
	dbs, err := a.client.ListCatalogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing catalogs: %w", err)
	}
	sort.Strings(dbs)
	return dbs, nil
}

// ListSchemas returns the schemas of a catalog, sorted.
func (a *Adapter) ListSchemas(ctx context.Context, database string) ([]string, error) {
	schemas, err := a.client.ListSchemas(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("listing schemas of %s: %w", database, err)
	}
	sort.Strings(schemas)
	return schemas, nil
}

// ListTables returns the table names of a schema, sorted.
func (a *Adapter) ListTables(ctx context.Context, database, schema string) ([]string, error) {
	tables, err := a.client.ListTables(ctx, database, schema)
	if err != nil {
		return nil, fmt.Errorf("listing tables of %s.%s: %w", database, schema, err)
	}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names, nil
}

// DescribeTable returns the columns of a table in ordinal order.
func (a *Adapter) DescribeTable(ctx context.Context, table catalog.LocationPath) ([]catalog.ColumnDescriptor, error) {
	info, err := a.client.DescribeTable(ctx, table.Database, table.Schema, table.Table)
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", table, err)
	}
	cols := make([]catalog.ColumnDescriptor, 0, len(info.Columns))
	for _, c := range info.Columns {
		cols = append(cols, catalog.ColumnDescriptor{Name: c.Name, DataType: c.Type, Comment: c.Comment})
	}
	return cols, nil
}

// TableComment reads the table comment from the Trino metadata tables.
func (a *Adapter) TableComment(ctx context.Context, table catalog.LocationPath) (string, error) {
	sql := fmt.Sprintf(
		"SELECT comment FROM system.metadata.table_comments WHERE catalog_name = %s AND schema_name = %s AND table_name = %s",
		quoteLiteral(table.Database), quoteLiteral(table.Schema), quoteLiteral(table.Table))

	result, err := a.client.Query(ctx, sql, trinoclient.QueryOptions{})
	if err != nil {
		return "", fmt.Errorf("reading comment of %s: %w", table, err)
	}
	if len(result.Rows) == 0 {
		return "", nil
	}
	return text(result.Rows[0]["comment"]), nil
}

// SampleValues returns up to limit non-null values of a column.
func (a *Adapter) SampleValues(ctx context.Context, table catalog.LocationPath, column string, limit int) ([]string, error) {
	col := quoteIdent(column)
	sql := fmt.Sprintf("SELECT CAST(%s AS varchar) AS sample_value FROM %s WHERE %s IS NOT NULL LIMIT %d",
		col, qualified(table), col, limit)

	result, err := a.client.Query(ctx, sql, trinoclient.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("sampling %s.%s: %w", table, column, err)
	}
	values := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		values = append(values, text(row["sample_value"]))
	}
	return values, nil
}

// Preview returns up to limit rows with columns in ordinal order.
func (a *Adapter) Preview(ctx context.Context, table catalog.LocationPath, limit int) (*warehouse.Preview, error) {
	cols, err := a.DescribeTable(ctx, table)
	if err != nil {
		return nil, err
	}

	result, err := a.client.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualified(table), limit), trinoclient.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("previewing %s: %w", table, err)
	}

	preview := &warehouse.Preview{
		Columns: make([]string, 0, len(cols)),
		Rows:    make([][]string, 0, len(result.Rows)),
	}
	for _, c := range cols {
		preview.Columns = append(preview.Columns, c.Name)
	}
	for _, row := range result.Rows {
		out := make([]string, len(preview.Columns))
		for i, name := range preview.Columns {
			out[i] = text(row[name])
		}
		preview.Rows = append(preview.Rows, out)
	}
	return preview, nil
}

// SetTableComment replaces the table comment.
func (a *Adapter) SetTableComment(ctx context.Context, table catalog.LocationPath, comment string) error {
	sql := fmt.Sprintf("COMMENT ON TABLE %s IS %s", qualified(table), quoteLiteral(comment))
	if _, err := a.client.Query(ctx, sql, trinoclient.QueryOptions{}); err != nil {
		return fmt.Errorf("setting comment on %s: %w", table, err)
	}
	return nil
}

// SetColumnComment replaces one column comment.
func (a *Adapter) SetColumnComment(ctx context.Context, table catalog.LocationPath, column, comment string) error {
	sql := fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", qualified(table), quoteIdent(column), quoteLiteral(comment))
	if _, err := a.client.Query(ctx, sql, trinoclient.QueryOptions{}); err != nil {
		return fmt.Errorf("setting comment on %s.%s: %w", table, column, err)
	}
	return nil
}

// ConnectionInfo returns the coordinator address and table path.
func (a *Adapter) ConnectionInfo(table catalog.LocationPath) warehouse.ConnectionInfo {
	return warehouse.ConnectionInfo{
		Server:   a.cfg.Host + ":" + strconv.Itoa(a.cfg.Port),
		Database: table.Database,
		Schema:   table.Schema,
		Table:    table.Table,
		FullPath: table.String(),
	}
}

// Close releases the client.
func (a *Adapter) Close() error {
	if err := a.client.Close(); err != nil {
		return fmt.Errorf("closing trino client: %w", err)
	}
	return nil
}

// qualified renders a quoted catalog.schema.table reference.
func qualified(p catalog.LocationPath) string {
	return quoteIdent(p.Database) + "." + quoteIdent(p.Schema) + "." + quoteIdent(p.Table)
}

// quoteIdent quotes an identifier, doubling embedded quotes.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteLiteral quotes a string literal, doubling embedded single quotes.
// DDL statements such as COMMENT ON cannot take bound parameters.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func text(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	default:
		return fmt.Sprint(tv)
	}
}

// Verify interface compliance.
var _ warehouse.Provider = (*Adapter)(nil)
