// Package postgres provides PostgreSQL storage for the data catalog.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
)

const (
	// DefaultTable is the catalog table created by the bundled migrations.
	DefaultTable = "data_catalog.table_info"

	defaultQueryCapacity = 100
)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// likeEscaper escapes LIKE metacharacters so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Config configures the PostgreSQL catalog store.
type Config struct {
	// Table is the (optionally schema-qualified) catalog table name.
	Table string
}

// Store implements catalog.Store using PostgreSQL.
type Store struct {
	db    *sql.DB
	table string
}

// New creates a new PostgreSQL catalog store.
func New(db *sql.DB, cfg Config) *Store {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	return &Store{db: db, table: cfg.Table}
}

// Locations returns the distinct non-null locations.
func (s *Store) Locations(ctx context.Context) ([]string, error) {
	qb := psq.Select("DISTINCT " + catalog.ColLocation).
		From(s.table).
		Where(sq.NotEq{catalog.ColLocation: nil}).
		OrderBy(catalog.ColLocation)
	return s.queryStrings(ctx, qb, "locations")
}

// ListTables returns the distinct table names stored under a location.
func (s *Store) ListTables(ctx context.Context, location string) ([]string, error) {
	qb := psq.Select("DISTINCT " + catalog.ColTableName).
		From(s.table).
		Where(sq.Eq{catalog.ColLocation: location}).
		OrderBy(catalog.ColTableName)
	return s.queryStrings(ctx, qb, "tables")
}

// LocationsOf returns the locations that hold a table name.
func (s *Store) LocationsOf(ctx context.Context, tableName string) ([]string, error) {
	qb := psq.Select("DISTINCT " + catalog.ColLocation).
		From(s.table).
		Where(sq.Eq{catalog.ColTableName: tableName}).
		OrderBy(catalog.ColLocation)
	return s.queryStrings(ctx, qb, "table locations")
}

// Get returns one entry by identity.
func (s *Store) Get(ctx context.Context, key catalog.Key) (*catalog.Entry, error) {
	query, args, err := psq.Select(catalog.Columns...).
		From(s.table).
		Where(sq.Eq{catalog.ColTableName: key.TableName}).
		Where(sq.Eq{catalog.ColLocation: key.Location}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get query: %w", err)
	}

	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns entries matching the editor filter.
func (s *Store) List(ctx context.Context, filter catalog.ListFilter) ([]catalog.Entry, error) {
	qb := psq.Select(catalog.Columns...).From(s.table)
	if filter.Location != "" {
		qb = qb.Where(sq.Eq{catalog.ColLocation: filter.Location})
	}
	if text := strings.TrimSpace(filter.Text); text != "" {
		pattern := containsPattern(text)
		qb = qb.Where(sq.Or{
			sq.ILike{catalog.ColTableName: pattern},
			sq.ILike{catalog.ColLocation: pattern},
		})
	}
	qb = qb.OrderBy(catalog.ColLocation, catalog.ColTableName)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}
	return s.queryEntries(ctx, query, args, 0)
}

// applySearch adds the location and keyword conditions of a search query.
func applySearch(qb sq.SelectBuilder, q catalog.SearchQuery) sq.SelectBuilder {
	switch {
	case q.Database != "" && q.Schema != "":
		qb = qb.Where(sq.Eq{catalog.ColLocation: catalog.JoinLocation(q.Database, q.Schema)})
		if q.Table != "" {
			qb = qb.Where(sq.Eq{catalog.ColTableName: q.Table})
		}
	case q.Database != "":
		qb = qb.Where(sq.Like{catalog.ColLocation: likeEscaper.Replace(q.Database+catalog.Separator) + "%"})
	}

	if len(q.Keywords) > 0 {
		match := make(sq.Or, 0, len(q.Keywords)*len(catalog.SearchableColumns))
		for _, kw := range q.Keywords {
			pattern := containsPattern(kw)
			for _, col := range catalog.SearchableColumns {
				match = append(match, sq.ILike{col: pattern})
			}
		}
		qb = qb.Where(match)
	}
	return qb
}

// Search returns entries matching the search query.
func (s *Store) Search(ctx context.Context, q catalog.SearchQuery) ([]catalog.Entry, error) {
	qb := applySearch(psq.Select(catalog.Columns...).From(s.table), q).
		OrderBy(catalog.ColTableName, catalog.ColLocation)
	if q.Limit > 0 {
		qb = qb.Limit(uint64(q.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building search query: %w", err)
	}
	return s.queryEntries(ctx, query, args, q.Limit)
}

// UpdateEditable writes every editable field of one entry.
func (s *Store) UpdateEditable(ctx context.Context, key catalog.Key, fields catalog.Editable) error {
	ub := psq.Update(s.table)
	for i, v := range fields.Normalized().Values() {
		ub = ub.Set(catalog.EditableColumns[i], nullable(v))
	}
	query, args, err := ub.
		Where(sq.Eq{catalog.ColTableName: key.TableName}).
		Where(sq.Eq{catalog.ColLocation: key.Location}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating catalog entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return catalog.ErrEntryNotFound
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging catalog database: %w", err)
	}
	return nil
}

func (s *Store) queryStrings(ctx context.Context, qb sq.SelectBuilder, what string) ([]string, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building %s query: %w", what, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", what, err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", what, err)
	}
	return out, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args []any, limit int) ([]catalog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	allocCap := defaultQueryCapacity
	if limit > 0 && limit < allocCap {
		allocCap = limit
	}
	entries := make([]catalog.Entry, 0, allocCap)

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog rows: %w", err)
	}
	return entries, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (catalog.Entry, error) {
	var e catalog.Entry
	err := row.Scan(
		&e.TableName,
		&e.Location,
		&e.Account,
		&e.Classification,
		&e.ColumnCount,
		&e.RecordCount,
		&e.CreationDate,
		&e.UpdateDate,
		&e.Owner,
		&e.SubOwner,
		&e.TableComment,
		&e.ColumnComment,
		&e.ColumnCommentFlag,
		&e.Publish,
		&e.Scope,
		&e.ApplicationProject,
		&e.Comment,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("scanning catalog row: %w", err)
	}
	return e, nil
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// nullable converts an absent field into SQL NULL.
func nullable(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// Verify interface compliance.
var _ catalog.Store = (*Store)(nil)
