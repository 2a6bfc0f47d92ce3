package catalog

import (
	"context"
	"errors"
)

// ErrEntryNotFound is returned when no catalog row matches an identity.
var ErrEntryNotFound = errors.New("catalog entry not found")

// Store reads and writes the catalog store.
type Store interface {
	// Locations returns the distinct location strings, sorted ascending.
	Locations(ctx context.Context) ([]string, error)

	// ListTables returns the distinct table names stored under a location, sorted ascending.
	ListTables(ctx context.Context, location string) ([]string, error)

	// LocationsOf returns the locations holding a table name, sorted ascending.
	LocationsOf(ctx context.Context, tableName string) ([]string, error)

	// Get returns one entry by identity, or ErrEntryNotFound.
	Get(ctx context.Context, key Key) (*Entry, error)

	// List returns the entries matching the filter, ordered by location then table name.
	List(ctx context.Context, filter ListFilter) ([]Entry, error)

	// Search returns the entries matching the query, ordered by table name then location.
	Search(ctx context.Context, q SearchQuery) ([]Entry, error)

	// UpdateEditable sets all editable fields of one entry. ErrEntryNotFound
	// is returned when the identity matched no row.
	UpdateEditable(ctx context.Context, key Key, fields Editable) error
}

// NewNoopStore creates a Store that holds no entries.
func NewNoopStore() Store {
	return &noopStore{}
}

// noopStore is used when no catalog database is configured.
//
//nolint:revive // interface implementation methods on unexported type need no doc comments
type noopStore struct{}

func (*noopStore) Locations(_ context.Context) ([]string, error) { return nil, nil }

func (*noopStore) ListTables(_ context.Context, _ string) ([]string, error) { return nil, nil }

func (*noopStore) LocationsOf(_ context.Context, _ string) ([]string, error) { return nil, nil }

func (*noopStore) Get(_ context.Context, _ Key) (*Entry, error) { return nil, ErrEntryNotFound }

func (*noopStore) List(_ context.Context, _ ListFilter) ([]Entry, error) { return nil, nil }

func (*noopStore) Search(_ context.Context, _ SearchQuery) ([]Entry, error) { return nil, nil }

func (*noopStore) UpdateEditable(_ context.Context, _ Key, _ Editable) error {
	return ErrEntryNotFound
}

// Verify interface compliance.
var _ Store = (*noopStore)(nil)
