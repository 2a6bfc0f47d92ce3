package platform

import (
	"database/sql"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/session"
	"github.com/txn2/mcp-data-catalog/pkg/textgen"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
)

// Options configures the platform.
type Options struct {
	// Config is the platform configuration.
	Config *Config

	// Database connection (optional, will be opened from config if not provided).
	DB *sql.DB

	// CatalogStore (optional, will be created from config if not provided).
	CatalogStore catalog.Store

	// Warehouse provider (optional, will be created from config if not provided).
	Warehouse warehouse.Provider

	// TextGen provider (optional, will be created from config if not provided).
	TextGen textgen.Provider

	// SessionStore (optional, an in-memory store is created if not provided).
	SessionStore session.Store
}

// Option is a functional option for configuring the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithDB sets the database connection.
func WithDB(db *sql.DB) Option {
	return func(o *Options) {
		o.DB = db
	}
}

// WithCatalogStore sets the catalog store.
func WithCatalogStore(store catalog.Store) Option {
	return func(o *Options) {
		o.CatalogStore = store
	}
}

// WithWarehouse sets the warehouse provider.
func WithWarehouse(provider warehouse.Provider) Option {
	return func(o *Options) {
		o.Warehouse = provider
	}
}

// WithTextGen sets the text-generation provider.
func WithTextGen(provider textgen.Provider) Option {
	return func(o *Options) {
		o.TextGen = provider
	}
}

// WithSessionStore sets the session store.
func WithSessionStore(store session.Store) Option {
	return func(o *Options) {
		o.SessionStore = store
	}
}
