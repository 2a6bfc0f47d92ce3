package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/catalog/postgres"
	"github.com/txn2/mcp-data-catalog/pkg/commentgen"
	"github.com/txn2/mcp-data-catalog/pkg/database/migrate"
	"github.com/txn2/mcp-data-catalog/pkg/editor"
	"github.com/txn2/mcp-data-catalog/pkg/middleware"
	"github.com/txn2/mcp-data-catalog/pkg/resolver"
	"github.com/txn2/mcp-data-catalog/pkg/search"
	"github.com/txn2/mcp-data-catalog/pkg/session"
	"github.com/txn2/mcp-data-catalog/pkg/textgen"
	"github.com/txn2/mcp-data-catalog/pkg/textgen/openai"
	catalogtools "github.com/txn2/mcp-data-catalog/pkg/toolkits/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse/trino"
)

// Platform is the main platform facade.
type Platform struct {
	config *Config

	// Core components
	mcpServer *mcp.Server
	lifecycle *Lifecycle
	toolkit   *catalogtools.Toolkit

	// Storage
	db      *sql.DB
	ownsDB  bool
	store   catalog.Store
	session session.Store

	// Providers
	warehouse warehouse.Provider
	textGen   textgen.Provider

	// Services
	editor   *editor.Editor
	search   *search.Aggregator
	comments *commentgen.Generator
}

// New creates a new platform instance.
func New(opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Config == nil {
		return nil, errors.New("config is required")
	}
	applyDefaults(options.Config)

	p := &Platform{
		config:    options.Config,
		lifecycle: NewLifecycle(),
	}

	if err := p.initializeComponents(options); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("initializing components: %w", err)
	}

	return p, nil
}

// initializeComponents initializes all platform components.
func (p *Platform) initializeComponents(opts *Options) error {
	if err := p.initDatabase(opts); err != nil {
		return err
	}
	if err := p.initProviders(opts); err != nil {
		return err
	}
	p.initServices()
	p.initSessions(opts)
	return p.finalizeSetup()
}

// initDatabase opens the catalog database and creates the catalog store.
func (p *Platform) initDatabase(opts *Options) error {
	p.db = opts.DB
	if p.db == nil && p.config.Database.DSN != "" {
		db, err := sql.Open("postgres", p.config.Database.DSN)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		db.SetMaxOpenConns(p.config.Database.MaxOpenConns)
		p.db = db
		p.ownsDB = true
	}

	switch {
	case opts.CatalogStore != nil:
		p.store = opts.CatalogStore
	case p.db != nil:
		p.store = postgres.New(p.db, postgres.Config{Table: p.config.Catalog.Table})
	default:
		slog.Warn("no catalog database configured, using empty catalog store")
		p.store = catalog.NewNoopStore()
	}

	if p.db != nil && p.config.Database.Migrate {
		db := p.db
		p.lifecycle.Append(Hook{
			Name: "migrations",
			OnStart: func(context.Context) error {
				return migrate.Run(db)
			},
		})
	}
	return nil
}

// initProviders initializes the warehouse and text-generation providers.
func (p *Platform) initProviders(opts *Options) error {
	var err error
	if opts.Warehouse != nil {
		p.warehouse = opts.Warehouse
	} else if p.warehouse, err = p.createWarehouse(); err != nil {
		return fmt.Errorf("creating warehouse provider: %w", err)
	}

	if opts.TextGen != nil {
		p.textGen = opts.TextGen
	} else {
		p.textGen = p.createTextGen()
	}
	return nil
}

// initServices builds the editor, search and comment services.
func (p *Platform) initServices() {
	p.editor = editor.New(p.store)
	p.search = search.New(p.store, p.textGen, p.config.TextGen.Model)
	p.comments = commentgen.New(p.warehouse, p.textGen,
		commentgen.WithModel(p.config.TextGen.Model),
		commentgen.WithSampleLimit(p.config.Comments.SampleLimit),
	)
}

// initSessions creates the session store. An in-memory store created here
// runs its cleanup routine while the platform is started.
func (p *Platform) initSessions(opts *Options) {
	if opts.SessionStore != nil {
		p.session = opts.SessionStore
		return
	}

	mem := session.NewMemoryStore(p.config.Session.TTL)
	p.session = mem
	interval := p.config.Session.CleanupInterval
	p.lifecycle.Append(Hook{
		Name: "session cleanup",
		OnStart: func(context.Context) error {
			mem.StartCleanupRoutine(interval)
			return nil
		},
		OnStop: func(context.Context) error {
			return mem.Close()
		},
	})
}

// finalizeSetup creates the MCP server and registers the catalog tools.
func (p *Platform) finalizeSetup() error {
	tk, err := catalogtools.New(p.config.Server.Name, p.store, p.search, p.warehouse, p.comments)
	if err != nil {
		return fmt.Errorf("creating catalog toolkit: %w", err)
	}
	p.toolkit = tk

	p.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    p.config.Server.Name,
		Version: p.config.Server.Version,
	}, nil)
	p.mcpServer.AddReceivingMiddleware(middleware.MCPToolLogging(slog.Default()))
	tk.RegisterTools(p.mcpServer)
	return nil
}

// createWarehouse creates the warehouse provider based on config.
func (p *Platform) createWarehouse() (warehouse.Provider, error) {
	switch p.config.Warehouse.Provider {
	case ProviderTrino:
		tc := p.config.Warehouse.Trino
		adapter, err := trino.New(trino.Config{
			Host:      tc.Host,
			Port:      tc.Port,
			User:      tc.User,
			Password:  tc.Password,
			Catalog:   tc.Catalog,
			Schema:    tc.Schema,
			SSL:       tc.SSL,
			SSLVerify: tc.SSLVerify,
			Timeout:   tc.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("creating trino adapter: %w", err)
		}
		return adapter, nil
	case ProviderNoop, "":
		return warehouse.NewNoopProvider(), nil
	default:
		return nil, fmt.Errorf("unknown warehouse provider %q", p.config.Warehouse.Provider)
	}
}

// createTextGen creates the text-generation provider based on config.
func (p *Platform) createTextGen() textgen.Provider {
	tc := p.config.TextGen
	if tc.Provider != ProviderOpenAI {
		return textgen.NewNoopProvider()
	}
	return openai.New(openai.Config{
		APIKey:     tc.APIKey,
		BaseURL:    tc.BaseURL,
		Timeout:    tc.Timeout,
		MaxRetries: tc.MaxRetries,
	})
}

// Start runs the lifecycle start hooks.
func (p *Platform) Start(ctx context.Context) error {
	if err := p.lifecycle.Start(ctx); err != nil {
		return fmt.Errorf("starting platform: %w", err)
	}
	slog.Info("platform started",
		"warehouse", p.warehouse.Name(),
		"textgen", p.textGen.Name(),
	)
	return nil
}

// Stop runs the lifecycle stop hooks.
func (p *Platform) Stop(ctx context.Context) error {
	return p.lifecycle.Stop(ctx)
}

// Ping checks the catalog database connection. Without a database it
// always succeeds.
func (p *Platform) Ping(ctx context.Context) error {
	if p.db == nil {
		return nil
	}
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging catalog database: %w", err)
	}
	return nil
}

// Resolver loads a Location Resolver with the current location set.
func (p *Platform) Resolver(ctx context.Context) (*resolver.Resolver, error) {
	r, err := resolver.Load(ctx, p.store)
	if err != nil {
		return nil, fmt.Errorf("loading resolver: %w", err)
	}
	return r, nil
}

// MCPServer returns the MCP server.
func (p *Platform) MCPServer() *mcp.Server {
	return p.mcpServer
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// DB returns the catalog database, or nil.
func (p *Platform) DB() *sql.DB {
	return p.db
}

// Store returns the catalog store.
func (p *Platform) Store() catalog.Store {
	return p.store
}

// Warehouse returns the warehouse provider.
func (p *Platform) Warehouse() warehouse.Provider {
	return p.warehouse
}

// TextGen returns the text-generation provider.
func (p *Platform) TextGen() textgen.Provider {
	return p.textGen
}

// Editor returns the metadata editor.
func (p *Platform) Editor() *editor.Editor {
	return p.editor
}

// Search returns the search aggregator.
func (p *Platform) Search() *search.Aggregator {
	return p.search
}

// Comments returns the comment generator.
func (p *Platform) Comments() *commentgen.Generator {
	return p.comments
}

// Sessions returns the session store.
func (p *Platform) Sessions() session.Store {
	return p.session
}

// Toolkit returns the catalog MCP toolkit.
func (p *Platform) Toolkit() *catalogtools.Toolkit {
	return p.toolkit
}

func closeResource(errs *[]error, name string, closer interface{ Close() error }) {
	if err := closer.Close(); err != nil {
		*errs = append(*errs, fmt.Errorf("closing %s: %w", name, err))
	}
}

// Close stops the platform if it is running and releases resources.
func (p *Platform) Close() error {
	var errs []error
	if p.lifecycle.IsStarted() {
		if err := p.lifecycle.Stop(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}

	if p.toolkit != nil {
		closeResource(&errs, "toolkit", p.toolkit)
	}
	if p.warehouse != nil {
		closeResource(&errs, "warehouse", p.warehouse)
	}
	if p.ownsDB && p.db != nil {
		closeResource(&errs, "database", p.db)
	}

	return errors.Join(errs...)
}
