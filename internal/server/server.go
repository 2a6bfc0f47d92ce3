// Package server assembles the catalog platform and serves it over HTTP or stdio.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-data-catalog/pkg/api"
	"github.com/txn2/mcp-data-catalog/pkg/health"
	"github.com/txn2/mcp-data-catalog/pkg/middleware"
	"github.com/txn2/mcp-data-catalog/pkg/platform"
	"github.com/txn2/mcp-data-catalog/pkg/session"
	"github.com/txn2/mcp-data-catalog/pkg/ui"
)

// Version is set at build time.
var Version = "dev"

// readHeaderTimeout bounds slow clients before a handler runs.
const readHeaderTimeout = 5 * time.Second

// NewWithConfig creates a platform from a configuration file.
func NewWithConfig(path string) (*platform.Platform, error) {
	cfg, err := platform.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return New(cfg)
}

// New validates cfg and creates a platform.
func New(cfg *platform.Config, opts ...platform.Option) (*platform.Platform, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	p, err := platform.New(append([]platform.Option{platform.WithConfig(cfg)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating platform: %w", err)
	}
	return p, nil
}

// NewHandler builds the HTTP surface of a platform: health probes, the REST
// API under /api/v1, the pages under /ui and the MCP endpoint at /mcp.
func NewHandler(p *platform.Platform, checker *health.Checker) http.Handler {
	cfg := p.Config()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(slog.Default()))
	r.Use(chimw.Recoverer)
	if len(cfg.Server.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", session.HeaderName, "Mcp-Session-Id"},
			ExposedHeaders:   []string{session.HeaderName, "Mcp-Session-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", checker.LivenessHandler())
	r.Get("/readyz", checker.ReadinessHandler())

	sessions := session.Middleware(p.Sessions(), cfg.Session.TTL)

	r.With(sessions).Mount("/api/v1", api.NewHandler(api.Deps{
		Store:        p.Store(),
		Editor:       p.Editor(),
		Search:       p.Search(),
		Warehouse:    p.Warehouse(),
		Comments:     p.Comments(),
		Sessions:     p.Sessions(),
		PreviewLimit: cfg.Comments.PreviewLimit,
	}))

	pages := ui.NewHandler(p.Store(), p.Editor(), p.Search(), p.Warehouse(), p.Comments(), p.Sessions(), cfg.Comments.PreviewLimit)
	r.Route("/ui", func(r chi.Router) {
		r.Use(sessions)
		ui.MountRoutes(r, pages)
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return p.MCPServer() }, nil)
	r.Handle("/mcp", mcpHandler)
	r.Handle("/mcp/*", mcpHandler)

	return r
}

// NewChecker creates a health checker that probes the catalog database.
func NewChecker(p *platform.Platform) *health.Checker {
	checker := health.NewChecker()
	checker.AddProbe("catalog_db", p.Ping)
	return checker
}

// Run starts the platform and serves the configured transport until ctx is
// cancelled. The platform is stopped before Run returns; closing it is left
// to the caller.
func Run(ctx context.Context, p *platform.Platform) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := p.Stop(context.Background()); err != nil {
			slog.Warn("platform stop failed", "error", err)
		}
	}()

	cfg := p.Config()
	if cfg.Server.Transport == platform.TransportStdio {
		slog.Info("serving MCP over stdio")
		if err := p.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("serving stdio: %w", err)
		}
		return nil
	}
	return serveHTTP(ctx, p)
}

func serveHTTP(ctx context.Context, p *platform.Platform) error {
	cfg := p.Config()
	checker := NewChecker(p)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           NewHandler(p, checker),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "address", cfg.Server.Address, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	checker.SetReady()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	checker.SetDraining()
	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
