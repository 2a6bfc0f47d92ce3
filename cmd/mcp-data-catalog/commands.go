package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	gomigrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/spf13/cobra"

	"github.com/txn2/mcp-data-catalog/internal/server"
	"github.com/txn2/mcp-data-catalog/pkg/database/migrate"
	"github.com/txn2/mcp-data-catalog/pkg/platform"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "mcp-data-catalog",
		Short:         "Data catalog server",
		Long:          "Serves the data catalog over MCP, a REST API and a web UI, and manages its database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("MCP_DATA_CATALOG_CONFIG"), "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format: text, json")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// setupLogging installs the default slog logger. Logs always go to stderr so
// the stdio transport keeps stdout for protocol messages.
func setupLogging(cmd *cobra.Command, opts *rootOptions) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", opts.logLevel)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(opts.logFormat) {
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts)
	default:
		return fmt.Errorf("invalid log format %q", opts.logFormat)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig reads the configuration file, or the defaults when no file is
// given.
func loadConfig(path string) (*platform.Config, error) {
	if path == "" {
		cfg, err := platform.ParseConfig(nil)
		if err != nil {
			return nil, fmt.Errorf("loading default config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := platform.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var transport, address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.Server.Transport = transport
			}
			if cmd.Flags().Changed("address") {
				cfg.Server.Address = address
			}

			p, err := server.New(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := p.Close(); err != nil {
					slog.Warn("closing platform", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, p)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", platform.TransportHTTP, "Transport: http, stdio")
	cmd.Flags().StringVar(&address, "address", ":8080", "Listen address for the http transport")
	return cmd
}

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the catalog database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return withDB(root, migrate.Run)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return withDB(root, migrate.Down)
			},
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations, or roll back when N is negative",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return withDB(root, func(db *sql.DB) error {
					return migrate.Steps(db, n)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(root, func(db *sql.DB) error {
					version, dirty, err := migrate.Version(db)
					if errors.Is(err, gomigrate.ErrNilVersion) {
						_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
						return nil
					}
					if err != nil {
						return fmt.Errorf("getting migration version: %w", err)
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

// withDB opens the configured catalog database for the duration of fn.
func withDB(root *rootOptions, fn func(*sql.DB) error) error {
	cfg, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "mcp-data-catalog version %s\n", server.Version)
			return nil
		},
	}
}
