// Package platform wires the catalog services together from configuration.
package platform

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in configuration.
const (
	ProviderNoop   = "noop"
	ProviderTrino  = "trino"
	ProviderOpenAI = "openai"

	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config holds the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	TextGen   TextGenConfig   `yaml:"textgen"`
	Comments  CommentsConfig  `yaml:"comments"`
	Session   SessionConfig   `yaml:"session"`
}

// ServerConfig configures the HTTP and MCP surfaces.
type ServerConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Transport       string        `yaml:"transport"` // "http", "stdio"
	Address         string        `yaml:"address"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures the catalog database connection.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	Migrate      bool   `yaml:"migrate"` // apply migrations at startup
}

// CatalogConfig configures the catalog table.
type CatalogConfig struct {
	Table string `yaml:"table"`
}

// WarehouseConfig selects and configures the warehouse provider.
type WarehouseConfig struct {
	Provider string      `yaml:"provider"`
	Trino    TrinoConfig `yaml:"trino"`
}

// TrinoConfig configures the Trino connection.
type TrinoConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	User      string        `yaml:"user"`
	Password  string        `yaml:"password"`
	Catalog   string        `yaml:"catalog"`
	Schema    string        `yaml:"schema"`
	SSL       bool          `yaml:"ssl"`
	SSLVerify bool          `yaml:"ssl_verify"`
	Timeout   time.Duration `yaml:"timeout"`
}

// TextGenConfig selects and configures the text-generation provider.
type TextGenConfig struct {
	Provider   string        `yaml:"provider"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// CommentsConfig tunes comment generation and table previews.
type CommentsConfig struct {
	SampleLimit  int `yaml:"sample_limit"`
	PreviewLimit int `yaml:"preview_limit"`
}

// SessionConfig configures interaction session storage.
type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the administrator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration, expanding ${VAR} references and
// applying defaults.
func ParseConfig(data []byte) (*Config, error) {
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "mcp-data-catalog"
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = "1.0.0"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportHTTP
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Warehouse.Provider == "" {
		cfg.Warehouse.Provider = ProviderNoop
	}
	if cfg.TextGen.Provider == "" {
		cfg.TextGen.Provider = ProviderNoop
	}
	if cfg.Comments.SampleLimit == 0 {
		cfg.Comments.SampleLimit = 100
	}
	if cfg.Comments.PreviewLimit == 0 {
		cfg.Comments.PreviewLimit = 100
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 30 * time.Minute
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = time.Minute
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.Server.Transport {
	case TransportHTTP, TransportStdio:
	default:
		errs = append(errs, fmt.Sprintf("server.transport %q is not one of http, stdio", c.Server.Transport))
	}

	switch c.Warehouse.Provider {
	case ProviderNoop:
	case ProviderTrino:
		if c.Warehouse.Trino.Host == "" {
			errs = append(errs, "warehouse.trino.host is required when the trino provider is selected")
		}
	default:
		errs = append(errs, fmt.Sprintf("warehouse.provider %q is not one of noop, trino", c.Warehouse.Provider))
	}

	switch c.TextGen.Provider {
	case ProviderNoop, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Sprintf("textgen.provider %q is not one of noop, openai", c.TextGen.Provider))
	}

	if c.Database.Migrate && c.Database.DSN == "" {
		errs = append(errs, "database.dsn is required when database.migrate is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
