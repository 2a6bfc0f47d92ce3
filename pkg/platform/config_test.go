package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cfgTestFilePerms       = 0o600
	cfgTestDefaultMaxConns = 25
	cfgTestDefaultSessTTL  = 30 * time.Minute
	cfgTestCustomSessTTL   = 10 * time.Minute
	cfgTestTrinoPort       = 8443
)

// writeTestConfig writes a YAML config to a temp dir and returns the path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), cfgTestFilePerms))
	return configPath
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t, "server:\n  name: test-catalog\n"))
	require.NoError(t, err)

	assert.Equal(t, "test-catalog", cfg.Server.Name)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, cfgTestDefaultMaxConns, cfg.Database.MaxOpenConns)
	assert.Equal(t, ProviderNoop, cfg.Warehouse.Provider)
	assert.Equal(t, ProviderNoop, cfg.TextGen.Provider)
	assert.Equal(t, 100, cfg.Comments.SampleLimit)
	assert.Equal(t, cfgTestDefaultSessTTL, cfg.Session.TTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Full(t *testing.T) {
	t.Setenv("TEST_TRINO_PASSWORD", "s3cret")
	t.Setenv("TEST_LLM_KEY", "sk-test")

	cfg, err := LoadConfig(writeTestConfig(t, `
server:
  transport: stdio
  cors_origins: ["http://localhost:3000"]
database:
  dsn: postgres://catalog@localhost/catalog?sslmode=disable
  migrate: true
catalog:
  table: meta.table_info
warehouse:
  provider: trino
  trino:
    host: trino.internal
    port: 8443
    user: catalog
    password: ${TEST_TRINO_PASSWORD}
    ssl: true
textgen:
  provider: openai
  model: mistral-large2
  api_key: ${TEST_LLM_KEY}
  base_url: http://llm.internal/v1/
session:
  ttl: 10m
`))
	require.NoError(t, err)

	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Database.Migrate)
	assert.Equal(t, "meta.table_info", cfg.Catalog.Table)
	assert.Equal(t, ProviderTrino, cfg.Warehouse.Provider)
	assert.Equal(t, cfgTestTrinoPort, cfg.Warehouse.Trino.Port)
	assert.Equal(t, "s3cret", cfg.Warehouse.Trino.Password)
	assert.Equal(t, "sk-test", cfg.TextGen.APIKey)
	assert.Equal(t, cfgTestCustomSessTTL, cfg.Session.TTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")

	_, err = LoadConfig(writeTestConfig(t, "server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_EXPAND_A", "alpha")
	assert.Equal(t, "x=alpha y=", expandEnvVars("x=${TEST_EXPAND_A} y=${TEST_EXPAND_UNSET_VAR}"))
	assert.Equal(t, "no vars", expandEnvVars("no vars"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "bad transport", mutate: func(c *Config) { c.Server.Transport = "sse" }, wantErr: "server.transport"},
		{name: "trino without host", mutate: func(c *Config) { c.Warehouse.Provider = ProviderTrino }, wantErr: "warehouse.trino.host"},
		{name: "unknown warehouse", mutate: func(c *Config) { c.Warehouse.Provider = "snowflake" }, wantErr: "warehouse.provider"},
		{name: "unknown textgen", mutate: func(c *Config) { c.TextGen.Provider = "cortex" }, wantErr: "textgen.provider"},
		{name: "migrate without dsn", mutate: func(c *Config) { c.Database.Migrate = true }, wantErr: "database.dsn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte("{}"))
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
