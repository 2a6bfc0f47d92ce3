package warehouse

import (
	"context"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
)

// NoopProvider is used when no warehouse is configured. Listings are empty
// and every table operation returns ErrNotConfigured.
type NoopProvider struct{}

// NewNoopProvider creates a new no-op provider.
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

// Name returns the provider name.
func (*NoopProvider) Name() string {
	return "noop"
}

// ListDatabases returns nothing.
func (*NoopProvider) ListDatabases(_ context.Context) ([]string, error) {
	return []string{}, nil
}

// ListSchemas returns nothing.
func (*NoopProvider) ListSchemas(_ context.Context, _ string) ([]string, error) {
	return []string{}, nil
}

// ListTables returns nothing.
func (*NoopProvider) ListTables(_ context.Context, _, _ string) ([]string, error) {
	return []string{}, nil
}

// DescribeTable returns ErrNotConfigured.
func (*NoopProvider) DescribeTable(_ context.Context, _ catalog.LocationPath) ([]catalog.ColumnDescriptor, error) {
	return nil, ErrNotConfigured
}

// TableComment returns ErrNotConfigured.
func (*NoopProvider) TableComment(_ context.Context, _ catalog.LocationPath) (string, error) {
	return "", ErrNotConfigured
}

// SampleValues returns ErrNotConfigured.
func (*NoopProvider) SampleValues(_ context.Context, _ catalog.LocationPath, _ string, _ int) ([]string, error) {
	return nil, ErrNotConfigured
}

// Preview returns ErrNotConfigured.
func (*NoopProvider) Preview(_ context.Context, _ catalog.LocationPath, _ int) (*Preview, error) {
	return nil, ErrNotConfigured
}

// SetTableComment returns ErrNotConfigured.
func (*NoopProvider) SetTableComment(_ context.Context, _ catalog.LocationPath, _ string) error {
	return ErrNotConfigured
}

// SetColumnComment returns ErrNotConfigured.
func (*NoopProvider) SetColumnComment(_ context.Context, _ catalog.LocationPath, _, _ string) error {
	return ErrNotConfigured
}

// ConnectionInfo returns the path without a server.
func (*NoopProvider) ConnectionInfo(table catalog.LocationPath) ConnectionInfo {
	return ConnectionInfo{
		Database: table.Database,
		Schema:   table.Schema,
		Table:    table.Table,
		FullPath: table.String(),
	}
}

// Close does nothing.
func (*NoopProvider) Close() error {
	return nil
}

// Verify interface compliance.
var _ Provider = (*NoopProvider)(nil)
