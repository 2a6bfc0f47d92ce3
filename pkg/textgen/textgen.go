// Package textgen defines the text-generation service used to draft
// comments and reduce search questions to keywords.
package textgen

import (
	"context"
	"errors"
)

// DefaultModel is the completion model used when none is configured.
const DefaultModel = "mistral-large2"

var (
	// ErrNotConfigured is returned by the noop provider.
	ErrNotConfigured = errors.New("text generation is not configured")

	// ErrEmptyCompletion is returned when the service answers with no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Provider completes a single prompt.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Complete returns the model's answer to prompt.
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// NoopProvider is used when no text-generation service is configured.
// Every completion fails so callers take their fallback path.
type NoopProvider struct{}

// NewNoopProvider creates a new no-op provider.
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

// Name returns the provider name.
func (*NoopProvider) Name() string {
	return "noop"
}

// Complete always returns ErrNotConfigured.
func (*NoopProvider) Complete(_ context.Context, _, _ string) (string, error) {
	return "", ErrNotConfigured
}

// Verify interface compliance.
var _ Provider = (*NoopProvider)(nil)
