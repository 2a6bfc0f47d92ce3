// Package openai provides a textgen.Provider for OpenAI-compatible chat
// completion endpoints.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/txn2/mcp-data-catalog/pkg/textgen"
)

const defaultTimeout = 60 * time.Second

// Config configures the provider.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Provider calls a chat completion endpoint with one user message per prompt.
type Provider struct {
	client openai.Client
}

// New creates a provider.
func New(cfg Config) *Provider {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	opts := []option.RequestOption{
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{client: openai.NewClient(opts...)}
}

// Name returns the provider name.
func (*Provider) Name() string {
	return "openai"
}

// Complete sends prompt as a single user message and returns the first choice.
func (p *Provider) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = textgen.DefaultModel
	}
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(model),
	})
	if err != nil {
		return "", fmt.Errorf("completing prompt: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", textgen.ErrEmptyCompletion
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", textgen.ErrEmptyCompletion
	}
	return text, nil
}

// Verify interface compliance.
var _ textgen.Provider = (*Provider)(nil)
