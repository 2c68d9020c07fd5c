package provider

import (
	"context"
	"errors"

	"github.com/tesvikportal/asistan/config"
	openai_provider "github.com/tesvikportal/asistan/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Message is a single role-tagged turn sent to the completion endpoint.
type Message = openai_provider.Message

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.OpenAIConfig) (Provider, error) {
	switch client {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("openai api key not configured")
		}
		return openai_provider.NewOpenAIClient(cfg), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
