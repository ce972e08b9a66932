package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/reposage/reposage/internal/constants"
)

// Client defines the text-generation capability consumed by the pipeline.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbeddingClient generates vector embeddings for text. Vectors have a
// fixed length of Dimensions() floats for a given model.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
	Dimensions() int
}

var (
	// ErrMissingAPIKey means the provider cannot be constructed at all.
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrRateLimited marks a 429 from the provider.
	ErrRateLimited = errors.New("rate limited by model provider")
	// ErrModelError marks a non-retryable provider failure.
	ErrModelError = errors.New("model provider error")
)

// Provider is an alias to the constants.Provider type.
type Provider = constants.Provider

const (
	ProviderGemini = constants.ProviderGemini
	ProviderOpenAI = constants.ProviderOpenAI
)

// Config holds configuration for creating model clients.
type Config struct {
	Provider       Provider
	Model          string
	EmbeddingModel string
	BaseURL        string
	APIKey         string
}

// Option is a functional option for configuring model clients.
type Option func(*Config)

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) Option {
	return func(c *Config) { c.EmbeddingModel = model }
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

func defaultConfig(provider Provider) *Config {
	cfg := &Config{Provider: provider}

	modelConfig, ok := constants.DefaultModels[provider]
	if ok {
		cfg.Model = modelConfig.GenerationModel
		cfg.EmbeddingModel = modelConfig.EmbeddingModel
		cfg.BaseURL = modelConfig.BaseURL
	}

	return cfg
}

// NewClient creates a text-generation client from config.
func NewClient(cfg Config, opts ...Option) (Client, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for provider %q", ErrMissingAPIKey, cfg.Provider)
	}
	defaults := defaultConfig(cfg.Provider)
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiClient(cfg.APIKey, cfg.Model), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// NewEmbedder creates an embedding client from config. The embedder must
// use the same model at query time as at indexing time; callers record
// the model name alongside every stored vector.
func NewEmbedder(cfg Config, opts ...Option) (EmbeddingClient, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for provider %q", ErrMissingAPIKey, cfg.Provider)
	}
	defaults := defaultConfig(cfg.Provider)
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaults.EmbeddingModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiEmbedder(cfg.APIKey, cfg.EmbeddingModel), nil
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, cfg.EmbeddingModel), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// AvailableProviders returns supported providers.
func AvailableProviders() []Provider {
	return constants.AllProviders
}
