package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/reposage/reposage/internal/constants"
)

// GeminiClient implements the Client interface using Google's official
// Gemini Go SDK.
type GeminiClient struct {
	client *genai.Client
	apiKey string
	model  string
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	// The SDK client is initialized lazily on first use.
	return &GeminiClient{
		apiKey: apiKey,
		model:  model,
	}
}

// ensureClient initializes the SDK client if not already initialized
func (c *GeminiClient) ensureClient(ctx context.Context) error {
	if c.client != nil {
		return nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  c.apiKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c.client = client
	return nil
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.ensureClient(ctx); err != nil {
		return "", err
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelError, err)
	}

	return result.Text(), nil
}

// GeminiEmbedder implements EmbeddingClient using the Gemini embedding
// models (text-embedding-004 by default, 768 dimensions).
type GeminiEmbedder struct {
	client *genai.Client
	apiKey string
	model  string
}

func NewGeminiEmbedder(apiKey, model string) *GeminiEmbedder {
	if model == "" {
		model = constants.DefaultModels[constants.ProviderGemini].EmbeddingModel
	}
	return &GeminiEmbedder{
		apiKey: apiKey,
		model:  model,
	}
}

func (e *GeminiEmbedder) ensureClient(ctx context.Context) error {
	if e.client != nil {
		return nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  e.apiKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	e.client = client
	return nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.ensureClient(ctx); err != nil {
		return nil, err
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelError, err)
	}

	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrModelError)
	}

	return result.Embeddings[0].Values, nil
}

func (e *GeminiEmbedder) Model() string {
	return e.model
}

func (e *GeminiEmbedder) Dimensions() int {
	return constants.DefaultModels[constants.ProviderGemini].EmbeddingDims
}
