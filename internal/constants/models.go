package constants

// Provider represents a model provider type
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// ModelConfig holds the default models for a provider
type ModelConfig struct {
	GenerationModel string
	EmbeddingModel  string
	EmbeddingDims   int
	BaseURL         string
}

// DefaultModels maps each provider to its default model configuration.
// The embedding dimensionality is fixed per model: vectors from different
// models (or sizes) are not comparable, so the dimension travels with the
// provider config and is recorded on every persisted chunk.
var DefaultModels = map[Provider]ModelConfig{
	ProviderGemini: {
		GenerationModel: "gemini-1.5-flash",
		EmbeddingModel:  "text-embedding-004",
		EmbeddingDims:   768,
	},
	ProviderOpenAI: {
		GenerationModel: "gpt-4o-mini",
		EmbeddingModel:  "text-embedding-3-small",
		EmbeddingDims:   1536,
		BaseURL:         "https://api.openai.com/v1",
	},
}

// AllProviders returns supported providers in display order.
var AllProviders = []Provider{ProviderGemini, ProviderOpenAI}
