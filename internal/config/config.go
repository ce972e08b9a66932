package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reposage/reposage/internal/constants"
)

// Config holds user-level settings. API keys may also come from the
// environment; the file value wins when both are set.
type Config struct {
	Provider       string `json:"provider"`
	Model          string `json:"model,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`

	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`
	GitHubToken  string `json:"github_token,omitempty"`
}

var configPath string

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		configPath = ".reposage/config.json"
		return
	}
	configPath = filepath.Join(homeDir, ".reposage", "config.json")
}

func GetConfigPath() string {
	return configPath
}

// SetConfigPath overrides the config location (used by tests).
func SetConfigPath(path string) {
	configPath = path
}

func Load() (*Config, error) {
	cfg := &Config{
		Provider: string(constants.ProviderGemini),
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Save() error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetAPIKey returns the key for a provider, falling back to the environment.
func (c *Config) GetAPIKey(provider string) string {
	switch constants.Provider(provider) {
	case constants.ProviderGemini:
		if c.GeminiAPIKey != "" {
			return c.GeminiAPIKey
		}
		return os.Getenv("GEMINI_API_KEY")
	case constants.ProviderOpenAI:
		if c.OpenAIAPIKey != "" {
			return c.OpenAIAPIKey
		}
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

// GetGitHubToken returns the hosting API token, falling back to the environment.
func (c *Config) GetGitHubToken() string {
	if c.GitHubToken != "" {
		return c.GitHubToken
	}
	return os.Getenv("GITHUB_TOKEN")
}

// GetReposageDir returns the base data directory path.
func GetReposageDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".reposage"
	}
	return filepath.Join(homeDir, ".reposage")
}

// GetDBPath returns the default database location.
func GetDBPath() string {
	return filepath.Join(GetReposageDir(), "reposage.db")
}
