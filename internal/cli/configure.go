package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/reposage/reposage/internal/config"
	"github.com/reposage/reposage/internal/llm"
)

var (
	cfgProvider    string
	cfgModel       string
	cfgEmbedModel  string
	cfgGeminiKey   string
	cfgOpenAIKey   string
	cfgGitHubToken string
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set the model provider, models and API keys",
	Long: `Writes provider, model and credential settings to the config file.
API keys can also be supplied via the GEMINI_API_KEY, OPENAI_API_KEY and
GITHUB_TOKEN environment variables (or a .env file), which take
precedence when the config file has no value.

Examples:
  reposage configure --provider gemini --gemini-key <key>
  reposage configure --provider openai --model gpt-4o`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&cfgProvider, "provider", "", "Model provider (gemini, openai)")
	configureCmd.Flags().StringVar(&cfgModel, "model", "", "Generation model name")
	configureCmd.Flags().StringVar(&cfgEmbedModel, "embedding-model", "", "Embedding model name")
	configureCmd.Flags().StringVar(&cfgGeminiKey, "gemini-key", "", "Gemini API key")
	configureCmd.Flags().StringVar(&cfgOpenAIKey, "openai-key", "", "OpenAI API key")
	configureCmd.Flags().StringVar(&cfgGitHubToken, "github-token", "", "GitHub token for private repositories")
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfgProvider != "" {
		valid := false
		for _, p := range llm.AvailableProviders() {
			if string(p) == cfgProvider {
				valid = true
			}
		}
		if !valid {
			return fmt.Errorf("unknown provider %q (supported: %v)", cfgProvider, llm.AvailableProviders())
		}
		cfg.Provider = cfgProvider
	}
	if cfgModel != "" {
		cfg.Model = cfgModel
	}
	if cfgEmbedModel != "" {
		cfg.EmbeddingModel = cfgEmbedModel
	}
	if cfgGeminiKey != "" {
		cfg.GeminiAPIKey = cfgGeminiKey
	}
	if cfgOpenAIKey != "" {
		cfg.OpenAIAPIKey = cfgOpenAIKey
	}
	if cfgGitHubToken != "" {
		cfg.GitHubToken = cfgGitHubToken
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	color.New(color.FgGreen).Printf("✓ configuration saved to %s\n", config.GetConfigPath())
	return nil
}
