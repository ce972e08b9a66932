package cli

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/reposage/reposage/internal/config"
	"github.com/reposage/reposage/internal/db"
	"github.com/reposage/reposage/internal/llm"
)

// openStore opens the configured database and wraps it in a store. The
// caller closes the returned handle.
func openStore() (*db.Store, *sql.DB, error) {
	path := dbPath
	if path == "" {
		path = config.GetDBPath()
	}
	VerboseLog("opening database at %s", path)
	database, err := db.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return db.NewStore(database), database, nil
}

// newModelClients builds the generation and embedding clients from config.
func newModelClients(cfg *config.Config) (llm.Client, llm.EmbeddingClient, error) {
	provider := llm.Provider(cfg.Provider)
	apiKey := cfg.GetAPIKey(cfg.Provider)
	if apiKey == "" {
		return nil, nil, fmt.Errorf("%w: set it with 'reposage configure' or the %s_API_KEY environment variable",
			llm.ErrMissingAPIKey, strings.ToUpper(cfg.Provider))
	}

	llmCfg := llm.Config{Provider: provider, APIKey: apiKey}
	var opts []llm.Option
	if cfg.Model != "" {
		opts = append(opts, llm.WithModel(cfg.Model))
	}
	if cfg.EmbeddingModel != "" {
		opts = append(opts, llm.WithEmbeddingModel(cfg.EmbeddingModel))
	}

	gen, err := llm.NewClient(llmCfg, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model client: %w", err)
	}
	embed, err := llm.NewEmbedder(llmCfg, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	return gen, embed, nil
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	return s
}
