package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/reposage/reposage/internal/chat"
	"github.com/reposage/reposage/internal/config"
)

var askCmd = &cobra.Command{
	Use:   "ask <project> [question]",
	Short: "Ask a question about an indexed project",
	Long: `Answers a natural language question about an indexed project. The
question is embedded, the most similar indexed files are retrieved, and
the model answers grounded in those files only.

With no question argument an interactive prompt is shown.

Examples:
  reposage ask myproject "where is authentication handled?"
  reposage ask myproject`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	question := ""
	if len(args) > 1 {
		question = args[1]
	} else {
		prompt := promptui.Prompt{Label: "Question"}
		var err error
		question, err = prompt.Run()
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question cannot be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	gen, embed, err := newModelClients(cfg)
	if err != nil {
		return err
	}

	store, database, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	project, err := store.GetProjectByName(ctx, args[0])
	if err != nil {
		return fmt.Errorf("project %q not found: %w", args[0], err)
	}
	if project.Archived() {
		color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(),
			"Warning: project %s is archived; answers reflect its last indexed state.\n", project.Name)
	}

	s := newSpinner("Thinking...")
	s.Start()
	pipeline := chat.NewPipeline(gen, embed, store, chat.DefaultOptions())
	answer, err := pipeline.Ask(ctx, project, question)
	s.Stop()
	if err != nil {
		return err
	}

	rendered, err := renderMarkdown(answer.Text)
	if err != nil {
		// Fall back to the raw answer.
		rendered = answer.Text
	}
	fmt.Println(rendered)

	if len(answer.References) > 0 {
		color.New(color.FgCyan, color.Bold).Println("References")
		for _, ref := range answer.References {
			color.New(color.Faint).Printf("  %.2f  %s\n", ref.Similarity, ref.FileName)
		}
	}
	return nil
}

func renderMarkdown(text string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}
