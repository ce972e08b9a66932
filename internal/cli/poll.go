package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/reposage/reposage/internal/config"
	"github.com/reposage/reposage/internal/github"
	"github.com/reposage/reposage/internal/poller"
)

var pollCmd = &cobra.Command{
	Use:   "poll <project>",
	Short: "Fetch and summarize new commits for a project",
	Long: `Fetches the most recent commits for a project's repository, skips the
ones already persisted, summarizes each new commit's diff with the model,
and stores the results. Commits whose summarization fails are stored with
an empty summary and picked up again only if deleted.

Examples:
  reposage poll myproject`,
	Args: cobra.ExactArgs(1),
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
}

func runPoll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	gen, _, err := newModelClients(cfg)
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
	if project.RepoURL == "" {
		return fmt.Errorf("project %q has no repository URL to poll", project.Name)
	}

	s := newSpinner("Polling commits...")
	s.Start()
	p := poller.New(github.NewClient(cfg.GetGitHubToken()), gen, store, poller.DefaultOptions())
	p.Logf = VerboseLog
	commits, err := p.Poll(ctx, project)
	s.Stop()
	if err != nil {
		return err
	}

	if len(commits) == 0 {
		fmt.Println("No new commits.")
		return nil
	}

	color.New(color.FgCyan, color.Bold).Printf("%d new commits\n\n", len(commits))
	for _, c := range commits {
		short := c.Hash
		if len(short) > 8 {
			short = short[:8]
		}
		color.New(color.FgYellow).Printf("%s ", short)
		fmt.Printf("%s (%s)\n", firstLine(c.Message), c.AuthorName)
		if c.Summary != "" {
			color.New(color.Faint).Printf("%s\n", c.Summary)
		}
		fmt.Println()
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
