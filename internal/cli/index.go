package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/reposage/reposage/internal/config"
	"github.com/reposage/reposage/internal/github"
	"github.com/reposage/reposage/internal/gitlocal"
	"github.com/reposage/reposage/internal/indexer"
	"github.com/reposage/reposage/internal/poller"
)

var indexName string

var indexCmd = &cobra.Command{
	Use:   "index <repo-url-or-path>",
	Short: "Index a repository: summarize and embed every source file",
	Long: `Indexes a repository so it can be queried with 'reposage ask'.

Accepts either a GitHub URL (https://github.com/owner/repo) or a local
path containing a git repository. Every eligible source file is summarized
by the model, the summary is embedded, and both are persisted. For GitHub
URLs the recent commit history is polled and summarized in the same run.

Re-running index on the same project skips files that are already
indexed, so interrupted runs pick up where they left off.

Examples:
  reposage index https://github.com/owner/repo
  reposage index . --name myproject`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexName, "name", "", "Project name (defaults to the repository name)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := args[0]

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

	// Resolve the source: a GitHub URL or a local working tree.
	var (
		docs    []indexer.Document
		repoURL string
		name    string
	)
	isRemote := strings.Contains(target, "github.com")

	s := newSpinner("Loading repository...")
	s.Start()
	if isRemote {
		_, repoName, err := github.ParseRepoURL(target)
		if err != nil {
			s.Stop()
			return err
		}
		repoURL = target
		name = repoName
		client := github.NewClient(cfg.GetGitHubToken())
		docs, err = client.LoadRepository(ctx, repoURL)
		if err != nil {
			s.Stop()
			return err
		}
	} else {
		if _, err := os.Stat(target); err != nil {
			s.Stop()
			return fmt.Errorf("not a GitHub URL and not a local path: %s", target)
		}
		repo, err := gitlocal.OpenRepo(target)
		if err != nil {
			s.Stop()
			return err
		}
		repoURL = repo.RemoteURL()
		name = repo.Name()
		docs, err = indexer.ScanDir(repo.Path())
		if err != nil {
			s.Stop()
			return err
		}
	}
	s.Stop()

	if indexName != "" {
		name = indexName
	}
	project, err := store.GetOrCreateProject(ctx, name, repoURL)
	if err != nil {
		return err
	}

	color.New(color.FgCyan, color.Bold).Printf("Indexing %s (%d files)\n", project.Name, len(docs))

	summarizer := indexer.NewSummarizer(gen, embed, indexer.DefaultSummarizerOptions())
	orch := indexer.NewOrchestrator(summarizer, store, indexer.DefaultOptions())
	orch.Logf = VerboseLog

	// Index files and poll commits concurrently; commit polling only
	// applies when the project is linked to a GitHub URL.
	g, gctx := errgroup.WithContext(ctx)

	var report *indexer.Report
	g.Go(func() error {
		var err error
		report, err = orch.Run(gctx, project.ID, docs)
		return err
	})

	canPoll := strings.Contains(repoURL, "github.com")
	if canPoll {
		g.Go(func() error {
			p := poller.New(github.NewClient(cfg.GetGitHubToken()), gen, store, poller.DefaultOptions())
			p.Logf = VerboseLog
			commits, err := p.Poll(gctx, project)
			if err != nil {
				// Commit history is best-effort during indexing.
				VerboseLog("commit polling failed: %v", err)
				return nil
			}
			VerboseLog("persisted %d new commits", len(commits))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	printReport(report)
	return nil
}

func printReport(r *indexer.Report) {
	fmt.Println()
	color.New(color.FgGreen).Printf("✓ %d indexed", r.Completed)
	if r.Skipped > 0 {
		fmt.Printf(", %d already indexed", r.Skipped)
	}
	if r.Failed > 0 {
		color.New(color.FgRed).Printf(", %d failed", r.Failed)
	}
	fmt.Printf(" (of %d files)\n", r.Total)

	for path, reason := range r.Failures {
		color.New(color.Faint).Printf("  %s: %s\n", path, reason)
	}
}
