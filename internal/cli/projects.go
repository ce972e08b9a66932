package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List and manage indexed projects",
	RunE:  runProjectsList,
}

var projectsArchiveCmd = &cobra.Command{
	Use:   "archive <project>",
	Short: "Archive a project (its data stays queryable)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsArchive,
}

var commitsLimit int

var projectsCommitsCmd = &cobra.Command{
	Use:   "commits <project>",
	Short: "Show the most recently persisted commits for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsCommits,
}

func init() {
	projectsCommitsCmd.Flags().IntVar(&commitsLimit, "limit", 15, "Maximum commits to show")
	projectsCmd.AddCommand(projectsArchiveCmd)
	projectsCmd.AddCommand(projectsCommitsCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, database, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	projects, err := store.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects yet. Run 'reposage index' to add one.")
		return nil
	}

	for _, p := range projects {
		count, err := store.ChunkCount(ctx, p.ID)
		if err != nil {
			return err
		}
		color.New(color.Bold).Printf("%s", p.Name)
		if p.Archived() {
			color.New(color.Faint).Printf(" (archived)")
		}
		fmt.Printf("  %d files", count)
		if p.RepoURL != "" {
			color.New(color.Faint).Printf("  %s", p.RepoURL)
		}
		fmt.Println()
	}
	return nil
}

func runProjectsArchive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, database, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	project, err := store.GetProjectByName(ctx, args[0])
	if err != nil {
		return fmt.Errorf("project %q not found: %w", args[0], err)
	}
	if err := store.ArchiveProject(ctx, project.ID); err != nil {
		return err
	}
	color.New(color.FgGreen).Printf("✓ archived %s\n", project.Name)
	return nil
}

func runProjectsCommits(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, database, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	project, err := store.GetProjectByName(ctx, args[0])
	if err != nil {
		return fmt.Errorf("project %q not found: %w", args[0], err)
	}

	commits, err := store.RecentCommits(ctx, project.ID, commitsLimit)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		fmt.Println("No commits recorded yet. Run 'reposage poll' first.")
		return nil
	}

	for _, c := range commits {
		short := c.Hash
		if len(short) > 8 {
			short = short[:8]
		}
		color.New(color.FgYellow).Printf("%s ", short)
		fmt.Printf("%s (%s, %s)\n", firstLine(c.Message), c.AuthorName, c.AuthoredAt.Format("2006-01-02"))
		if c.Summary != "" {
			color.New(color.Faint).Printf("%s\n", c.Summary)
		}
		fmt.Println()
	}
	return nil
}
