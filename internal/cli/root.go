package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "reposage",
	Short: "RepoSage - Index repositories and ask questions about them",
	Long: `RepoSage indexes a repository by summarizing and embedding every source
file with an LLM, keeps up with new commits by summarizing their diffs,
and answers natural language questions grounded in the indexed code.

Use 'reposage index' to index a repository, 'reposage poll' to pick up
new commits, and 'reposage ask' to query a project.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Custom database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func IsVerbose() bool {
	return verbose
}

func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}
