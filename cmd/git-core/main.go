package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iberi22/ai-git-core-template/pkg/cli"
	"github.com/iberi22/ai-git-core-template/pkg/console"
	"github.com/iberi22/ai-git-core-template/pkg/constants"
)

// Build-time variables set by GoReleaser
var (
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:     constants.CLIName,
	Short:   "Toolbox for a Git-centric, agent-assisted development protocol",
	Version: version,
	Long: `Toolbox for a Git-centric, agent-assisted development protocol.

Common Tasks:
  git-core guardian 123            # Evaluate PR #123 for auto-merge
  git-core analyze                 # Analyze recent CI workflow runs
  git-core health                  # Per-workflow success rates
  git-core issues sync             # Sync issue files with remote issues
  git-core check-atomicity         # Check commit atomicity on a range

For detailed help on any command, use:
  git-core [command] --help`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "execution",
		Title: "Execution Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "analysis",
		Title: "Analysis Commands:",
	})

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output showing detailed information")

	// Set output to stderr for consistency with CLI logging guidelines
	rootCmd.SetOut(os.Stderr)

	rootCmd.SetVersionTemplate(fmt.Sprintf("%s\n",
		console.FormatInfoMessage(fmt.Sprintf("%s version {{.Version}}", constants.CLIName))))

	rootCmd.AddCommand(cli.NewGuardianCommand())
	rootCmd.AddCommand(cli.NewAnalyzeCommand())
	rootCmd.AddCommand(cli.NewHealthCommand())
	rootCmd.AddCommand(cli.NewIssuesCommand())
	rootCmd.AddCommand(cli.NewCheckAtomicityCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
}
