package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iberi22/ai-git-core-template/pkg/atomicity"
	"github.com/iberi22/ai-git-core-template/pkg/console"
	"github.com/iberi22/ai-git-core-template/pkg/constants"
)

// NewCheckAtomicityCommand creates the check-atomicity command.
func NewCheckAtomicityCommand() *cobra.Command {
	var (
		baseRef        string
		headRef        string
		commitSHA      string
		configPath     string
		repoPath       string
		jsonOutput     bool
		markdownOutput bool
	)

	cmd := &cobra.Command{
		Use:   "check-atomicity",
		Short: "Check that each commit touches a single concern",
		Long: `Analyze the commits between a base and head ref and flag commits that
mix more than the configured number of concerns (source, tests, docs,
config, infra).

In error mode the process exits 1 when non-atomic commits are found.`,
		Args:    cobra.NoArgs,
		GroupID: "analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := atomicity.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if !config.Enabled {
				fmt.Fprintln(os.Stderr, console.FormatInfoMessage("Atomicity check is disabled"))
				return nil
			}

			git := atomicity.NewExecGit(repoPath)
			checker := atomicity.NewChecker(git, config)

			if commitSHA != "" {
				analysis, err := checker.AnalyzeCommit(cmd.Context(), commitSHA)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(analysis)
				}
				if analysis.IsAtomic {
					fmt.Fprintln(os.Stderr, console.FormatSuccessMessage(fmt.Sprintf(
						"%s is atomic (%v)", analysis.Commit.ShortSHA, analysis.Concerns)))
				} else {
					fmt.Fprintln(os.Stderr, console.FormatWarningMessage(fmt.Sprintf(
						"%s mixes %d concerns: %v", analysis.Commit.ShortSHA, len(analysis.Concerns), analysis.Concerns)))
					if config.Mode == atomicity.ModeError {
						os.Exit(constants.ExitEscalate)
					}
				}
				return nil
			}

			base := baseRef
			if base == "" {
				base = os.Getenv("GITHUB_BASE_REF")
			}
			if base == "" {
				base, err = git.DefaultBranch(cmd.Context())
				if err != nil {
					return err
				}
			}

			result, err := checker.Check(cmd.Context(), base, headRef)
			if err != nil {
				return err
			}

			switch {
			case jsonOutput:
				if printErr := printJSON(result); printErr != nil {
					return printErr
				}
			case markdownOutput:
				fmt.Print(result.ToMarkdown())
			default:
				fmt.Print(result.ToTerminal())
			}

			if code := result.ExitCode(config.Mode); code != constants.ExitOK {
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", "", "Base ref (defaults to GITHUB_BASE_REF, then the default branch)")
	cmd.Flags().StringVar(&headRef, "head", "HEAD", "Head ref")
	cmd.Flags().StringVar(&commitSHA, "commit", "", "Analyze a single commit instead of a range")
	cmd.Flags().StringVar(&configPath, "config", constants.DefaultAtomicityConfigPath, "Path to the atomicity config file")
	cmd.Flags().StringVar(&repoPath, "repo-path", ".", "Path to the git repository")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the result as JSON")
	cmd.Flags().BoolVar(&markdownOutput, "markdown", false, "Emit the result as markdown")

	return cmd
}
