package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iberi22/ai-git-core-template/pkg/console"
	"github.com/iberi22/ai-git-core-template/pkg/orchestrator"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	var (
		repoOverride   string
		limit          int
		lastHours      int
		includeSuccess bool
		maxParallel    int
		jsonOutput     bool
		markdownOutput bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze recent CI workflow runs",
		Long: `Fetch recent workflow runs, analyze their jobs in parallel, and report
error clusters, timing statistics, and recommendations.`,
		Args:    cobra.NoArgs,
		GroupID: "analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newForgeClient(repoOverride)
			if err != nil {
				return err
			}

			var since time.Time
			if lastHours > 0 {
				since = time.Now().Add(-time.Duration(lastHours) * time.Hour)
			}

			spin := console.NewSpinner("Analyzing workflow runs...")
			spin.Start()
			result, err := orchestrator.New(client).Analyze(cmd.Context(), orchestrator.Options{
				Limit:          limit,
				Since:          since,
				IncludeSuccess: includeSuccess,
				MaxParallel:    maxParallel,
			})
			spin.Stop()
			if err != nil && result == nil {
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
			return err
		},
	}

	cmd.Flags().StringVarP(&repoOverride, "repo", "R", "", "Repository in owner/repo form (defaults to GITHUB_REPOSITORY)")
	cmd.Flags().IntVar(&limit, "limit", orchestrator.DefaultLimit, "Maximum number of recent runs to ingest")
	cmd.Flags().IntVar(&lastHours, "last-hours", 0, "Only analyze runs created in the last N hours")
	cmd.Flags().BoolVar(&includeSuccess, "include-success", false, "Also analyze successful runs")
	cmd.Flags().IntVar(&maxParallel, "max-parallel", orchestrator.DefaultMaxParallel, "Concurrency budget for API calls")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the analysis as JSON")
	cmd.Flags().BoolVar(&markdownOutput, "markdown", false, "Emit the analysis as markdown")

	return cmd
}

// NewHealthCommand creates the health command.
func NewHealthCommand() *cobra.Command {
	var (
		repoOverride string
		limit        int
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:     "health",
		Short:   "Report per-workflow success rates",
		Args:    cobra.NoArgs,
		GroupID: "analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newForgeClient(repoOverride)
			if err != nil {
				return err
			}

			spin := console.NewSpinner("Checking workflow health...")
			spin.Start()
			report, err := orchestrator.New(client).Health(cmd.Context(), limit)
			spin.Stop()
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(report)
			}
			fmt.Print(report.ToTerminal())
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoOverride, "repo", "R", "", "Repository in owner/repo form (defaults to GITHUB_REPOSITORY)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of recent runs to group")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")

	return cmd
}
