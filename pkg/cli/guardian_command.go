package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iberi22/ai-git-core-template/pkg/console"
	"github.com/iberi22/ai-git-core-template/pkg/constants"
	"github.com/iberi22/ai-git-core-template/pkg/guardian"
)

// NewGuardianCommand creates the guardian command.
func NewGuardianCommand() *cobra.Command {
	var (
		repoOverride string
		riskMapPath  string
		threshold    int
		dryRun       bool
		jsonOutput   bool
		ciMode       bool
	)

	cmd := &cobra.Command{
		Use:   "guardian <pr-number>",
		Short: "Evaluate a pull request for auto-merge",
		Long: `Evaluate a pull request against CI, review, risk, size, test-inclusion,
and scope signals, then merge, escalate, or block it.

With --dry-run the decision is computed and printed but not applied.
With --ci the process exits 1 on escalate and 2 on block.`,
		Args:    cobra.ExactArgs(1),
		GroupID: "execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			prNumber, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || prNumber <= 0 {
				return fmt.Errorf("invalid PR number %q", args[0])
			}

			client, err := newForgeClient(repoOverride)
			if err != nil {
				return err
			}

			riskMap, err := guardian.LoadRiskMap(riskMapPath)
			if err != nil {
				return err
			}

			engine := guardian.New(client, guardian.Options{
				Threshold: threshold,
				RiskMap:   riskMap,
			})

			spin := console.NewSpinner(fmt.Sprintf("Evaluating PR #%d...", prNumber))
			spin.Start()
			decision, err := engine.Evaluate(cmd.Context(), prNumber, dryRun)
			spin.Stop()

			var actionErr *guardian.ActionError
			if err != nil && !errors.As(err, &actionErr) {
				return err
			}

			if jsonOutput {
				if jsonErr := printJSON(decision); jsonErr != nil {
					return jsonErr
				}
			} else {
				switch decision.Kind {
				case guardian.KindMerge:
					fmt.Fprintln(os.Stderr, console.FormatSuccessMessage(decision.String()))
				case guardian.KindEscalate:
					fmt.Fprintln(os.Stderr, console.FormatWarningMessage(decision.String()))
				case guardian.KindBlock:
					fmt.Fprintln(os.Stderr, console.FormatErrorMessage(decision.String()))
				}
			}

			if err != nil {
				// The decision was computed but applying it failed.
				return err
			}
			if ciMode {
				if code := decision.ExitCode(); code != constants.ExitOK {
					os.Exit(code)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&repoOverride, "repo", "R", "", "Repository in owner/repo form (defaults to GITHUB_REPOSITORY)")
	cmd.Flags().StringVar(&riskMapPath, "risk-map", constants.DefaultRiskMapPath, "Path to the risk map file")
	cmd.Flags().IntVar(&threshold, "threshold", guardian.DefaultThreshold, "Minimum confidence for auto-merge")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the decision without applying it")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the decision as JSON")
	cmd.Flags().BoolVar(&ciMode, "ci", false, "Exit 1 on escalate and 2 on block")

	return cmd
}
