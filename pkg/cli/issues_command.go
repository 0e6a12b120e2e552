package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iberi22/ai-git-core-template/pkg/console"
	"github.com/iberi22/ai-git-core-template/pkg/constants"
	"github.com/iberi22/ai-git-core-template/pkg/forge"
	"github.com/iberi22/ai-git-core-template/pkg/issuesync"
)

// NewIssuesCommand creates the issues command with push, pull, and sync
// subcommands.
func NewIssuesCommand() *cobra.Command {
	var (
		repoOverride string
		issuesDir    string
		dryRun       bool
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:     "issues",
		Short:   "Sync issue files with remote issues",
		GroupID: "execution",
		Long: `Reconcile markdown issue files with remote issues. Files map to issues
through a persisted mapping file next to the issue files.

  issues push   create or update remote issues from local files
  issues pull   delete local files whose remote issues were closed
  issues sync   push, then pull`,
	}

	cmd.PersistentFlags().StringVarP(&repoOverride, "repo", "R", "", "Repository in owner/repo form (defaults to GITHUB_REPOSITORY)")
	cmd.PersistentFlags().StringVar(&issuesDir, "dir", constants.DefaultIssuesDir, "Directory containing issue files")
	cmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Report intended changes without applying them")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")

	run := func(ctx context.Context, operation string) error {
		client, err := newForgeClient(repoOverride)
		if err != nil {
			return err
		}
		syncer, err := issuesync.New(client, issuesync.Options{
			IssuesDir: issuesDir,
			DryRun:    dryRun,
		})
		if err != nil {
			return err
		}

		spin := console.NewSpinner(fmt.Sprintf("Running issues %s...", operation))
		spin.Start()
		var report issuesync.Report
		switch operation {
		case "push":
			report, err = syncer.Push(ctx)
		case "pull":
			report, err = syncer.Pull(ctx)
		default:
			report, err = syncer.Sync(ctx)
		}
		spin.Stop()
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(report)
		}
		fmt.Fprintln(os.Stderr, console.FormatSuccessMessage(fmt.Sprintf(
			"%s complete: %d created, %d updated, %d deleted, %d skipped, %d errors",
			operation, report.Created, report.Updated, report.Deleted, report.Skipped, report.Errors)))
		return nil
	}

	for _, op := range []struct{ name, short string }{
		{"push", "Create or update remote issues from local files"},
		{"pull", "Delete local files for closed remote issues"},
		{"sync", "Push local files, then pull closed issues"},
	} {
		op := op
		cmd.AddCommand(&cobra.Command{
			Use:   op.name,
			Short: op.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), op.name)
			},
		})
	}

	cmd.AddCommand(newIssuesCreateCommand(&repoOverride, &issuesDir, &dryRun))
	cmd.AddCommand(newIssuesListCommand(&repoOverride))

	return cmd
}

// newIssuesCreateCommand creates the issues create subcommand.
func newIssuesCreateCommand(repoOverride, issuesDir *string, dryRun *bool) *cobra.Command {
	var (
		title     string
		labels    []string
		assignees []string
		localOnly bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new issue file and push it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename, err := issuesync.CreateFile(*issuesDir, title, labels, assignees)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, console.FormatSuccessMessage("Created "+filename))

			if localOnly {
				return nil
			}

			client, err := newForgeClient(*repoOverride)
			if err != nil {
				return err
			}
			syncer, err := issuesync.New(client, issuesync.Options{
				IssuesDir: *issuesDir,
				DryRun:    *dryRun,
			})
			if err != nil {
				return err
			}
			report, err := syncer.Push(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, console.FormatSuccessMessage(fmt.Sprintf(
				"push complete: %d created, %d updated, %d errors",
				report.Created, report.Updated, report.Errors)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Issue title")
	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Labels to attach")
	cmd.Flags().StringSliceVar(&assignees, "assignee", nil, "Assignees to set on create")
	cmd.Flags().BoolVar(&localOnly, "local-only", false, "Create the file without pushing")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// newIssuesListCommand creates the issues list subcommand.
func newIssuesListCommand(repoOverride *string) *cobra.Command {
	var closed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remote issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newForgeClient(*repoOverride)
			if err != nil {
				return err
			}

			state := forge.IssueOpen
			if closed {
				state = forge.IssueClosed
			}
			issues, err := client.ListIssues(cmd.Context(), state, "")
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				fmt.Fprintln(os.Stderr, console.FormatInfoMessage(fmt.Sprintf("No %s issues found", state)))
				return nil
			}
			for _, issue := range issues {
				fmt.Printf("#%d - %s [%s]\n", issue.Number, issue.Title, issue.State)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&closed, "closed", false, "List closed issues instead of open ones")

	return cmd
}
