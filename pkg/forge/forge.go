// Package forge defines the port to the remote code-hosting service and its
// GitHub implementation. Cores depend only on the Client interface; tests use
// the in-memory Fake.
package forge

import "context"

// Client is the typed surface the cores use to talk to the forge. Every call
// honors context cancellation and carries a per-call timeout.
type Client interface {
	GetPull(ctx context.Context, number int64) (*PullRequest, error)
	ListReviews(ctx context.Context, number int64) ([]Review, error)
	ListFiles(ctx context.Context, number int64) ([]ChangedFile, error)
	ListCheckRuns(ctx context.Context, sha string) ([]CheckRun, error)
	ListPulls(ctx context.Context, state IssueState) ([]PullRequest, error)

	AddComment(ctx context.Context, number int64, body string) error
	AddLabels(ctx context.Context, number int64, labels []string) error
	Merge(ctx context.Context, number int64, strategy MergeStrategy) error

	CreateIssue(ctx context.Context, issue NewIssue) (int64, error)
	UpdateIssue(ctx context.Context, number int64, update IssueUpdate) error
	ListIssues(ctx context.Context, state IssueState, assignee string) ([]Issue, error)

	ListWorkflowRuns(ctx context.Context, limit int) ([]WorkflowRun, error)
	ListJobs(ctx context.Context, runID int64) ([]Job, error)

	GetFile(ctx context.Context, ref, path string) ([]byte, error)
}
