package forge

import "time"

// ReviewState is the verdict of a single pull request review.
type ReviewState string

const (
	ReviewApproved         ReviewState = "APPROVED"
	ReviewChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewCommented        ReviewState = "COMMENTED"
	ReviewDismissed        ReviewState = "DISMISSED"
)

// MergeStrategy selects how a pull request is merged.
type MergeStrategy string

const (
	MergeSquash MergeStrategy = "squash"
	MergeCommit MergeStrategy = "merge"
	MergeRebase MergeStrategy = "rebase"
)

// IssueState filters issue listings.
type IssueState string

const (
	IssueOpen   IssueState = "open"
	IssueClosed IssueState = "closed"
	IssueAll    IssueState = "all"
)

// Label is a name attached to an issue or pull request.
type Label struct {
	Name string `json:"name"`
}

// PullRequest is the subset of pull request data the cores consume.
type PullRequest struct {
	Number    int64   `json:"number"`
	Title     string  `json:"title"`
	State     string  `json:"state"`
	Labels    []Label `json:"labels"`
	Additions int     `json:"additions"`
	Deletions int     `json:"deletions"`
	Merged    bool    `json:"merged"`
	Mergeable *bool   `json:"mergeable"`
	Head      Ref     `json:"head"`
	Base      Ref     `json:"base"`
}

// Ref identifies one side of a pull request.
type Ref struct {
	Name string `json:"ref"`
	SHA  string `json:"sha"`
}

// LabelNames returns the label names of the pull request.
func (pr *PullRequest) LabelNames() []string {
	names := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		names = append(names, l.Name)
	}
	return names
}

// Review is a single review on a pull request.
type Review struct {
	ID    int64       `json:"id"`
	State ReviewState `json:"state"`
	User  User        `json:"user"`
}

// User identifies a forge account.
type User struct {
	Login string `json:"login"`
}

// ChangedFile is one file touched by a pull request.
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// CheckRun is the conclusion of a single CI check for a commit.
type CheckRun struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
}

// ChecksPassed reports whether every check-run conclusion is one of success,
// skipped, or neutral. An empty check list counts as passing.
func ChecksPassed(checks []CheckRun) bool {
	for _, c := range checks {
		switch c.Conclusion {
		case "success", "skipped", "neutral":
		default:
			return false
		}
	}
	return true
}

// Issue is the subset of issue data the syncer consumes.
type Issue struct {
	Number int64   `json:"number"`
	Title  string  `json:"title"`
	State  string  `json:"state"`
	Labels []Label `json:"labels"`
}

// NewIssue carries the fields for creating an issue.
type NewIssue struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
}

// IssueUpdate carries the fields for updating an existing issue. Assignees
// are intentionally absent: updates preserve remote assignees.
type IssueUpdate struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// WorkflowRun is one CI workflow execution.
type WorkflowRun struct {
	ID           int64     `json:"id"`
	WorkflowID   int64     `json:"workflow_id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Conclusion   string    `json:"conclusion"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	HeadBranch   string    `json:"head_branch"`
	HeadSHA      string    `json:"head_sha"`
}

// Job is one job within a workflow run.
type Job struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Conclusion  string     `json:"conclusion"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Steps       []Step     `json:"steps"`
}

// Step is one step within a job.
type Step struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	Number     int    `json:"number"`
}
