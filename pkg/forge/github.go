package forge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"

	"github.com/iberi22/ai-git-core-template/pkg/constants"
	"github.com/iberi22/ai-git-core-template/pkg/logger"
	"github.com/iberi22/ai-git-core-template/pkg/ratelimit"
)

var log = logger.New("forge:github")

// DefaultTimeout bounds every individual API call.
const DefaultTimeout = 30 * time.Second

// GitHubOptions configures the GitHub-backed forge client.
type GitHubOptions struct {
	Owner string
	Repo  string
	// Token overrides GITHUB_TOKEN discovery when set.
	Token string
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

// GitHub implements Client against the GitHub REST API.
type GitHub struct {
	rest  *api.RESTClient
	owner string
	repo  string
}

// NewGitHub builds a forge client for one repository. The bearer token is
// taken from opts.Token, falling back to the GITHUB_TOKEN environment
// variable.
func NewGitHub(opts GitHubOptions) (*GitHub, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("forge: owner and repo are required")
	}

	token := opts.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("forge: no token provided and GITHUB_TOKEN is not set")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rest, err := api.NewRESTClient(api.ClientOptions{
		AuthToken: token,
		Timeout:   timeout,
		Headers: map[string]string{
			"User-Agent":           constants.UserAgent,
			"X-GitHub-Api-Version": constants.GitHubAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("forge: creating REST client: %w", err)
	}

	return &GitHub{rest: rest, owner: opts.Owner, repo: opts.Repo}, nil
}

func (g *GitHub) path(format string, args ...any) string {
	return fmt.Sprintf("repos/%s/%s", g.owner, g.repo) + fmt.Sprintf(format, args...)
}

// do wraps a REST call with rate limiting and error classification.
func (g *GitHub) do(ctx context.Context, operation, method, path string, body any, response any) error {
	if err := ratelimit.Wait(ctx, ratelimit.OperationGitHubAPI); err != nil {
		return err
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("forge: encoding %s request: %w", operation, err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	log.Printf("%s %s", method, path)
	if err := g.rest.DoWithContext(ctx, method, path, reader, response); err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) {
			return &APIError{Operation: operation, StatusCode: httpErr.StatusCode, Err: err}
		}
		return &APIError{Operation: operation, Err: err}
	}
	return nil
}

// GetPull fetches a single pull request.
func (g *GitHub) GetPull(ctx context.Context, number int64) (*PullRequest, error) {
	var pr PullRequest
	if err := g.do(ctx, "get pull", http.MethodGet, g.path("/pulls/%d", number), nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// ListReviews fetches all reviews of a pull request.
func (g *GitHub) ListReviews(ctx context.Context, number int64) ([]Review, error) {
	var reviews []Review
	path := g.path("/pulls/%d/reviews?per_page=100", number)
	if err := g.do(ctx, "list reviews", http.MethodGet, path, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListFiles fetches the changed files of a pull request.
func (g *GitHub) ListFiles(ctx context.Context, number int64) ([]ChangedFile, error) {
	var files []ChangedFile
	path := g.path("/pulls/%d/files?per_page=100", number)
	if err := g.do(ctx, "list files", http.MethodGet, path, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListCheckRuns fetches the check runs for a commit SHA.
func (g *GitHub) ListCheckRuns(ctx context.Context, sha string) ([]CheckRun, error) {
	var response struct {
		CheckRuns []CheckRun `json:"check_runs"`
	}
	path := g.path("/commits/%s/check-runs?per_page=100", sha)
	if err := g.do(ctx, "list check runs", http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.CheckRuns, nil
}

// ListPulls fetches pull requests in the given state.
func (g *GitHub) ListPulls(ctx context.Context, state IssueState) ([]PullRequest, error) {
	var pulls []PullRequest
	path := g.path("/pulls?state=%s&per_page=100", state)
	if err := g.do(ctx, "list pulls", http.MethodGet, path, nil, &pulls); err != nil {
		return nil, err
	}
	return pulls, nil
}

// AddComment posts a comment on an issue or pull request.
func (g *GitHub) AddComment(ctx context.Context, number int64, body string) error {
	payload := map[string]string{"body": body}
	return g.do(ctx, "add comment", http.MethodPost, g.path("/issues/%d/comments", number), payload, nil)
}

// AddLabels attaches labels to an issue or pull request. Adding a label that
// is already present is a no-op on the forge side.
func (g *GitHub) AddLabels(ctx context.Context, number int64, labels []string) error {
	payload := map[string][]string{"labels": labels}
	return g.do(ctx, "add labels", http.MethodPost, g.path("/issues/%d/labels", number), payload, nil)
}

// Merge merges a pull request using the given strategy. A 405 response maps
// to ErrNotMergeable so callers can downgrade the decision.
func (g *GitHub) Merge(ctx context.Context, number int64, strategy MergeStrategy) error {
	payload := map[string]string{"merge_method": string(strategy)}
	err := g.do(ctx, "merge", http.MethodPut, g.path("/pulls/%d/merge", number), payload, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusMethodNotAllowed {
			return fmt.Errorf("%w: %v", ErrNotMergeable, err)
		}
		return err
	}
	return nil
}

// CreateIssue opens a new issue and returns its number.
func (g *GitHub) CreateIssue(ctx context.Context, issue NewIssue) (int64, error) {
	var created struct {
		Number int64 `json:"number"`
	}
	if err := g.do(ctx, "create issue", http.MethodPost, g.path("/issues"), issue, &created); err != nil {
		return 0, err
	}
	return created.Number, nil
}

// UpdateIssue rewrites the title, body, and labels of an existing issue.
// Assignees are left untouched.
func (g *GitHub) UpdateIssue(ctx context.Context, number int64, update IssueUpdate) error {
	return g.do(ctx, "update issue", http.MethodPatch, g.path("/issues/%d", number), update, nil)
}

// ListIssues fetches issues in the given state, excluding pull requests.
func (g *GitHub) ListIssues(ctx context.Context, state IssueState, assignee string) ([]Issue, error) {
	var raw []struct {
		Issue
		PullRequest *json.RawMessage `json:"pull_request"`
	}

	path := g.path("/issues?state=%s&per_page=100", state)
	if assignee != "" {
		path += "&assignee=" + url.QueryEscape(assignee)
	}
	if err := g.do(ctx, "list issues", http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	// The issues endpoint interleaves pull requests; drop them.
	issues := make([]Issue, 0, len(raw))
	for _, item := range raw {
		if item.PullRequest == nil {
			issues = append(issues, item.Issue)
		}
	}
	return issues, nil
}

// ListWorkflowRuns fetches up to limit recent workflow runs.
func (g *GitHub) ListWorkflowRuns(ctx context.Context, limit int) ([]WorkflowRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var response struct {
		WorkflowRuns []WorkflowRun `json:"workflow_runs"`
	}
	path := g.path("/actions/runs?per_page=%d", limit)
	if err := g.do(ctx, "list workflow runs", http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.WorkflowRuns, nil
}

// ListJobs fetches the jobs of a workflow run.
func (g *GitHub) ListJobs(ctx context.Context, runID int64) ([]Job, error) {
	var response struct {
		Jobs []Job `json:"jobs"`
	}
	path := g.path("/actions/runs/%d/jobs?per_page=100", runID)
	if err := g.do(ctx, "list jobs", http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Jobs, nil
}

// GetFile downloads a file's contents at the given ref.
func (g *GitHub) GetFile(ctx context.Context, ref, path string) ([]byte, error) {
	var response struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}

	endpoint := g.path("/contents/%s", strings.TrimPrefix(path, "/"))
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}
	if err := g.do(ctx, "get file", http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	if response.Encoding != "base64" {
		return []byte(response.Content), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(response.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("forge: decoding file content: %w", err)
	}
	return decoded, nil
}
