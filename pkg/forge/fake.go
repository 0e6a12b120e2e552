package forge

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Client used by tests across the repository. Fixture
// data is assigned directly to the exported maps; mutations are recorded so
// tests can assert on the executed side effects.
type Fake struct {
	mu sync.Mutex

	Pulls     map[int64]*PullRequest
	Reviews   map[int64][]Review
	Files     map[int64][]ChangedFile
	CheckRuns map[string][]CheckRun
	Issues    map[int64]*Issue
	Runs      []WorkflowRun
	Jobs      map[int64][]Job
	Contents  map[string][]byte

	// NextIssueNumber seeds the numbers returned by CreateIssue.
	NextIssueNumber int64

	// Err, when set, is returned by every call. FailOn scopes the failure to
	// one operation name.
	Err    error
	FailOn string

	Comments      map[int64][]string
	AddedLabels   map[int64][]string
	MergedPulls   []int64
	CreatedIssues []NewIssue
	UpdatedIssues map[int64]IssueUpdate
}

// NewFake returns an empty fake forge.
func NewFake() *Fake {
	return &Fake{
		Pulls:           make(map[int64]*PullRequest),
		Reviews:         make(map[int64][]Review),
		Files:           make(map[int64][]ChangedFile),
		CheckRuns:       make(map[string][]CheckRun),
		Issues:          make(map[int64]*Issue),
		Jobs:            make(map[int64][]Job),
		Contents:        make(map[string][]byte),
		Comments:        make(map[int64][]string),
		AddedLabels:     make(map[int64][]string),
		UpdatedIssues:   make(map[int64]IssueUpdate),
		NextIssueNumber: 1,
	}
}

func (f *Fake) fail(operation string) error {
	if f.Err != nil && (f.FailOn == "" || f.FailOn == operation) {
		return f.Err
	}
	return nil
}

func (f *Fake) GetPull(ctx context.Context, number int64) (*PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("get pull"); err != nil {
		return nil, err
	}
	pr, ok := f.Pulls[number]
	if !ok {
		return nil, &APIError{Operation: "get pull", StatusCode: 404, Err: fmt.Errorf("no pull %d", number)}
	}
	clone := *pr
	return &clone, nil
}

func (f *Fake) ListReviews(ctx context.Context, number int64) ([]Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list reviews"); err != nil {
		return nil, err
	}
	return append([]Review(nil), f.Reviews[number]...), nil
}

func (f *Fake) ListFiles(ctx context.Context, number int64) ([]ChangedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list files"); err != nil {
		return nil, err
	}
	return append([]ChangedFile(nil), f.Files[number]...), nil
}

func (f *Fake) ListCheckRuns(ctx context.Context, sha string) ([]CheckRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list check runs"); err != nil {
		return nil, err
	}
	return append([]CheckRun(nil), f.CheckRuns[sha]...), nil
}

func (f *Fake) ListPulls(ctx context.Context, state IssueState) ([]PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list pulls"); err != nil {
		return nil, err
	}
	var pulls []PullRequest
	for _, pr := range f.Pulls {
		if state == IssueAll || pr.State == string(state) {
			pulls = append(pulls, *pr)
		}
	}
	return pulls, nil
}

func (f *Fake) AddComment(ctx context.Context, number int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("add comment"); err != nil {
		return err
	}
	f.Comments[number] = append(f.Comments[number], body)
	return nil
}

func (f *Fake) AddLabels(ctx context.Context, number int64, labels []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("add labels"); err != nil {
		return err
	}
	f.AddedLabels[number] = append(f.AddedLabels[number], labels...)
	return nil
}

func (f *Fake) Merge(ctx context.Context, number int64, strategy MergeStrategy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("merge"); err != nil {
		return err
	}
	pr, ok := f.Pulls[number]
	if !ok {
		return &APIError{Operation: "merge", StatusCode: 404, Err: fmt.Errorf("no pull %d", number)}
	}
	if pr.Mergeable != nil && !*pr.Mergeable {
		return fmt.Errorf("%w: pull %d", ErrNotMergeable, number)
	}
	pr.Merged = true
	f.MergedPulls = append(f.MergedPulls, number)
	return nil
}

func (f *Fake) CreateIssue(ctx context.Context, issue NewIssue) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("create issue"); err != nil {
		return 0, err
	}
	number := f.NextIssueNumber
	f.NextIssueNumber++
	labels := make([]Label, 0, len(issue.Labels))
	for _, name := range issue.Labels {
		labels = append(labels, Label{Name: name})
	}
	f.Issues[number] = &Issue{Number: number, Title: issue.Title, State: "open", Labels: labels}
	f.CreatedIssues = append(f.CreatedIssues, issue)
	return number, nil
}

func (f *Fake) UpdateIssue(ctx context.Context, number int64, update IssueUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("update issue"); err != nil {
		return err
	}
	issue, ok := f.Issues[number]
	if !ok {
		return &APIError{Operation: "update issue", StatusCode: 404, Err: fmt.Errorf("no issue %d", number)}
	}
	issue.Title = update.Title
	f.UpdatedIssues[number] = update
	return nil
}

func (f *Fake) ListIssues(ctx context.Context, state IssueState, assignee string) ([]Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list issues"); err != nil {
		return nil, err
	}
	var issues []Issue
	for _, issue := range f.Issues {
		if state == IssueAll || issue.State == string(state) {
			issues = append(issues, *issue)
		}
	}
	return issues, nil
}

func (f *Fake) ListWorkflowRuns(ctx context.Context, limit int) ([]WorkflowRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list workflow runs"); err != nil {
		return nil, err
	}
	runs := append([]WorkflowRun(nil), f.Runs...)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (f *Fake) ListJobs(ctx context.Context, runID int64) ([]Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list jobs"); err != nil {
		return nil, err
	}
	jobs, ok := f.Jobs[runID]
	if !ok {
		return nil, &APIError{Operation: "list jobs", StatusCode: 404, Err: fmt.Errorf("no run %d", runID)}
	}
	return append([]Job(nil), jobs...), nil
}

func (f *Fake) GetFile(ctx context.Context, ref, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("get file"); err != nil {
		return nil, err
	}
	content, ok := f.Contents[path]
	if !ok {
		return nil, &APIError{Operation: "get file", StatusCode: 404, Err: fmt.Errorf("no file %s", path)}
	}
	return append([]byte(nil), content...), nil
}

// CloseIssue marks a fake issue closed, for pull-phase tests.
func (f *Fake) CloseIssue(number int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if issue, ok := f.Issues[number]; ok {
		issue.State = "closed"
	}
}

var _ Client = (*Fake)(nil)
