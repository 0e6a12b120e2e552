// Package atomicity categorizes the files of each commit in a range into
// concerns and gates on commits that mix more than the configured number.
package atomicity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/iberi22/ai-git-core-template/pkg/constants"
	"github.com/iberi22/ai-git-core-template/pkg/logger"
	"github.com/iberi22/ai-git-core-template/pkg/sliceutil"
)

var log = logger.New("atomicity:analyzer")

// maxParallelCommits bounds the per-commit analysis fan-out.
const maxParallelCommits = 8

// CommitAnalysis is the outcome for a single commit.
type CommitAnalysis struct {
	Commit     CommitInfo `json:"commit"`
	Concerns   []Concern  `json:"concerns"`
	IsAtomic   bool       `json:"is_atomic"`
	Skipped    bool       `json:"skipped"`
	SkipReason string     `json:"skip_reason,omitempty"`
}

// Result aggregates the analyses of a commit range.
type Result struct {
	TotalCommits     int              `json:"total_commits"`
	AtomicCommits    int              `json:"atomic_commits"`
	NonAtomicCommits int              `json:"non_atomic_commits"`
	SkippedCommits   int              `json:"skipped_commits"`
	HasIssues        bool             `json:"has_issues"`
	Analyses         []CommitAnalysis `json:"analyses"`
}

// ExitCode maps the result onto the CI exit-code contract for the given mode.
func (r *Result) ExitCode(mode Mode) int {
	if mode == ModeError && r.HasIssues {
		return constants.ExitEscalate
	}
	return constants.ExitOK
}

// Checker analyzes commit ranges against a configuration.
type Checker struct {
	git    GitLog
	config *Config
}

// NewChecker creates a checker; a nil config uses the defaults.
func NewChecker(git GitLog, config *Config) *Checker {
	if config == nil {
		config = DefaultConfig()
	}
	return &Checker{git: git, config: config}
}

// Check analyzes every commit in base..head. Per-commit analysis is pure and
// runs in parallel; the result preserves commit order.
func (c *Checker) Check(ctx context.Context, base, head string) (*Result, error) {
	log.Printf("analyzing commits %s..%s", base, head)

	commits, err := c.git.CommitsBetween(ctx, base, head)
	if err != nil {
		return nil, fmt.Errorf("listing commits %s..%s: %w", base, head, err)
	}
	if len(commits) == 0 {
		log.Print("no commits to analyze")
		return &Result{}, nil
	}

	p := pool.NewWithResults[CommitAnalysis]().WithMaxGoroutines(maxParallelCommits)
	for _, commit := range commits {
		commit := commit
		p.Go(func() CommitAnalysis {
			return c.analyzeCommit(commit)
		})
	}
	analyses := p.Wait()

	// The pool returns results in completion order; restore commit order.
	position := make(map[string]int, len(commits))
	for i, commit := range commits {
		position[commit.SHA] = i
	}
	sort.SliceStable(analyses, func(i, j int) bool {
		return position[analyses[i].Commit.SHA] < position[analyses[j].Commit.SHA]
	})

	return summarize(analyses), nil
}

// AnalyzeCommit analyzes a single commit by SHA.
func (c *Checker) AnalyzeCommit(ctx context.Context, sha string) (CommitAnalysis, error) {
	commit, err := c.git.Commit(ctx, sha)
	if err != nil {
		return CommitAnalysis{}, err
	}
	return c.analyzeCommit(commit), nil
}

func summarize(analyses []CommitAnalysis) *Result {
	result := &Result{
		TotalCommits: len(analyses),
		Analyses:     analyses,
	}
	for _, a := range analyses {
		switch {
		case a.Skipped:
			result.SkippedCommits++
		case a.IsAtomic:
			result.AtomicCommits++
		default:
			result.NonAtomicCommits++
		}
	}
	result.HasIssues = result.NonAtomicCommits > 0
	return result
}

// analyzeCommit gathers the concern set over non-ignored files. Bot commits
// are exempt and count as atomic.
func (c *Checker) analyzeCommit(commit CommitInfo) CommitAnalysis {
	if c.config.IsBotAuthor(commit.Author) {
		log.Printf("%s skipped (bot: %s)", commit.ShortSHA, commit.Author)
		return CommitAnalysis{
			Commit:     commit,
			IsAtomic:   true,
			Skipped:    true,
			SkipReason: "bot author",
		}
	}

	seen := make(map[Concern]bool)
	for _, file := range commit.Files {
		if c.config.ShouldIgnore(file) {
			continue
		}
		seen[c.Categorize(file)] = true
	}

	concerns := make([]Concern, 0, len(seen))
	for concern := range seen {
		concerns = append(concerns, concern)
	}
	sort.Slice(concerns, func(i, j int) bool { return concerns[i] < concerns[j] })

	isAtomic := len(concerns) <= c.config.MaxConcerns
	if !isAtomic {
		log.Printf("%s mixes %d concerns: %v", commit.ShortSHA, len(concerns), concerns)
	}

	return CommitAnalysis{
		Commit:   commit,
		Concerns: concerns,
		IsAtomic: isAtomic,
	}
}

var configExtensions = []string{".yml", ".yaml", ".json", ".toml", ".ini", ".cfg"}

var sourceExtensions = []string{
	".rs", ".py", ".js", ".ts", ".jsx", ".tsx",
	".go", ".java", ".kt", ".swift", ".c", ".cpp",
	".h", ".hpp", ".cs", ".rb", ".php", ".scala",
}

// Categorize assigns a concern to a file path; the first matching rule wins.
// For a fixed configuration the result depends only on the path.
func (c *Checker) Categorize(path string) Concern {
	for _, rule := range c.config.CustomRules {
		if rule.re != nil && rule.re.MatchString(path) {
			return rule.Concern
		}
	}

	if strings.HasPrefix(path, "tests/") || strings.HasPrefix(path, "test/") ||
		sliceutil.ContainsAny(path, ".test.", ".spec.", "_test.") ||
		strings.HasPrefix(path, "test_") {
		return ConcernTests
	}

	if strings.HasPrefix(path, "docs/") || strings.HasSuffix(path, ".md") {
		return ConcernDocs
	}

	if strings.HasPrefix(path, ".github/workflows/") || strings.HasPrefix(path, "scripts/") {
		return ConcernInfra
	}

	if isConfigFile(path) {
		return ConcernConfig
	}

	if strings.HasPrefix(path, "src/") || strings.HasPrefix(path, "lib/") || isSourceFile(path) {
		return ConcernSource
	}

	return ConcernOther
}

func isConfigFile(path string) bool {
	for _, ext := range configExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	basename := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		basename = path[idx+1:]
	}
	if strings.HasPrefix(basename, ".") {
		return true
	}
	return strings.HasPrefix(basename, "config") || strings.HasPrefix(basename, "settings")
}

func isSourceFile(path string) bool {
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
