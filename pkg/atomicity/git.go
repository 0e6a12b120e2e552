package atomicity

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/iberi22/ai-git-core-template/pkg/gitutil"
	"github.com/iberi22/ai-git-core-template/pkg/ratelimit"
)

// CommitInfo is one commit's identity and changed files.
type CommitInfo struct {
	SHA      string   `json:"sha"`
	ShortSHA string   `json:"short_sha"`
	Author   string   `json:"author"`
	Message  string   `json:"message"`
	Files    []string `json:"files"`
}

// GitLog is the port to the local repository history. Tests use an in-memory
// implementation.
type GitLog interface {
	CommitsBetween(ctx context.Context, base, head string) ([]CommitInfo, error)
	Commit(ctx context.Context, sha string) (CommitInfo, error)
	DefaultBranch(ctx context.Context) (string, error)
}

// ExecGit implements GitLog by invoking the system git binary. Running the
// subprocess keeps authentication and repository quirks with the user's git
// configuration.
type ExecGit struct {
	RepoPath string
}

// NewExecGit creates a GitLog rooted at repoPath ("." when empty).
func NewExecGit(repoPath string) *ExecGit {
	if repoPath == "" {
		repoPath = "."
	}
	return &ExecGit{RepoPath: repoPath}
}

// logFormat emits SHA, author, and subject separated by NUL so author names
// with spaces survive parsing.
const logFormat = "--format=%H%x00%an%x00%s"

func (g *ExecGit) run(ctx context.Context, args ...string) ([]byte, error) {
	if err := ratelimit.Wait(ctx, ratelimit.OperationGitExec); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.RepoPath
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return output, nil
}

// CommitsBetween lists the commits in base..head, oldest last. When the base
// ref is unknown locally it retries with the origin/ prefix.
func (g *ExecGit) CommitsBetween(ctx context.Context, base, head string) ([]CommitInfo, error) {
	output, err := g.run(ctx, "log", logFormat, fmt.Sprintf("%s..%s", base, head))
	if err != nil {
		output, err = g.run(ctx, "log", logFormat, fmt.Sprintf("origin/%s..%s", base, head))
		if err != nil {
			return nil, err
		}
	}
	return g.parseLog(ctx, output)
}

func (g *ExecGit) parseLog(ctx context.Context, output []byte) ([]CommitInfo, error) {
	var commits []CommitInfo
	for _, line := range strings.Split(string(output), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\x00", 3)
		if len(parts) < 3 {
			continue
		}

		files, err := g.commitFiles(ctx, parts[0])
		if err != nil {
			return nil, err
		}
		commits = append(commits, CommitInfo{
			SHA:      parts[0],
			ShortSHA: gitutil.ShortSHA(parts[0]),
			Author:   parts[1],
			Message:  parts[2],
			Files:    files,
		})
	}
	return commits, nil
}

func (g *ExecGit) commitFiles(ctx context.Context, sha string) ([]string, error) {
	output, err := g.run(ctx, "show", "--name-only", "--format=", sha)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(string(output), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// Commit fetches a single commit by SHA.
func (g *ExecGit) Commit(ctx context.Context, sha string) (CommitInfo, error) {
	if !gitutil.IsHexString(sha) {
		return CommitInfo{}, fmt.Errorf("invalid commit SHA %q", sha)
	}
	output, err := g.run(ctx, "log", "-1", logFormat, sha)
	if err != nil {
		return CommitInfo{}, err
	}
	commits, err := g.parseLog(ctx, output)
	if err != nil {
		return CommitInfo{}, err
	}
	if len(commits) == 0 {
		return CommitInfo{}, fmt.Errorf("commit %s not found", sha)
	}
	return commits[0], nil
}

// DefaultBranch resolves the remote HEAD branch, falling back to main then
// master.
func (g *ExecGit) DefaultBranch(ctx context.Context) (string, error) {
	output, err := g.run(ctx, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err == nil {
		branch := strings.TrimSpace(string(output))
		return strings.TrimPrefix(branch, "origin/"), nil
	}

	for _, branch := range []string{"main", "master"} {
		if _, err := g.run(ctx, "rev-parse", "--verify", "origin/"+branch); err == nil {
			return branch, nil
		}
	}
	return "main", nil
}
