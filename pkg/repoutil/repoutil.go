// Package repoutil provides utility functions for working with GitHub
// repository slugs and URLs.
package repoutil

import (
	"fmt"
	"os"
	"strings"
)

// SplitRepoSlug splits a repository slug (owner/repo) into owner and repo
// parts. Returns an error if the slug format is invalid.
func SplitRepoSlug(slug string) (owner, repo string, err error) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format: %s", slug)
	}
	return parts[0], parts[1], nil
}

// CurrentRepoSlug resolves the owner/repo pair from the GITHUB_REPOSITORY
// environment variable.
func CurrentRepoSlug() (owner, repo string, err error) {
	slug := os.Getenv("GITHUB_REPOSITORY")
	if slug == "" {
		return "", "", fmt.Errorf("GITHUB_REPOSITORY is not set")
	}
	return SplitRepoSlug(slug)
}

// ParseGitHubRepoURL extracts the owner and repo from a GitHub repository URL.
// Handles both SSH (git@github.com:owner/repo.git) and HTTPS
// (https://github.com/owner/repo.git) formats.
func ParseGitHubRepoURL(url string) (owner, repo string, err error) {
	var repoPath string

	if strings.HasPrefix(url, "git@github.com:") {
		repoPath = strings.TrimPrefix(url, "git@github.com:")
	} else if strings.Contains(url, "github.com/") {
		parts := strings.Split(url, "github.com/")
		if len(parts) >= 2 {
			repoPath = parts[1]
		}
	} else {
		return "", "", fmt.Errorf("URL does not appear to be a GitHub repository: %s", url)
	}

	repoPath = strings.TrimSuffix(repoPath, ".git")
	return SplitRepoSlug(repoPath)
}
