// Package cli wires the cores to cobra commands. Commands construct a
// request from flags and environment, invoke exactly one core operation, and
// render the result; no business logic lives here.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iberi22/ai-git-core-template/pkg/forge"
	"github.com/iberi22/ai-git-core-template/pkg/repoutil"
)

// IsRunningInCI checks if we're running in a CI environment
func IsRunningInCI() bool {
	ciVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
	}

	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// newForgeClient builds the GitHub forge client from the --repo override or
// the GITHUB_REPOSITORY environment variable.
func newForgeClient(repoOverride string) (forge.Client, error) {
	var owner, repo string
	var err error

	if repoOverride != "" {
		owner, repo, err = repoutil.SplitRepoSlug(repoOverride)
	} else {
		owner, repo, err = repoutil.CurrentRepoSlug()
	}
	if err != nil {
		return nil, fmt.Errorf("resolving repository: %w (use --repo owner/repo)", err)
	}

	return forge.NewGitHub(forge.GitHubOptions{Owner: owner, Repo: repo})
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}
