package constants

// CLIName is the name used in user-facing output to refer to the CLI
const CLIName = "git-core"

// UserAgent is the User-Agent header sent on every forge API request
const UserAgent = "git-core"

// GitHubAPIVersion is the REST API version pinned on every request
const GitHubAPIVersion = "2022-11-28"

// DefaultRiskMapPath is the repository-relative location of the risk map
const DefaultRiskMapPath = ".gitcore/risk-map.json"

// DefaultIssuesDir is the repository-relative directory scanned for issue files
const DefaultIssuesDir = ".github/issues"

// DefaultMappingFile is the file inside the issues directory that persists the
// file-to-issue mapping
const DefaultMappingFile = ".issue-mapping.json"

// DefaultAtomicityConfigPath is the repository-relative atomicity config file
const DefaultAtomicityConfigPath = ".github/atomicity-config.yml"

// Exit codes shared by the guardian CI mode and the atomicity error mode
const (
	ExitOK       = 0
	ExitEscalate = 1
	ExitBlock    = 2
)
