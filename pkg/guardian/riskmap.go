package guardian

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// PathRisk is the risk declared for one path pattern.
type PathRisk struct {
	Risk   int    `json:"risk"`
	Reason string `json:"reason"`
}

// RiskMap maps glob-like path patterns to risk scores. The highest risk of
// any pattern matching any changed file becomes the pull request's raw risk.
type RiskMap struct {
	Paths map[string]PathRisk `json:"paths"`
}

// LoadRiskMap reads a risk map from disk. A missing file yields an empty map.
func LoadRiskMap(path string) (*RiskMap, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RiskMap{Paths: map[string]PathRisk{}}, nil
		}
		return nil, fmt.Errorf("reading risk map %s: %w", path, err)
	}

	var rm RiskMap
	if err := json.Unmarshal(content, &rm); err != nil {
		return nil, fmt.Errorf("parsing risk map %s: %w", path, err)
	}
	if rm.Paths == nil {
		rm.Paths = map[string]PathRisk{}
	}
	for pattern, pr := range rm.Paths {
		if pr.Risk < 0 || pr.Risk > 100 {
			return nil, fmt.Errorf("risk map %s: pattern %q risk %d out of range 0..100", path, pattern, pr.Risk)
		}
	}
	return &rm, nil
}

// MaxRisk returns the highest risk of any pattern matching any of the files,
// 0 when nothing matches.
func (rm *RiskMap) MaxRisk(files []string) int {
	if rm == nil || len(rm.Paths) == 0 {
		return 0
	}

	maxRisk := 0
	for _, file := range files {
		for pattern, pr := range rm.Paths {
			if matchPattern(pattern, file) && pr.Risk > maxRisk {
				maxRisk = pr.Risk
			}
		}
	}
	return maxRisk
}

// matchPattern matches a glob-like pattern against a POSIX path. `*` matches
// any run of characters except `/`, `?` matches one character, anything else
// is literal. A pattern without `/` is matched against the basename only.
// Matching is case-sensitive.
func matchPattern(pattern, file string) bool {
	target := file
	if !strings.Contains(pattern, "/") {
		if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
			target = file[idx+1:]
		}
	}
	return globMatch(pattern, target)
}

func globMatch(pattern, s string) bool {
	// Iterative matching with single-star backtracking.
	pi, si := 0, 0
	starPi, starSi := -1, -1

	for si < len(s) {
		switch {
		case pi < len(pattern) && pattern[pi] == '*':
			starPi, starSi = pi, si
			pi++
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]) && s[si] != '/':
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == s[si]:
			// '/' must match literally
			pi++
			si++
		case starPi >= 0 && s[starSi] != '/':
			// backtrack: let the star consume one more byte
			starSi++
			pi = starPi + 1
			si = starSi
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
