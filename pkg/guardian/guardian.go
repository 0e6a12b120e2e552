// Package guardian implements the confidence-scored auto-merge engine. It
// evaluates a pull request against CI, review, risk, size, test-inclusion,
// and scope signals, and transactionally applies the resulting decision.
package guardian

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iberi22/ai-git-core-template/pkg/forge"
	"github.com/iberi22/ai-git-core-template/pkg/logger"
	"github.com/iberi22/ai-git-core-template/pkg/sliceutil"
)

var log = logger.New("guardian:engine")

// DefaultThreshold is the minimum confidence for an auto-merge.
const DefaultThreshold = 70

// Labels that block auto-merge unconditionally.
const (
	LabelHighStakes = "high-stakes"
	LabelNeedsHuman = "needs-human"
)

// FetchError wraps a forge failure during data gathering. No decision was
// produced.
type FetchError struct {
	PR  int64
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching data for PR #%d: %v", e.PR, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ActionError wraps a forge failure while applying an already-computed
// decision. The decision is preserved so callers can still report it.
type ActionError struct {
	PR       int64
	Decision Decision
	Err      error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("applying %s to PR #%d: %v", e.Decision.Kind, e.PR, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// PullData is the aggregated snapshot the scoring steps consume.
type PullData struct {
	Number    int64
	Labels    []string
	Reviews   []forge.ReviewState
	Additions int
	Deletions int
	Files     []string
	CIPassed  bool
	HeadRef   string
	Merged    bool
	Mergeable *bool
}

// Options configures an Engine.
type Options struct {
	// Threshold is the minimum confidence for auto-merge; DefaultThreshold
	// when zero.
	Threshold int
	// RiskMap may be nil, which is treated as empty.
	RiskMap *RiskMap
	// Strategy selects the merge method; squash when empty.
	Strategy forge.MergeStrategy
}

// Engine evaluates pull requests and applies decisions through the forge.
type Engine struct {
	forge     forge.Client
	riskMap   *RiskMap
	threshold int
	strategy  forge.MergeStrategy
}

// New creates a guardian engine.
func New(client forge.Client, opts Options) *Engine {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = forge.MergeSquash
	}
	return &Engine{
		forge:     client,
		riskMap:   opts.RiskMap,
		threshold: threshold,
		strategy:  strategy,
	}
}

// Evaluate scores the pull request and, unless dryRun is set, applies the
// decision. Fetch failures return a FetchError and no decision; action
// failures return the decision together with an ActionError.
func (e *Engine) Evaluate(ctx context.Context, prNumber int64, dryRun bool) (Decision, error) {
	if prNumber <= 0 {
		return Decision{}, fmt.Errorf("invalid PR number %d", prNumber)
	}

	log.Printf("evaluating PR #%d (dry_run=%v)", prNumber, dryRun)

	data, err := e.fetch(ctx, prNumber)
	if err != nil {
		return Decision{}, &FetchError{PR: prNumber, Err: err}
	}

	decision := e.Score(data)
	log.Printf("PR #%d decision: %s", prNumber, decision)

	if dryRun {
		return decision, nil
	}

	decision, err = e.execute(ctx, data, decision)
	if err != nil {
		return decision, err
	}
	return decision, nil
}

// fetch aggregates the PR snapshot through the forge port.
func (e *Engine) fetch(ctx context.Context, prNumber int64) (*PullData, error) {
	pr, err := e.forge.GetPull(ctx, prNumber)
	if err != nil {
		return nil, err
	}

	reviews, err := e.forge.ListReviews(ctx, prNumber)
	if err != nil {
		return nil, err
	}
	states := make([]forge.ReviewState, 0, len(reviews))
	for _, r := range reviews {
		states = append(states, r.State)
	}

	changed, err := e.forge.ListFiles(ctx, prNumber)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(changed))
	for _, f := range changed {
		files = append(files, f.Filename)
	}

	checks, err := e.forge.ListCheckRuns(ctx, pr.Head.SHA)
	if err != nil {
		return nil, err
	}

	return &PullData{
		Number:    prNumber,
		Labels:    pr.LabelNames(),
		Reviews:   states,
		Additions: pr.Additions,
		Deletions: pr.Deletions,
		Files:     files,
		CIPassed:  forge.ChecksPassed(checks),
		HeadRef:   pr.Head.Name,
		Merged:    pr.Merged,
		Mergeable: pr.Mergeable,
	}, nil
}

// Score runs the deterministic, branch-ordered confidence calculation.
func (e *Engine) Score(data *PullData) Decision {
	if reason := checkBlockers(data.Labels); reason != "" {
		log.Printf("PR #%d blocked: %s", data.Number, reason)
		return Block(reason)
	}

	confidence := 0

	if !data.CIPassed {
		return Escalate("CI checks failed", 0)
	}
	confidence += 40
	log.Printf("CI passed: +40 (total %d)", confidence)

	approved := sliceutil.CountWhere(data.Reviews, func(s forge.ReviewState) bool {
		return s == forge.ReviewApproved
	})
	changesRequested := sliceutil.CountWhere(data.Reviews, func(s forge.ReviewState) bool {
		return s == forge.ReviewChangesRequested
	})
	if approved == 0 || changesRequested > 0 {
		return Escalate("No approved reviews", confidence)
	}
	confidence += 40
	log.Printf("reviews approved: +40 (total %d)", confidence)

	rawRisk := e.riskMap.MaxRisk(data.Files)
	riskPenalty := min(rawRisk/10, 10)
	confidence = max(confidence-riskPenalty, 0)
	log.Printf("risk %d: -%d (total %d)", rawRisk, riskPenalty, confidence)

	sizePenalty := SizePenalty(data.Additions, data.Deletions)
	confidence = max(confidence-sizePenalty, 0)
	log.Printf("size %d: -%d (total %d)", data.Additions+data.Deletions, sizePenalty, confidence)

	if HasTests(data.Files) {
		confidence = min(confidence+15, 100)
		log.Printf("tests included: +15 (total %d)", confidence)
	}

	if IsSingleScope(data.Files) {
		confidence = min(confidence+10, 100)
		log.Printf("single scope: +10 (total %d)", confidence)
	}

	return FromConfidence(confidence, e.threshold)
}

// checkBlockers returns a blocking reason when a never-override label is set.
func checkBlockers(labels []string) string {
	if sliceutil.Contains(labels, LabelHighStakes) {
		return "high-stakes label detected"
	}
	if sliceutil.Contains(labels, LabelNeedsHuman) {
		return "needs-human label detected"
	}
	return ""
}

// SizePenalty maps the total diff size onto the penalty table.
func SizePenalty(additions, deletions int) int {
	total := additions + deletions
	switch {
	case total <= 100:
		return 0
	case total <= 300:
		return 5
	case total <= 500:
		return 10
	default:
		return 20
	}
}

// HasTests reports whether any changed file looks like a test.
func HasTests(files []string) bool {
	for _, f := range files {
		if sliceutil.ContainsAny(f, "test", "spec") || strings.HasPrefix(f, "tests/") {
			return true
		}
	}
	return false
}

// IsSingleScope reports whether at least two files changed and all share the
// same first path segment. A file with no slash is its own segment.
func IsSingleScope(files []string) bool {
	if len(files) < 2 {
		return false
	}
	first := topSegment(files[0])
	for _, f := range files[1:] {
		if topSegment(f) != first {
			return false
		}
	}
	return true
}

func topSegment(path string) string {
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[:idx]
	}
	return path
}

// execute applies the decision: comment first, then label or merge. Merge is
// idempotent (already-merged is success); an unmergeable PR downgrades to an
// escalation before anything is posted.
func (e *Engine) execute(ctx context.Context, data *PullData, decision Decision) (Decision, error) {
	if decision.Kind == KindMerge {
		if data.Merged {
			log.Printf("PR #%d already merged", data.Number)
			return decision, nil
		}
		if data.Mergeable != nil && !*data.Mergeable {
			decision = Escalate("not mergeable", decision.Confidence)
			log.Printf("PR #%d downgraded: %s", data.Number, decision)
		}
	}

	switch decision.Kind {
	case KindMerge:
		comment := fmt.Sprintf(
			"🤖 **Guardian**: Auto-merge approved (confidence: %d%%)\n\nAll checks passed, reviews approved, and confidence threshold met.",
			decision.Confidence)
		if err := e.forge.AddComment(ctx, data.Number, comment); err != nil {
			return decision, &ActionError{PR: data.Number, Decision: decision, Err: err}
		}
		if err := e.forge.Merge(ctx, data.Number, e.strategy); err != nil {
			if errors.Is(err, forge.ErrNotMergeable) {
				return Escalate("not mergeable", decision.Confidence), nil
			}
			return decision, &ActionError{PR: data.Number, Decision: decision, Err: err}
		}
		log.Printf("PR #%d merged", data.Number)

	case KindEscalate:
		comment := fmt.Sprintf(
			"🤖 **Guardian**: Manual review required\n\n**Reason:** %s\n**Confidence:** %d%%\n\nA human reviewer must approve this PR for merge.",
			decision.Reason, decision.Confidence)
		if err := e.forge.AddComment(ctx, data.Number, comment); err != nil {
			return decision, &ActionError{PR: data.Number, Decision: decision, Err: err}
		}
		if err := e.forge.AddLabels(ctx, data.Number, []string{LabelNeedsHuman}); err != nil {
			return decision, &ActionError{PR: data.Number, Decision: decision, Err: err}
		}

	case KindBlock:
		comment := fmt.Sprintf(
			"🤖 **Guardian**: PR blocked\n\n**Reason:** %s\n\nThis PR cannot be auto-merged. Please review the blocking conditions.",
			decision.Reason)
		if err := e.forge.AddComment(ctx, data.Number, comment); err != nil {
			return decision, &ActionError{PR: data.Number, Decision: decision, Err: err}
		}
	}

	return decision, nil
}
