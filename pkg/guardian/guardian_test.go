package guardian

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iberi22/ai-git-core-template/pkg/forge"
)

// seedPull installs a PR snapshot with passing CI and one approval unless
// overridden by the caller.
func seedPull(fake *forge.Fake, number int64, mutate func(pr *forge.PullRequest)) {
	mergeable := true
	pr := &forge.PullRequest{
		Number:    number,
		State:     "open",
		Additions: 50,
		Deletions: 20,
		Mergeable: &mergeable,
		Head:      forge.Ref{Name: "feature", SHA: "abc123"},
	}
	if mutate != nil {
		mutate(pr)
	}
	fake.Pulls[number] = pr
	fake.Reviews[number] = []forge.Review{{ID: 1, State: forge.ReviewApproved}}
	fake.CheckRuns["abc123"] = []forge.CheckRun{{Name: "ci", Conclusion: "success"}}
}

func setFiles(fake *forge.Fake, number int64, files ...string) {
	changed := make([]forge.ChangedFile, 0, len(files))
	for _, f := range files {
		changed = append(changed, forge.ChangedFile{Filename: f})
	}
	fake.Files[number] = changed
}

func TestEvaluateCleanMerge(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 101, nil)
	setFiles(fake, 101, "src/a.rs", "src/b.rs")

	engine := New(fake, Options{})
	decision, err := engine.Evaluate(context.Background(), 101, true)
	require.NoError(t, err)

	// 40 (ci) + 40 (reviews) - 0 - 0 + 0 (no tests) + 10 (single scope)
	assert.Equal(t, KindMerge, decision.Kind)
	assert.Equal(t, 90, decision.Confidence)
}

func TestEvaluateTestsMixedScope(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 102, func(pr *forge.PullRequest) {
		pr.Additions = 150
		pr.Deletions = 50
	})
	setFiles(fake, 102, "src/x.rs", "tests/y.rs")

	engine := New(fake, Options{})
	decision, err := engine.Evaluate(context.Background(), 102, true)
	require.NoError(t, err)

	// 40 + 40 - 0 - 5 + 15 + 0
	assert.Equal(t, KindMerge, decision.Kind)
	assert.Equal(t, 90, decision.Confidence)
}

func TestEvaluateBigDiffAtThreshold(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 103, func(pr *forge.PullRequest) {
		pr.Additions = 400
		pr.Deletions = 200
	})
	setFiles(fake, 103, "src/x.rs", "src/y.rs", "src/z.rs")

	// 80 - 20 + 0 + 10 = 70: merge at threshold 70, escalate at 71
	decision, err := New(fake, Options{Threshold: 70}).Evaluate(context.Background(), 103, true)
	require.NoError(t, err)
	assert.Equal(t, KindMerge, decision.Kind)
	assert.Equal(t, 70, decision.Confidence)

	decision, err = New(fake, Options{Threshold: 71}).Evaluate(context.Background(), 103, true)
	require.NoError(t, err)
	assert.Equal(t, KindEscalate, decision.Kind)
	assert.Equal(t, 70, decision.Confidence)
}

func TestEvaluateBlockedLabels(t *testing.T) {
	for _, label := range []string{LabelNeedsHuman, LabelHighStakes} {
		t.Run(label, func(t *testing.T) {
			fake := forge.NewFake()
			seedPull(fake, 104, func(pr *forge.PullRequest) {
				pr.Labels = []forge.Label{{Name: label}}
			})
			// CI failing must not matter: blockers short-circuit scoring.
			fake.CheckRuns["abc123"] = []forge.CheckRun{{Name: "ci", Conclusion: "failure"}}

			decision, err := New(fake, Options{}).Evaluate(context.Background(), 104, true)
			require.NoError(t, err)
			assert.Equal(t, KindBlock, decision.Kind)
			assert.Contains(t, decision.Reason, label)
			assert.Equal(t, 0, decision.Confidence)
		})
	}
}

func TestEvaluateCIFailure(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 105, nil)
	fake.CheckRuns["abc123"] = []forge.CheckRun{{Name: "ci", Conclusion: "failure"}}

	decision, err := New(fake, Options{}).Evaluate(context.Background(), 105, true)
	require.NoError(t, err)
	assert.Equal(t, KindEscalate, decision.Kind)
	assert.Equal(t, "CI checks failed", decision.Reason)
	assert.Equal(t, 0, decision.Confidence)
}

func TestEvaluateReviewGate(t *testing.T) {
	t.Run("no approvals", func(t *testing.T) {
		fake := forge.NewFake()
		seedPull(fake, 106, nil)
		fake.Reviews[106] = []forge.Review{{ID: 1, State: forge.ReviewCommented}}

		decision, err := New(fake, Options{}).Evaluate(context.Background(), 106, true)
		require.NoError(t, err)
		assert.Equal(t, KindEscalate, decision.Kind)
		assert.Equal(t, "No approved reviews", decision.Reason)
		assert.Equal(t, 40, decision.Confidence)
	})

	t.Run("changes requested beat approval", func(t *testing.T) {
		fake := forge.NewFake()
		seedPull(fake, 107, nil)
		fake.Reviews[107] = []forge.Review{
			{ID: 1, State: forge.ReviewApproved},
			{ID: 2, State: forge.ReviewChangesRequested},
		}

		decision, err := New(fake, Options{}).Evaluate(context.Background(), 107, true)
		require.NoError(t, err)
		assert.Equal(t, KindEscalate, decision.Kind)
		assert.Equal(t, 40, decision.Confidence)
	})
}

func TestEvaluateRiskPenalty(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 108, nil)
	setFiles(fake, 108, "src/auth/login.go", "src/auth/token.go")

	rm := &RiskMap{Paths: map[string]PathRisk{
		"src/auth/*": {Risk: 80, Reason: "authentication"},
	}}

	decision, err := New(fake, Options{RiskMap: rm}).Evaluate(context.Background(), 108, true)
	require.NoError(t, err)
	// 80 - min(80/10, 10) + 10 (single scope) = 82
	assert.Equal(t, KindMerge, decision.Kind)
	assert.Equal(t, 82, decision.Confidence)
}

func TestScoreBaseline(t *testing.T) {
	// Total lines <= 100, no tests, no risk, multiple top-level scopes:
	// final confidence must be exactly 80.
	engine := New(forge.NewFake(), Options{})
	decision := engine.Score(&PullData{
		Number:    1,
		Reviews:   []forge.ReviewState{forge.ReviewApproved},
		Additions: 40,
		Deletions: 30,
		Files:     []string{"src/a.go", "docs/b.md"},
		CIPassed:  true,
	})
	assert.Equal(t, 80, decision.Confidence)
	assert.Equal(t, KindMerge, decision.Kind)
}

func TestScoreMonotonicity(t *testing.T) {
	engine := New(forge.NewFake(), Options{RiskMap: &RiskMap{Paths: map[string]PathRisk{
		"src/db/*": {Risk: 100, Reason: "schema"},
	}}})

	base := &PullData{
		Number:    1,
		Reviews:   []forge.ReviewState{forge.ReviewApproved},
		Additions: 40,
		Files:     []string{"src/a.go", "docs/b.md"},
		CIPassed:  true,
	}
	baseline := engine.Score(base)

	withTests := *base
	withTests.Files = append([]string{"tests/a_test.go"}, base.Files...)
	assert.GreaterOrEqual(t, engine.Score(&withTests).Confidence, baseline.Confidence,
		"adding tests must never decrease confidence")

	withRisk := *base
	withRisk.Files = append([]string{"src/db/schema.go"}, base.Files...)
	assert.LessOrEqual(t, engine.Score(&withRisk).Confidence, baseline.Confidence,
		"adding risk-mapped files must never increase confidence")
}

func TestScoreConfidenceBounds(t *testing.T) {
	engine := New(forge.NewFake(), Options{RiskMap: &RiskMap{Paths: map[string]PathRisk{
		"*": {Risk: 100, Reason: "everything"},
	}}})

	cases := []*PullData{
		{Number: 1, CIPassed: false},
		{Number: 2, CIPassed: true},
		{Number: 3, CIPassed: true, Reviews: []forge.ReviewState{forge.ReviewApproved},
			Additions: 10000, Files: []string{"a", "b"}},
		{Number: 4, CIPassed: true, Reviews: []forge.ReviewState{forge.ReviewApproved},
			Files: []string{"tests/a_test.go", "tests/b_test.go"}},
	}
	for _, data := range cases {
		d := engine.Score(data)
		assert.GreaterOrEqual(t, d.Confidence, 0)
		assert.LessOrEqual(t, d.Confidence, 100)
	}
}

func TestSizePenaltyBoundaries(t *testing.T) {
	tests := []struct {
		additions, deletions, expected int
	}{
		{0, 0, 0},
		{50, 50, 0},
		{100, 0, 0},
		{101, 0, 5},
		{150, 150, 5},
		{300, 0, 5},
		{301, 0, 10},
		{400, 100, 10},
		{500, 0, 10},
		{501, 0, 20},
		{600, 600, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SizePenalty(tt.additions, tt.deletions),
			"additions=%d deletions=%d", tt.additions, tt.deletions)
	}
}

func TestHasTests(t *testing.T) {
	assert.True(t, HasTests([]string{"src/main.rs", "tests/test_main.rs"}))
	assert.True(t, HasTests([]string{"lib/view.spec.ts"}))
	assert.True(t, HasTests([]string{"src/util_test.go"}))
	assert.False(t, HasTests([]string{"src/main.rs"}))
	assert.False(t, HasTests(nil))
}

func TestIsSingleScope(t *testing.T) {
	assert.True(t, IsSingleScope([]string{"src/main.rs", "src/lib.rs"}))
	assert.False(t, IsSingleScope([]string{"src/main.rs", "tests/test.rs"}))
	assert.False(t, IsSingleScope([]string{"src/main.rs"}), "single file gets no bonus")
	assert.False(t, IsSingleScope(nil))
	assert.True(t, IsSingleScope([]string{"README", "README"}), "bare files are their own segment")
}

func TestExecuteMergePostsCommentThenMerges(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 201, nil)
	setFiles(fake, 201, "src/a.go", "src/b.go")

	decision, err := New(fake, Options{}).Evaluate(context.Background(), 201, false)
	require.NoError(t, err)
	assert.Equal(t, KindMerge, decision.Kind)

	require.Len(t, fake.Comments[201], 1)
	assert.Contains(t, fake.Comments[201][0], "Auto-merge approved")
	assert.Equal(t, []int64{201}, fake.MergedPulls)
}

func TestExecuteMergeIdempotentWhenAlreadyMerged(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 202, func(pr *forge.PullRequest) { pr.Merged = true })
	setFiles(fake, 202, "src/a.go", "src/b.go")

	decision, err := New(fake, Options{}).Evaluate(context.Background(), 202, false)
	require.NoError(t, err)
	assert.Equal(t, KindMerge, decision.Kind)
	assert.Empty(t, fake.MergedPulls, "no merge call for an already-merged PR")
	assert.Empty(t, fake.Comments[202])
}

func TestExecuteMergeDowngradesWhenNotMergeable(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 203, func(pr *forge.PullRequest) {
		notMergeable := false
		pr.Mergeable = &notMergeable
	})
	setFiles(fake, 203, "src/a.go", "src/b.go")

	decision, err := New(fake, Options{}).Evaluate(context.Background(), 203, false)
	require.NoError(t, err)
	assert.Equal(t, KindEscalate, decision.Kind)
	assert.Equal(t, "not mergeable", decision.Reason)
	assert.Empty(t, fake.MergedPulls)
	assert.Contains(t, fake.AddedLabels[203], LabelNeedsHuman)
}

func TestExecuteEscalateAddsLabel(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 204, nil)
	fake.Reviews[204] = nil // no approvals
	setFiles(fake, 204, "src/a.go")

	decision, err := New(fake, Options{}).Evaluate(context.Background(), 204, false)
	require.NoError(t, err)
	assert.Equal(t, KindEscalate, decision.Kind)

	require.Len(t, fake.Comments[204], 1)
	assert.Contains(t, fake.Comments[204][0], "Manual review required")
	assert.Equal(t, []string{LabelNeedsHuman}, fake.AddedLabels[204])
}

func TestExecuteBlockOnlyComments(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 205, func(pr *forge.PullRequest) {
		pr.Labels = []forge.Label{{Name: LabelHighStakes}}
	})

	decision, err := New(fake, Options{}).Evaluate(context.Background(), 205, false)
	require.NoError(t, err)
	assert.Equal(t, KindBlock, decision.Kind)
	require.Len(t, fake.Comments[205], 1)
	assert.Contains(t, fake.Comments[205][0], "PR blocked")
	assert.Empty(t, fake.AddedLabels[205])
	assert.Empty(t, fake.MergedPulls)
}

func TestFetchErrorProducesNoDecision(t *testing.T) {
	fake := forge.NewFake()
	fake.Err = errors.New("network down")

	_, err := New(fake, Options{}).Evaluate(context.Background(), 301, true)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, int64(301), fetchErr.PR)
}

func TestActionErrorPreservesDecision(t *testing.T) {
	fake := forge.NewFake()
	seedPull(fake, 302, nil)
	setFiles(fake, 302, "src/a.go", "src/b.go")
	fake.Err = errors.New("comment rejected")
	fake.FailOn = "add comment"

	decision, err := New(fake, Options{}).Evaluate(context.Background(), 302, false)

	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, KindMerge, actionErr.Decision.Kind)
	assert.Equal(t, KindMerge, decision.Kind)
	assert.Equal(t, 90, decision.Confidence)
}

func TestEvaluateRejectsInvalidNumber(t *testing.T) {
	_, err := New(forge.NewFake(), Options{}).Evaluate(context.Background(), 0, true)
	assert.Error(t, err)
}

func TestDecisionJSON(t *testing.T) {
	tests := []struct {
		decision Decision
		expected string
	}{
		{Merge(90), `{"kind":"merge","confidence":90}`},
		{Escalate("CI checks failed", 0), `{"kind":"escalate","confidence":0,"reason":"CI checks failed"}`},
		{Block("high-stakes label detected"), `{"kind":"block","reason":"high-stakes label detected"}`},
	}
	for _, tt := range tests {
		out, err := tt.decision.MarshalJSON()
		require.NoError(t, err)
		assert.JSONEq(t, tt.expected, string(out))
	}
}

func TestDecisionExitCodes(t *testing.T) {
	assert.Equal(t, 0, Merge(90).ExitCode())
	assert.Equal(t, 1, Escalate("low", 50).ExitCode())
	assert.Equal(t, 2, Block("label").ExitCode())
}
