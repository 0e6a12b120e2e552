package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iberi22/ai-git-core-template/pkg/forge"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func ts(offsetSeconds int) *time.Time {
	t := epoch.Add(time.Duration(offsetSeconds) * time.Second)
	return &t
}

func run(id int64, conclusion string) forge.WorkflowRun {
	return forge.WorkflowRun{
		ID:         id,
		WorkflowID: 1,
		Name:       "ci",
		Status:     "completed",
		Conclusion: conclusion,
		HeadSHA:    "abc",
	}
}

func TestAnalyzeFiltersSuccess(t *testing.T) {
	fake := forge.NewFake()
	fake.Runs = []forge.WorkflowRun{run(1, "success"), run(2, "failure")}
	fake.Jobs[1] = []forge.Job{}
	fake.Jobs[2] = []forge.Job{}

	result, err := New(fake).Analyze(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalRuns)
	assert.Equal(t, 1, result.Failed)

	result, err = New(fake).Analyze(context.Background(), Options{IncludeSuccess: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRuns)
	assert.Equal(t, 1, result.Successful)
}

func TestAnalyzeTimeWindow(t *testing.T) {
	old := run(1, "failure")
	old.CreatedAt = epoch.Add(-48 * time.Hour)
	recent := run(2, "failure")
	recent.CreatedAt = epoch

	fake := forge.NewFake()
	fake.Runs = []forge.WorkflowRun{old, recent}
	fake.Jobs[1] = []forge.Job{}
	fake.Jobs[2] = []forge.Job{}

	result, err := New(fake).Analyze(context.Background(), Options{
		Since: epoch.Add(-24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalRuns)
	assert.Equal(t, int64(2), result.Analyses[0].Run.ID)
}

func TestAnalyzeRunErrorExtraction(t *testing.T) {
	jobs := []forge.Job{
		{
			Name:       "build",
			Conclusion: "failure",
			Steps: []forge.Step{
				{Name: "checkout", Conclusion: "success", Number: 1},
				{Name: "compile", Conclusion: "failure", Number: 2},
			},
		},
		{Name: "lint", Conclusion: "success"},
		{Name: "e2e", Conclusion: "cancelled"},
	}

	analysis := analyzeRun(run(7, "failure"), jobs)

	assert.Equal(t, []string{
		"Job 'build' failed",
		"  - Step 'compile' failed",
	}, analysis.Errors)
	assert.Equal(t, []string{"Job 'e2e' was cancelled"}, analysis.Warnings)
}

func TestAnalyzeRunDuration(t *testing.T) {
	jobs := []forge.Job{
		{Name: "a", StartedAt: ts(0), CompletedAt: ts(60)},
		{Name: "b", StartedAt: ts(10), CompletedAt: ts(90)},
	}
	analysis := analyzeRun(run(1, "success"), jobs)
	require.NotNil(t, analysis.DurationSeconds)
	assert.Equal(t, int64(90), *analysis.DurationSeconds)

	// Missing timestamps yield no duration.
	analysis = analyzeRun(run(2, "success"), []forge.Job{{Name: "a"}})
	assert.Nil(t, analysis.DurationSeconds)

	analysis = analyzeRun(run(3, "success"), nil)
	assert.Nil(t, analysis.DurationSeconds)
}

func TestAnalyzeDropsFailedFetches(t *testing.T) {
	fake := forge.NewFake()
	fake.Runs = []forge.WorkflowRun{run(1, "failure"), run(2, "failure")}
	fake.Jobs[1] = []forge.Job{{Name: "build", Conclusion: "failure"}}
	// run 2 has no jobs entry: the fake returns a 404

	result, err := New(fake).Analyze(context.Background(), Options{})
	require.NoError(t, err)
	assert.True(t, result.Incomplete)
	assert.Equal(t, 1, result.TotalRuns)
}

func TestAnalyzeOrdersAnalysesByRunID(t *testing.T) {
	fake := forge.NewFake()
	fake.Runs = []forge.WorkflowRun{run(3, "failure"), run(9, "failure"), run(5, "failure")}
	for _, id := range []int64{3, 9, 5} {
		fake.Jobs[id] = []forge.Job{}
	}

	result, err := New(fake).Analyze(context.Background(), Options{MaxParallel: 2})
	require.NoError(t, err)
	require.Len(t, result.Analyses, 3)
	assert.Equal(t, int64(9), result.Analyses[0].Run.ID)
	assert.Equal(t, int64(5), result.Analyses[1].Run.ID)
	assert.Equal(t, int64(3), result.Analyses[2].Run.ID)
}

func TestAggregateCounts(t *testing.T) {
	analyses := []RunAnalysis{
		{Run: run(1, "success")},
		{Run: run(2, "failure")},
		{Run: run(3, "cancelled")},
		{Run: run(4, "timed_out")},
	}
	result := Aggregate(analyses)

	assert.Equal(t, 4, result.TotalRuns)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Cancelled)
	assert.LessOrEqual(t, result.Successful+result.Failed+result.Cancelled, result.TotalRuns)
}

func TestErrorFrequencyOrdering(t *testing.T) {
	analyses := []RunAnalysis{
		{Run: run(1, "failure"), Errors: []string{"Job 'build' failed", "Job 'lint' failed"}},
		{Run: run(2, "failure"), Errors: []string{"Job 'build' failed"}},
		{Run: run(3, "failure"), Errors: []string{"Job 'build' failed", "Job 'lint' failed"}},
	}
	result := Aggregate(analyses)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, ErrorCount{Message: "Job 'build' failed", Count: 3}, result.Errors[0])
	assert.Equal(t, ErrorCount{Message: "Job 'lint' failed", Count: 2}, result.Errors[1])
}

func durationPtr(v int64) *int64 { return &v }

func TestPerformanceStats(t *testing.T) {
	analyses := []RunAnalysis{
		{Run: run(1, "success"), DurationSeconds: durationPtr(100)},
		{Run: run(2, "success"), DurationSeconds: durationPtr(300)},
		{Run: run(3, "success")}, // no duration: excluded from stats
		{Run: run(4, "success"), DurationSeconds: durationPtr(200)},
	}
	perf := Aggregate(analyses).Performance

	assert.InDelta(t, 200.0, perf.AvgDurationSeconds, 0.001)
	assert.Equal(t, int64(300), perf.MaxDurationSeconds)
	assert.Equal(t, int64(100), perf.MinDurationSeconds)
	require.Len(t, perf.Slowest, 3)
	assert.Equal(t, int64(300), perf.Slowest[0].Seconds)
}

func TestSlowestTruncatesToFive(t *testing.T) {
	var analyses []RunAnalysis
	for i := int64(1); i <= 8; i++ {
		analyses = append(analyses, RunAnalysis{Run: run(i, "success"), DurationSeconds: durationPtr(i * 10)})
	}
	perf := Aggregate(analyses).Performance
	require.Len(t, perf.Slowest, 5)
	assert.Equal(t, int64(80), perf.Slowest[0].Seconds)
	assert.Equal(t, int64(40), perf.Slowest[4].Seconds)
}

func TestParallelEfficiency(t *testing.T) {
	t.Run("fully parallel jobs score 1.0", func(t *testing.T) {
		analyses := []RunAnalysis{{
			Run:             run(1, "success"),
			DurationSeconds: durationPtr(100),
			Jobs: []forge.Job{
				{Name: "a", StartedAt: ts(0), CompletedAt: ts(100)},
				{Name: "b", StartedAt: ts(0), CompletedAt: ts(100)},
			},
		}}
		assert.InDelta(t, 1.0, parallelEfficiency(analyses), 0.001)
	})

	t.Run("sequential jobs score 1/n", func(t *testing.T) {
		analyses := []RunAnalysis{{
			Run:             run(1, "success"),
			DurationSeconds: durationPtr(100),
			Jobs: []forge.Job{
				{Name: "a", StartedAt: ts(0), CompletedAt: ts(50)},
				{Name: "b", StartedAt: ts(50), CompletedAt: ts(100)},
			},
		}}
		assert.InDelta(t, 0.5, parallelEfficiency(analyses), 0.001)
	})

	t.Run("single-job runs are skipped", func(t *testing.T) {
		analyses := []RunAnalysis{{
			Run:             run(1, "success"),
			DurationSeconds: durationPtr(100),
			Jobs:            []forge.Job{{Name: "a", StartedAt: ts(0), CompletedAt: ts(100)}},
		}}
		assert.InDelta(t, 1.0, parallelEfficiency(analyses), 0.001)
	})

	t.Run("jobs without timestamps are skipped", func(t *testing.T) {
		analyses := []RunAnalysis{{
			Run:             run(1, "success"),
			DurationSeconds: durationPtr(100),
			Jobs:            []forge.Job{{Name: "a"}, {Name: "b"}},
		}}
		assert.InDelta(t, 1.0, parallelEfficiency(analyses), 0.001)
	})

	t.Run("efficiency is capped at 1.0 per sample", func(t *testing.T) {
		analyses := []RunAnalysis{{
			Run:             run(1, "success"),
			DurationSeconds: durationPtr(10),
			Jobs: []forge.Job{
				{Name: "a", StartedAt: ts(0), CompletedAt: ts(100)},
				{Name: "b", StartedAt: ts(0), CompletedAt: ts(100)},
			},
		}}
		assert.InDelta(t, 1.0, parallelEfficiency(analyses), 0.001)
	})
}

func TestRecommendationsOrder(t *testing.T) {
	analyses := []RunAnalysis{
		{Run: run(1, "failure"), DurationSeconds: durationPtr(400),
			Jobs: []forge.Job{
				{Name: "a", StartedAt: ts(0), CompletedAt: ts(200)},
				{Name: "b", StartedAt: ts(200), CompletedAt: ts(400)},
			}},
		{Run: run(2, "cancelled"), DurationSeconds: durationPtr(400)},
	}
	result := Aggregate(analyses)

	require.Len(t, result.Recommendations, 4)
	assert.Contains(t, result.Recommendations[0], "1 workflow runs failed")
	assert.Contains(t, result.Recommendations[1], "Consider parallelizing")
	assert.Contains(t, result.Recommendations[2], "Low parallel efficiency")
	assert.Contains(t, result.Recommendations[3], "Check for timeouts")
}

func TestRecommendationsEmptyOnHealthyRuns(t *testing.T) {
	analyses := []RunAnalysis{
		{Run: run(1, "success"), DurationSeconds: durationPtr(60)},
	}
	result := Aggregate(analyses)
	assert.Empty(t, result.Recommendations)
}

func TestHealthGroupsByWorkflow(t *testing.T) {
	fake := forge.NewFake()
	fake.Runs = []forge.WorkflowRun{
		{ID: 1, WorkflowID: 10, Name: "ci", Conclusion: "success"},
		{ID: 2, WorkflowID: 10, Name: "ci", Conclusion: "failure"},
		{ID: 3, WorkflowID: 10, Name: "ci", Conclusion: "success"},
		{ID: 4, WorkflowID: 20, Name: "release", Conclusion: "success"},
	}

	report, err := New(fake).Health(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, report.Workflows, 2)

	ci := report.Workflows[0]
	assert.Equal(t, "ci", ci.Name)
	assert.Equal(t, 3, ci.Total)
	assert.Equal(t, 2, ci.Successful)
	assert.Equal(t, 1, ci.Failed)
	assert.InDelta(t, 66.7, ci.HealthPct, 0.1)

	release := report.Workflows[1]
	assert.InDelta(t, 100.0, release.HealthPct, 0.001)
}

func TestToMarkdownContainsSections(t *testing.T) {
	result := Aggregate([]RunAnalysis{
		{Run: run(1, "failure"), Errors: []string{"Job 'build' failed"}, DurationSeconds: durationPtr(30)},
	})
	md := result.ToMarkdown()

	assert.Contains(t, md, "# Workflow Analysis Report")
	assert.Contains(t, md, "| Total Runs | 1 |")
	assert.Contains(t, md, "Job 'build' failed")
	assert.Contains(t, md, "## Recommendations")
}
