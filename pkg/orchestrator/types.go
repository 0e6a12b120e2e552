package orchestrator

import "github.com/iberi22/ai-git-core-template/pkg/forge"

// RunAnalysis is the per-run result of walking a workflow run's jobs.
type RunAnalysis struct {
	Run             forge.WorkflowRun `json:"run"`
	Jobs            []forge.Job       `json:"-"`
	Errors          []string          `json:"errors"`
	Warnings        []string          `json:"warnings"`
	DurationSeconds *int64            `json:"duration_seconds"`
}

// ErrorCount is one row of the error frequency table.
type ErrorCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// SlowRun names one of the slowest runs.
type SlowRun struct {
	Name    string `json:"name"`
	Seconds int64  `json:"seconds"`
}

// Performance aggregates per-run durations.
type Performance struct {
	AvgDurationSeconds float64   `json:"avg_duration_seconds"`
	MaxDurationSeconds int64     `json:"max_duration_seconds"`
	MinDurationSeconds int64     `json:"min_duration_seconds"`
	Slowest            []SlowRun `json:"slowest"`
	ParallelEfficiency float64   `json:"parallel_efficiency"`
}

// AnalysisResult is the aggregate outcome of one analysis operation.
type AnalysisResult struct {
	TotalRuns       int           `json:"total_runs"`
	Successful      int           `json:"successful"`
	Failed          int           `json:"failed"`
	Cancelled       int           `json:"cancelled"`
	Incomplete      bool          `json:"incomplete"`
	Errors          []ErrorCount  `json:"errors"`
	Performance     Performance   `json:"performance"`
	Recommendations []string      `json:"recommendations"`
	Analyses        []RunAnalysis `json:"-"`
}

// WorkflowHealth is the per-workflow row of a health report.
type WorkflowHealth struct {
	WorkflowID int64   `json:"workflow_id"`
	Name       string  `json:"name"`
	Total      int     `json:"total"`
	Successful int     `json:"successful"`
	Failed     int     `json:"failed"`
	HealthPct  float64 `json:"health_pct"`
}

// HealthReport groups recent runs by workflow.
type HealthReport struct {
	Workflows []WorkflowHealth `json:"workflows"`
}
