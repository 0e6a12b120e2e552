// Package orchestrator ingests recent CI workflow runs, fans out per-run job
// fetches under a bounded concurrency budget, and aggregates error clusters,
// timing statistics, and recommendations.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"

	"github.com/iberi22/ai-git-core-template/pkg/forge"
	"github.com/iberi22/ai-git-core-template/pkg/logger"
)

var log = logger.New("orchestrator:analyze")

const (
	// DefaultLimit bounds how many recent runs are ingested.
	DefaultLimit = 50
	// DefaultMaxParallel is the shared concurrency budget for forge calls.
	DefaultMaxParallel = 10
)

// Options selects the runs to analyze and the concurrency degree. Runs are
// selected by count, and optionally narrowed to a time window.
type Options struct {
	// Limit is the maximum number of recent runs to ingest; DefaultLimit
	// when zero.
	Limit int
	// Since drops runs created before this instant when non-zero.
	Since time.Time
	// IncludeSuccess keeps runs whose conclusion is success.
	IncludeSuccess bool
	// MaxParallel is the semaphore capacity shared by all forge calls of one
	// analysis; DefaultMaxParallel when zero.
	MaxParallel int
}

// Orchestrator analyzes workflow runs through the forge port.
type Orchestrator struct {
	forge forge.Client
}

// New creates an orchestrator.
func New(client forge.Client) *Orchestrator {
	return &Orchestrator{forge: client}
}

// Analyze ingests recent runs and produces the aggregate result. A single
// per-run fetch failure drops that run and sets Incomplete; only the initial
// listing failure aborts the operation.
func (o *Orchestrator) Analyze(ctx context.Context, opts Options) (*AnalysisResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}

	runs, err := o.forge.ListWorkflowRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing workflow runs: %w", err)
	}
	log.Printf("fetched %d workflow runs", len(runs))

	filtered := runs[:0]
	for _, run := range runs {
		if !opts.IncludeSuccess && run.Conclusion == "success" {
			continue
		}
		if !opts.Since.IsZero() && run.CreatedAt.Before(opts.Since) {
			continue
		}
		filtered = append(filtered, run)
	}
	runs = filtered
	log.Printf("analyzing %d runs with max_parallel=%d", len(runs), maxParallel)

	// One semaphore budgets every forge call made for this analysis.
	sem := semaphore.NewWeighted(int64(maxParallel))

	p := pool.NewWithResults[*RunAnalysis]().WithMaxGoroutines(maxParallel)
	for _, run := range runs {
		run := run
		p.Go(func() *RunAnalysis {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			jobs, err := o.forge.ListJobs(ctx, run.ID)
			sem.Release(1)
			if err != nil {
				log.Printf("dropping run %d: %v", run.ID, err)
				return nil
			}
			return analyzeRun(run, jobs)
		})
	}
	collected := p.Wait()

	analyses := make([]RunAnalysis, 0, len(collected))
	for _, a := range collected {
		if a != nil {
			analyses = append(analyses, *a)
		}
	}
	// Completion order is nondeterministic; run id fixes the output order.
	sort.Slice(analyses, func(i, j int) bool { return analyses[i].Run.ID > analyses[j].Run.ID })

	result := Aggregate(analyses)
	result.Incomplete = len(analyses) < len(runs)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("analysis interrupted: %w", err)
	}
	return result, nil
}

// analyzeRun extracts errors, warnings, and duration from one run's jobs.
func analyzeRun(run forge.WorkflowRun, jobs []forge.Job) *RunAnalysis {
	analysis := &RunAnalysis{Run: run, Jobs: jobs}

	for _, job := range jobs {
		switch job.Conclusion {
		case "failure":
			analysis.Errors = append(analysis.Errors, fmt.Sprintf("Job '%s' failed", job.Name))
			for _, step := range job.Steps {
				if step.Conclusion == "failure" {
					analysis.Errors = append(analysis.Errors, fmt.Sprintf("  - Step '%s' failed", step.Name))
				}
			}
		case "cancelled":
			analysis.Warnings = append(analysis.Warnings, fmt.Sprintf("Job '%s' was cancelled", job.Name))
		}
	}

	if len(jobs) > 0 {
		first := jobs[0]
		last := jobs[len(jobs)-1]
		if first.StartedAt != nil && last.CompletedAt != nil {
			seconds := int64(last.CompletedAt.Sub(*first.StartedAt).Seconds())
			analysis.DurationSeconds = &seconds
		}
	}

	return analysis
}

// Health groups recent runs by workflow and reports per-workflow success
// rates.
func (o *Orchestrator) Health(ctx context.Context, limit int) (*HealthReport, error) {
	if limit <= 0 {
		limit = 100
	}
	runs, err := o.forge.ListWorkflowRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing workflow runs: %w", err)
	}

	byWorkflow := make(map[int64]*WorkflowHealth)
	for _, run := range runs {
		wh, ok := byWorkflow[run.WorkflowID]
		if !ok {
			wh = &WorkflowHealth{WorkflowID: run.WorkflowID, Name: run.Name}
			byWorkflow[run.WorkflowID] = wh
		}
		wh.Total++
		switch run.Conclusion {
		case "success":
			wh.Successful++
		case "failure":
			wh.Failed++
		}
	}

	report := &HealthReport{Workflows: make([]WorkflowHealth, 0, len(byWorkflow))}
	for _, wh := range byWorkflow {
		if wh.Total > 0 {
			wh.HealthPct = float64(wh.Successful) / float64(wh.Total) * 100
		} else {
			wh.HealthPct = 100
		}
		report.Workflows = append(report.Workflows, *wh)
	}
	sort.Slice(report.Workflows, func(i, j int) bool {
		return report.Workflows[i].WorkflowID < report.Workflows[j].WorkflowID
	})
	return report, nil
}
