package orchestrator

import (
	"fmt"
	"sort"
)

// slowestCount bounds the slowest-run listing.
const slowestCount = 5

// Aggregate folds per-run analyses into the deterministic summary. The
// output depends only on the set of analyses, not on fetch completion order.
func Aggregate(analyses []RunAnalysis) *AnalysisResult {
	result := &AnalysisResult{
		TotalRuns: len(analyses),
		Analyses:  analyses,
	}

	for _, a := range analyses {
		switch a.Run.Conclusion {
		case "success":
			result.Successful++
		case "failure":
			result.Failed++
		case "cancelled":
			result.Cancelled++
		}
	}

	result.Errors = errorFrequency(analyses)
	result.Performance = performance(analyses)
	result.Recommendations = recommendations(result)
	return result
}

// errorFrequency counts each unique error string across runs, most frequent
// first, ties broken by message.
func errorFrequency(analyses []RunAnalysis) []ErrorCount {
	freq := make(map[string]int)
	for _, a := range analyses {
		for _, message := range a.Errors {
			freq[message]++
		}
	}

	counts := make([]ErrorCount, 0, len(freq))
	for message, count := range freq {
		counts = append(counts, ErrorCount{Message: message, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Message < counts[j].Message
	})
	return counts
}

func performance(analyses []RunAnalysis) Performance {
	perf := Performance{ParallelEfficiency: 1.0}

	var durations []int64
	for _, a := range analyses {
		if a.DurationSeconds != nil {
			durations = append(durations, *a.DurationSeconds)
		}
	}

	if len(durations) > 0 {
		var sum int64
		perf.MinDurationSeconds = durations[0]
		perf.MaxDurationSeconds = durations[0]
		for _, d := range durations {
			sum += d
			if d > perf.MaxDurationSeconds {
				perf.MaxDurationSeconds = d
			}
			if d < perf.MinDurationSeconds {
				perf.MinDurationSeconds = d
			}
		}
		perf.AvgDurationSeconds = float64(sum) / float64(len(durations))
	}

	perf.Slowest = slowestRuns(analyses)
	perf.ParallelEfficiency = parallelEfficiency(analyses)
	return perf
}

// slowestRuns lists the top runs by duration, longest first. Name and run id
// break ties so the listing is stable.
func slowestRuns(analyses []RunAnalysis) []SlowRun {
	type sample struct {
		name    string
		seconds int64
		id      int64
	}
	var samples []sample
	for _, a := range analyses {
		if a.DurationSeconds != nil {
			samples = append(samples, sample{a.Run.Name, *a.DurationSeconds, a.Run.ID})
		}
	}
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].seconds != samples[j].seconds {
			return samples[i].seconds > samples[j].seconds
		}
		if samples[i].name != samples[j].name {
			return samples[i].name < samples[j].name
		}
		return samples[i].id < samples[j].id
	})

	if len(samples) > slowestCount {
		samples = samples[:slowestCount]
	}
	slowest := make([]SlowRun, 0, len(samples))
	for _, s := range samples {
		slowest = append(slowest, SlowRun{Name: s.name, Seconds: s.seconds})
	}
	return slowest
}

// parallelEfficiency measures how close total job time comes to
// duration × job count: 1.0 means every job ran for the whole workflow
// (fully parallel), 1/n means strictly sequential jobs. Runs with fewer than
// two jobs, no positive duration, or jobs missing timestamps are skipped.
func parallelEfficiency(analyses []RunAnalysis) float64 {
	total := 0.0
	samples := 0

	for _, a := range analyses {
		if a.DurationSeconds == nil || *a.DurationSeconds <= 0 || len(a.Jobs) < 2 {
			continue
		}

		var jobSeconds float64
		complete := true
		for _, job := range a.Jobs {
			if job.StartedAt == nil || job.CompletedAt == nil {
				complete = false
				break
			}
			jobSeconds += job.CompletedAt.Sub(*job.StartedAt).Seconds()
		}
		if !complete {
			continue
		}

		duration := float64(*a.DurationSeconds)
		efficiency := jobSeconds / (duration * float64(len(a.Jobs)))
		total += min(efficiency, 1.0)
		samples++
	}

	if samples == 0 {
		return 1.0
	}
	return total / float64(samples)
}

// recommendations derives operator advice in a fixed order.
func recommendations(result *AnalysisResult) []string {
	var recs []string

	if result.Failed > 0 {
		recs = append(recs, fmt.Sprintf("%d workflow runs failed. Review error logs for root cause.", result.Failed))
	}
	if result.Performance.AvgDurationSeconds > 300 {
		recs = append(recs, "Average workflow duration exceeds 5 minutes. Consider parallelizing jobs.")
	}
	if result.Performance.ParallelEfficiency < 0.7 {
		recs = append(recs, "Low parallel efficiency detected. Jobs may be waiting unnecessarily.")
	}
	if result.Cancelled > 0 {
		recs = append(recs, fmt.Sprintf("%d runs were cancelled. Check for timeouts or manual cancellations.", result.Cancelled))
	}

	return recs
}
