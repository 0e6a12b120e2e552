package orchestrator

import (
	"fmt"
	"strings"

	"github.com/iberi22/ai-git-core-template/pkg/console"
)

// ToMarkdown renders the analysis result as a markdown report.
func (r *AnalysisResult) ToMarkdown() string {
	var b strings.Builder

	b.WriteString("# Workflow Analysis Report\n\n")
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Total Runs | %d |\n", r.TotalRuns)
	fmt.Fprintf(&b, "| Successful | %d |\n", r.Successful)
	fmt.Fprintf(&b, "| Failed | %d |\n", r.Failed)
	fmt.Fprintf(&b, "| Cancelled | %d |\n", r.Cancelled)
	if r.Incomplete {
		b.WriteString("| Incomplete | yes |\n")
	}
	b.WriteString("\n## Performance\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Average Duration | %.1fs |\n", r.Performance.AvgDurationSeconds)
	fmt.Fprintf(&b, "| Max Duration | %ds |\n", r.Performance.MaxDurationSeconds)
	fmt.Fprintf(&b, "| Min Duration | %ds |\n", r.Performance.MinDurationSeconds)
	fmt.Fprintf(&b, "| Parallel Efficiency | %.1f%% |\n", r.Performance.ParallelEfficiency*100)

	if len(r.Performance.Slowest) > 0 {
		b.WriteString("\n## Slowest Runs\n\n")
		for _, s := range r.Performance.Slowest {
			fmt.Fprintf(&b, "- %s (%ds)\n", s.Name, s.Seconds)
		}
	}

	if len(r.Errors) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "- %s (×%d)\n", e.Message, e.Count)
		}
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("\n## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	return b.String()
}

// ToTerminal renders the analysis result for interactive console output.
func (r *AnalysisResult) ToTerminal() string {
	var b strings.Builder

	b.WriteString(console.RenderTable(console.TableConfig{
		Title:   "Workflow Analysis",
		Headers: []string{"Total", "Success", "Failed", "Cancelled"},
		Rows: [][]string{{
			fmt.Sprintf("%d", r.TotalRuns),
			fmt.Sprintf("%d", r.Successful),
			fmt.Sprintf("%d", r.Failed),
			fmt.Sprintf("%d", r.Cancelled),
		}},
	}))

	fmt.Fprintf(&b, "Avg duration: %.1fs  Max: %ds  Min: %ds  Parallel efficiency: %.1f%%\n",
		r.Performance.AvgDurationSeconds,
		r.Performance.MaxDurationSeconds,
		r.Performance.MinDurationSeconds,
		r.Performance.ParallelEfficiency*100)

	if r.Incomplete {
		b.WriteString(console.FormatWarningMessage("Some runs could not be fetched; results are partial") + "\n")
	}

	for _, e := range r.Errors {
		b.WriteString(console.FormatErrorMessage(fmt.Sprintf("%s (×%d)", e.Message, e.Count)) + "\n")
	}
	for _, rec := range r.Recommendations {
		b.WriteString(console.FormatInfoMessage(rec) + "\n")
	}

	return b.String()
}

// ToTerminal renders the health report as a table.
func (h *HealthReport) ToTerminal() string {
	rows := make([][]string, 0, len(h.Workflows))
	for _, w := range h.Workflows {
		rows = append(rows, []string{
			console.TruncateString(w.Name, 40),
			fmt.Sprintf("%d", w.Successful),
			fmt.Sprintf("%d", w.Failed),
			fmt.Sprintf("%d", w.Total),
			fmt.Sprintf("%.1f%%", w.HealthPct),
		})
	}
	return console.RenderTable(console.TableConfig{
		Title:   "Workflow Health",
		Headers: []string{"Workflow", "Success", "Failed", "Total", "Health"},
		Rows:    rows,
	})
}
