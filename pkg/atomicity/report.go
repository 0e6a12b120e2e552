package atomicity

import (
	"fmt"
	"strings"

	"github.com/iberi22/ai-git-core-template/pkg/console"
)

// ToMarkdown renders the result as a markdown report.
func (r *Result) ToMarkdown() string {
	var b strings.Builder

	b.WriteString("# Commit Atomicity Report\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Total commits | %d |\n", r.TotalCommits)
	fmt.Fprintf(&b, "| Atomic | %d |\n", r.AtomicCommits)
	fmt.Fprintf(&b, "| Non-atomic | %d |\n", r.NonAtomicCommits)
	fmt.Fprintf(&b, "| Skipped (bots) | %d |\n", r.SkippedCommits)

	if r.NonAtomicCommits > 0 {
		b.WriteString("\n## Non-atomic commits\n\n")
		for _, a := range r.Analyses {
			if a.Skipped || a.IsAtomic {
				continue
			}
			concerns := make([]string, 0, len(a.Concerns))
			for _, c := range a.Concerns {
				concerns = append(concerns, string(c))
			}
			fmt.Fprintf(&b, "- `%s` %s — mixes %s\n", a.Commit.ShortSHA, a.Commit.Message, strings.Join(concerns, ", "))
		}
	}

	return b.String()
}

// ToTerminal renders the result for interactive console output.
func (r *Result) ToTerminal() string {
	var b strings.Builder

	b.WriteString(console.RenderTable(console.TableConfig{
		Title:   "Commit Atomicity",
		Headers: []string{"Total", "Atomic", "Non-atomic", "Skipped"},
		Rows: [][]string{{
			fmt.Sprintf("%d", r.TotalCommits),
			fmt.Sprintf("%d", r.AtomicCommits),
			fmt.Sprintf("%d", r.NonAtomicCommits),
			fmt.Sprintf("%d", r.SkippedCommits),
		}},
	}))

	for _, a := range r.Analyses {
		if a.Skipped || a.IsAtomic {
			continue
		}
		concerns := make([]string, 0, len(a.Concerns))
		for _, c := range a.Concerns {
			concerns = append(concerns, string(c))
		}
		b.WriteString(console.FormatWarningMessage(fmt.Sprintf(
			"%s %s mixes %d concerns: %s",
			a.Commit.ShortSHA, console.TruncateString(a.Commit.Message, 60),
			len(a.Concerns), strings.Join(concerns, ", "))) + "\n")
	}

	return b.String()
}
