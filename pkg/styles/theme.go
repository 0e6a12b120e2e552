// Package styles provides centralized style and color definitions for terminal
// output. It uses lipgloss.AdaptiveColor so output stays readable on both
// light and dark terminal backgrounds.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// ColorError is used for error messages and blocking conditions.
	ColorError = lipgloss.AdaptiveColor{Light: "#D73737", Dark: "#FF5555"}

	// ColorWarning is used for warnings and escalations.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#E67E22", Dark: "#FFB86C"}

	// ColorSuccess is used for success messages and merge decisions.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#27AE60", Dark: "#50FA7B"}

	// ColorInfo is used for informational messages.
	ColorInfo = lipgloss.AdaptiveColor{Light: "#2980B9", Dark: "#8BE9FD"}

	// ColorMuted is used for secondary information like counts and paths.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#6C7A89", Dark: "#6272A4"}
)

var (
	Error   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	Warning = lipgloss.NewStyle().Foreground(ColorWarning)
	Success = lipgloss.NewStyle().Foreground(ColorSuccess)
	Info    = lipgloss.NewStyle().Foreground(ColorInfo)
	Verbose = lipgloss.NewStyle().Foreground(ColorMuted)

	TableTitle  = lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)
	TableHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	TableCell   = lipgloss.NewStyle().Padding(0, 1)
	TableBorder = lipgloss.NewStyle().Foreground(ColorMuted)

	NormalBorder = lipgloss.NormalBorder()
)
