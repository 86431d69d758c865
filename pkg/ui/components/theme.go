package components

import "github.com/charmbracelet/lipgloss"

// Palette shared by the TUI and the console notifier.
var (
	ColorAccent   = lipgloss.Color("#7C3AED")
	ColorSuccess  = lipgloss.Color("#10B981")
	ColorFailure  = lipgloss.Color("#EF4444")
	ColorRetry    = lipgloss.Color("#F59E0B")
	ColorProgress = lipgloss.Color("#9CA3AF")
	ColorMuted    = lipgloss.Color("#6B7280")
	ColorBorder   = lipgloss.Color("#374151")
	ColorValue    = lipgloss.Color("#FFFFFF")
)

var (
	mutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	valueStyle = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
)

// Style colors text belonging to a step of this kind.
func (k StepKind) Style() lipgloss.Style {
	switch k {
	case StepSuccess:
		return lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	case StepFailure:
		return lipgloss.NewStyle().Foreground(ColorFailure).Bold(true)
	case StepRetry:
		return lipgloss.NewStyle().Foreground(ColorRetry)
	default:
		return lipgloss.NewStyle().Foreground(ColorProgress)
	}
}

// Icon is the timeline marker for a finished step of this kind.
func (k StepKind) Icon() string {
	switch k {
	case StepSuccess:
		return "✓"
	case StepFailure:
		return "✗"
	case StepRetry:
		return "↻"
	default:
		return "●"
	}
}
