// Package ui provides the Bubble Tea trade progress view.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/pkg/ui/components"
)

var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(components.ColorBorder).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(components.ColorValue).
			Background(components.ColorAccent).
			Padding(0, 2)

	MutedValue = lipgloss.NewStyle().Foreground(components.ColorMuted)
	HelpStyle  = MutedValue.Padding(0, 1)
)

// StepKind maps a trade state to how the timeline draws it.
func StepKind(s domain.State) components.StepKind {
	switch s {
	case domain.StateSuccess:
		return components.StepSuccess
	case domain.StateFatalFailure, domain.StateRetriesExhausted:
		return components.StepFailure
	case domain.StateRetryableFailure:
		return components.StepRetry
	default:
		return components.StepProgress
	}
}

// StateStyle colors a line describing state s.
func StateStyle(s domain.State) lipgloss.Style {
	return StepKind(s).Style()
}
