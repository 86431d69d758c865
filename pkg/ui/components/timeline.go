// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StepKind selects how a timeline step is drawn.
type StepKind int

const (
	StepProgress StepKind = iota
	StepRetry
	StepSuccess
	StepFailure
)

// StepRow is one state transition of a trade.
type StepRow struct {
	Time    time.Time
	Label   string
	Message string
	Attempt int
	Wait    time.Duration
	Kind    StepKind
}

type tradeTimeline struct {
	id    string
	steps []StepRow
}

// TimelineComponent renders per-trade state transitions in arrival order.
type TimelineComponent struct {
	trades   []*tradeTimeline
	maxSteps int
}

// NewTimelineComponent creates a timeline that keeps the last maxSteps
// steps of each trade.
func NewTimelineComponent(maxSteps int) *TimelineComponent {
	return &TimelineComponent{maxSteps: maxSteps}
}

// Add appends a step to the trade's timeline.
func (t *TimelineComponent) Add(tradeID string, row StepRow) {
	tl := t.find(tradeID)
	if tl == nil {
		tl = &tradeTimeline{id: tradeID}
		t.trades = append(t.trades, tl)
	}
	tl.steps = append(tl.steps, row)
	if t.maxSteps > 0 && len(tl.steps) > t.maxSteps {
		tl.steps = tl.steps[len(tl.steps)-t.maxSteps:]
	}
}

// Len returns the number of trades tracked.
func (t *TimelineComponent) Len() int {
	return len(t.trades)
}

// Last returns the latest step of a trade.
func (t *TimelineComponent) Last(tradeID string) (StepRow, bool) {
	tl := t.find(tradeID)
	if tl == nil || len(tl.steps) == 0 {
		return StepRow{}, false
	}
	return tl.steps[len(tl.steps)-1], true
}

func (t *TimelineComponent) find(id string) *tradeTimeline {
	for _, tl := range t.trades {
		if tl.id == id {
			return tl
		}
	}
	return nil
}

// View renders the timeline component. spin is drawn next to the latest
// step of trades still in flight.
func (t *TimelineComponent) View(spin string) string {
	if len(t.trades) == 0 {
		return mutedStyle.Render("Waiting for trades...")
	}

	idStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

	var sb strings.Builder
	for i, tl := range t.trades {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(idStyle.Render("Trade " + shortID(tl.id)))
		sb.WriteString("\n")

		for j, step := range tl.steps {
			icon, style := step.Kind.Icon(), step.Kind.Style()
			if j == len(tl.steps)-1 && (step.Kind == StepProgress || step.Kind == StepRetry) {
				icon = spin
			}

			line := fmt.Sprintf("├─ %s %s", style.Render(icon), step.Label)
			if step.Attempt > 0 {
				line += mutedStyle.Render(fmt.Sprintf(" [attempt %d]", step.Attempt))
			}
			if step.Message != "" && step.Message != step.Label {
				line += " " + style.Render(step.Message)
			}
			if step.Wait > 0 {
				line += mutedStyle.Render(fmt.Sprintf(" next in %s", step.Wait.Round(time.Millisecond)))
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
