package components

import (
	"fmt"
	"time"
)

// Stats holds session totals for display.
type Stats struct {
	Trades    int64
	Succeeded int64
	Failed    int64
	Retries   int64
	// Elapsed is the summed duration of finished trades.
	Elapsed time.Duration
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update replaces the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	failed := valueStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	if s.stats.Failed > 0 {
		failed = StepFailure.Style().Render(fmt.Sprintf("%d", s.stats.Failed))
	}

	var avg time.Duration
	if done := s.stats.Succeeded + s.stats.Failed; done > 0 {
		avg = s.stats.Elapsed / time.Duration(done)
	}

	return mutedStyle.Render("STATS") + "\n" +
		fmt.Sprintf("Trades: %s  │  Confirmed: %s  │  Failed: %s  │  Retries: %s  │  Avg: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Trades)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Succeeded)),
			failed,
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Retries)),
			valueStyle.Render(avg.Round(time.Millisecond).String()),
		)
}
