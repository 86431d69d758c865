package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/pkg/ui/components"
)

const (
	maxErrors = 3
	maxLogs   = 5
	maxSteps  = 12
)

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	timeline *components.TimelineComponent
	stats    *components.StatsComponent
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	title string
	// quitAfter ends the program once that many ResultMsg arrived; zero keeps it open.
	quitAfter int
	results   int

	quitting bool
	done     bool
	width    int
	errors   []ErrorEntry
	logs     []string
	txHashes []string
}

// New creates a new TUI model.
func New(title string, quitAfter int) Model {
	return Model{
		timeline: components.NewTimelineComponent(maxSteps),
		stats:    components.NewStatsComponent(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(components.StepRetry.Style()),
		),
		help:      help.New(),
		keys:      DefaultKeyMap(),
		title:     title,
		quitAfter: quitAfter,
		errors:    make([]ErrorEntry, 0, maxErrors),
		logs:      make([]string, 0, maxLogs),
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.errors = make([]ErrorEntry, 0, maxErrors)
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case NoticeMsg:
		m.applyNotice(msg.Notice)

	case ResultMsg:
		m.results++
		if msg.Result != nil {
			st := m.stats.Stats()
			st.Elapsed += msg.Result.Duration()
			m.stats.Update(st)
			m.txHashes = append(m.txHashes, msg.Result.TransactionHash.Hex())
		}
		if msg.Err != nil {
			m.errors = addError(m.errors, msg.Err.Error())
		}
		if m.quitAfter > 0 && m.results >= m.quitAfter {
			m.done = true
			return m, tea.Quit
		}

	case ErrorMsg:
		m.errors = addError(m.errors, msg.Error.Error())

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message, msg.At)
	}

	return m, nil
}

func (m *Model) applyNotice(n domain.Notice) {
	row := components.StepRow{
		Time:    n.At,
		Label:   n.State.Describe(),
		Message: n.Message,
		Attempt: n.Attempt,
		Wait:    n.Wait,
		Kind:    StepKind(n.State),
	}

	st := m.stats.Stats()
	switch row.Kind {
	case components.StepProgress:
		if n.State == domain.StateCreated {
			st.Trades++
		}
	case components.StepRetry:
		st.Retries++
	case components.StepSuccess:
		st.Succeeded++
	case components.StepFailure:
		st.Failed++
	}
	m.stats.Update(st)
	m.timeline.Add(n.TradeID, row)
}

// addError keeps the last maxErrors errors.
func addError(errs []ErrorEntry, message string) []ErrorEntry {
	errs = append(errs, ErrorEntry{Message: message, Timestamp: time.Now()})
	if len(errs) > maxErrors {
		errs = errs[len(errs)-maxErrors:]
	}
	return errs
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string, at time.Time) []string {
	if at.IsZero() {
		at = time.Now()
	}
	logs = append(logs, fmt.Sprintf("[%s] %s: %s", at.Format("15:04:05"), level, message))
	if len(logs) > maxLogs {
		logs = logs[len(logs)-maxLogs:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" " + m.title + " "))
	b.WriteString("\n\n")

	spin := m.spinner.View()
	if m.done {
		spin = "●"
	}
	body := m.timeline.View(spin)
	if m.width > 4 {
		b.WriteString(BoxStyle.Width(m.width - 4).Render(body))
	} else {
		b.WriteString(BoxStyle.Render(body))
	}
	b.WriteString("\n\n")

	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	for _, h := range m.txHashes {
		b.WriteString(components.StepSuccess.Style().Render("tx " + h))
		b.WriteString("\n")
	}

	if len(m.errors) > 0 {
		b.WriteString(components.StepFailure.Style().Render("ERRORS"))
		b.WriteString("\n")
		for _, e := range m.errors {
			b.WriteString(lipgloss.NewStyle().Foreground(components.ColorFailure).Render("  • " + e.Message))
			b.WriteString(MutedValue.Render(fmt.Sprintf(" (%s)", e.Timestamp.Format("15:04:05"))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, l := range m.logs {
		b.WriteString(MutedValue.Render(l))
		b.WriteString("\n")
	}

	if !m.done {
		b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
		b.WriteString("\n")
	}

	return b.String()
}

// NewProgram builds the Bubble Tea program for m. Trade progress stays on
// screen after exit, so the alternate screen is not used.
func NewProgram(m Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(m, opts...)
}
