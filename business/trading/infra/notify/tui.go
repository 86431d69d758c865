package notify

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/artcoin-trader/business/trading/app"
	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/pkg/ui"
)

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// TUINotifier forwards notices to a running Bubble Tea program.
type TUINotifier struct {
	program Sender
}

var _ app.Notifier = (*TUINotifier)(nil)

// NewTUINotifier creates a TUINotifier.
func NewTUINotifier(program Sender) *TUINotifier {
	return &TUINotifier{program: program}
}

// Notify sends the notice as a ui.NoticeMsg.
func (t *TUINotifier) Notify(_ context.Context, n domain.Notice) {
	if t.program == nil {
		return
	}
	t.program.Send(ui.NoticeMsg{Notice: n})
}
