// Package notify contains the trade progress notifiers.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fd1az/artcoin-trader/business/trading/app"
	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/pkg/ui"
)

var mutedStyle = ui.MutedValue

// ConsoleNotifier writes one line per state transition.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

var _ app.Notifier = (*ConsoleNotifier)(nil)

// NewConsoleNotifier creates a ConsoleNotifier writing to out, or stdout when out is nil.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{out: out}
}

// Notify prints the notice.
func (c *ConsoleNotifier) Notify(_ context.Context, n domain.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s %s %s",
		mutedStyle.Render("["+n.At.Format("15:04:05")+"]"),
		mutedStyle.Render(shortID(n.TradeID)),
		ui.StateStyle(n.State).Render(n.Message))
	if n.Attempt > 0 {
		fmt.Fprint(c.out, mutedStyle.Render(fmt.Sprintf(" (attempt %d)", n.Attempt)))
	}
	if n.Wait > 0 {
		fmt.Fprint(c.out, mutedStyle.Render(fmt.Sprintf(" retrying in %s", n.Wait)))
	}
	fmt.Fprintln(c.out)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
