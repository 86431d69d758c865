package notify

import (
	"context"

	"github.com/fd1az/artcoin-trader/business/trading/app"
	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/logger"
)

// LogNotifier records notices as structured log entries. Serve mode uses it.
type LogNotifier struct {
	log logger.LoggerInterface
}

var _ app.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log logger.LoggerInterface) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs the notice at a level matching its state.
func (l *LogNotifier) Notify(ctx context.Context, n domain.Notice) {
	kv := []any{
		"trade_id", n.TradeID,
		"state", string(n.State),
		"attempt", n.Attempt,
	}
	if n.Wait > 0 {
		kv = append(kv, "wait", n.Wait.String())
	}
	if n.Err != nil {
		kv = append(kv, "error", n.Err)
	}

	switch n.State {
	case domain.StateFatalFailure, domain.StateRetriesExhausted:
		l.log.Error(ctx, n.Message, kv...)
	case domain.StateRetryableFailure:
		l.log.Warn(ctx, n.Message, kv...)
	default:
		l.log.Info(ctx, n.Message, kv...)
	}
}

// Multi fans a notice out to several notifiers.
type Multi []app.Notifier

// Notify calls every notifier in order.
func (m Multi) Notify(ctx context.Context, n domain.Notice) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(ctx, n)
		}
	}
}
