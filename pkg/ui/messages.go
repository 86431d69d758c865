package ui

import (
	"time"

	"github.com/fd1az/artcoin-trader/business/trading/domain"
)

// Message types for TUI updates

// NoticeMsg carries one trade state transition.
type NoticeMsg struct {
	Notice domain.Notice
}

// ResultMsg is sent once a trade call returns.
type ResultMsg struct {
	Result *domain.TradeResult
	Err    error
}

// ErrorMsg is sent when something outside a trade fails.
type ErrorMsg struct {
	Error error
}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
	At      time.Time
}
