package domain

import (
	"fmt"
	"slices"
	"time"
)

// State is a trade's position in the execution state machine.
type State string

const (
	StateCreated          State = "CREATED"
	StateNetworkChecked   State = "NETWORK_CHECKED"
	StateBalanceValidated State = "BALANCE_VALIDATED"
	StateSubmitted        State = "SUBMITTED"
	StateSuccess          State = "SUCCESS"
	StateRetryableFailure State = "RETRYABLE_FAILURE"
	StateFatalFailure     State = "FATAL_FAILURE"
	StateRetriesExhausted State = "RETRIES_EXHAUSTED"
)

// failures can be entered from any non-terminal state.
var failures = []State{StateRetryableFailure, StateFatalFailure, StateRetriesExhausted}

var transitions = map[State][]State{
	StateCreated:          append([]State{StateNetworkChecked}, failures...),
	StateNetworkChecked:   append([]State{StateBalanceValidated, StateSubmitted}, failures...),
	StateBalanceValidated: append([]State{StateSubmitted}, failures...),
	StateSubmitted:        append([]State{StateSuccess}, failures...),
	StateRetryableFailure: append([]State{StateNetworkChecked}, failures...),
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateFatalFailure || s == StateRetriesExhausted
}

// Describe returns a short progress line for s.
func (s State) Describe() string {
	switch s {
	case StateCreated:
		return "Trade created"
	case StateNetworkChecked:
		return "Wallet is on the right network"
	case StateBalanceValidated:
		return "Balance checked"
	case StateSubmitted:
		return "Submitting trade"
	case StateSuccess:
		return "Trade confirmed"
	case StateRetryableFailure:
		return "Attempt failed, retrying"
	case StateFatalFailure:
		return "Trade failed"
	case StateRetriesExhausted:
		return "Trade failed after all retries"
	default:
		return string(s)
	}
}

// Transition returns an error when from -> to is not a legal move.
func Transition(from, to State) error {
	if slices.Contains(transitions[from], to) {
		return nil
	}
	return fmt.Errorf("trading: illegal transition %s -> %s", from, to)
}

// Notice is emitted on every state transition of a trade.
type Notice struct {
	TradeID string
	State   State
	Attempt int
	Message string
	// Err is set on failure states.
	Err error
	// Wait is the delay before the next attempt on a retryable failure.
	Wait time.Duration
	At   time.Time
}
