// Package retry runs operations under a classified exponential backoff policy.
//
// A Policy classifies every failure. Fatal failures stop immediately. Retryable
// failures wait BaseDelay * Factor * 2^n plus jitter, unless the decision
// carries a fixed cool-down, and each class may cap its own retries below
// MaxAttempts.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Decision is a classifier verdict for one failure.
type Decision struct {
	Retryable bool
	// Class groups failures for per-class budgets and reporting.
	Class string
	// Factor scales the exponential delay. Zero means 1.
	Factor float64
	// Cooldown replaces the exponential delay when positive.
	Cooldown time.Duration
	// Budget caps retries for this class. Zero leaves only MaxAttempts.
	Budget int
}

// Fatal is a non-retryable decision.
func Fatal(class string) Decision {
	return Decision{Class: class}
}

// Retryable is a retryable decision with the default delay curve.
func Retryable(class string) Decision {
	return Decision{Retryable: true, Class: class}
}

// State tracks one Do call.
type State struct {
	Attempt      int
	MaxAttempts  int
	BaseDelay    time.Duration
	LastErr      error
	LastDecision Decision
	// Exhausted is set when the loop stopped on a retryable error.
	Exhausted bool

	perClass map[string]int
}

// Retries returns how many retries class has consumed.
func (s *State) Retries(class string) int {
	return s.perClass[class]
}

// Policy configures Do.
type Policy struct {
	Name        string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration
	// MaxDelay caps a single wait. Zero is uncapped.
	MaxDelay time.Duration

	Classify func(err error) Decision
	// OnRetry runs before each wait.
	OnRetry func(s State, wait time.Duration)
	// Jitter returns a value in [0, max). Defaults to a uniform draw.
	Jitter func(max time.Duration) time.Duration
}

// Delay computes the wait before retry n (0-based) excluding jitter.
func (p Policy) Delay(n int, d Decision) time.Duration {
	if d.Cooldown > 0 {
		return d.Cooldown
	}

	factor := d.Factor
	if factor <= 0 {
		factor = 1
	}

	delay := time.Duration(float64(p.BaseDelay) * factor * float64(uint64(1)<<uint(n)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

func (p Policy) jitter() time.Duration {
	if p.MaxJitter <= 0 {
		return 0
	}
	if p.Jitter != nil {
		return p.Jitter(p.MaxJitter)
	}
	return time.Duration(rand.Int64N(int64(p.MaxJitter)))
}

// schedule feeds backoff.Retry the delay for the most recent failure.
type schedule struct {
	policy Policy
	state  *State
}

func (s *schedule) Reset() {}

func (s *schedule) NextBackOff() time.Duration {
	n := s.state.Attempt - 1
	if n < 0 {
		n = 0
	}
	return s.policy.Delay(n, s.state.LastDecision) + s.policy.jitter()
}

// Do runs op until it succeeds, fails fatally, or the budget runs out. The
// returned error is the last failure unchanged. State reports how it ended.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, State, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	classify := p.Classify
	if classify == nil {
		classify = func(error) Decision { return Retryable("") }
	}

	state := &State{
		MaxAttempts: maxAttempts,
		BaseDelay:   p.BaseDelay,
		perClass:    make(map[string]int),
	}

	operation := func() (T, error) {
		state.Attempt++
		res, err := op(ctx, state.Attempt)
		if err == nil {
			state.LastErr = nil
			return res, nil
		}

		d := classify(err)
		state.LastErr = err
		state.LastDecision = d

		if !d.Retryable {
			return res, backoff.Permanent(err)
		}

		if d.Budget > 0 && state.perClass[d.Class] >= d.Budget {
			state.Exhausted = true
			return res, backoff.Permanent(err)
		}

		if state.Attempt >= maxAttempts {
			state.Exhausted = true
			return res, err
		}

		state.perClass[d.Class]++
		return res, err
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&schedule{policy: p, state: state}),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(_ error, wait time.Duration) {
			if p.OnRetry != nil {
				p.OnRetry(*state, wait)
			}
		}),
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}

	return res, *state, err
}
