package circuitbreaker

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
)

var errBoom = errors.New("boom")

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.FailureThreshold = 3

	var transitions []gobreaker.State
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	cb := New[int](cfg)

	for i := 0; i < 3; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: expected errBoom, got %v", i, err)
		}
	}

	if !cb.IsOpen() {
		t.Fatalf("expected breaker to be open, state=%s", cb.State())
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	if !IsRejection(err) {
		t.Errorf("expected rejection while open, got %v", err)
	}

	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Errorf("expected a single transition to open, got %v", transitions)
	}
}

func TestCircuitBreaker_IsSuccessfulIgnoresClientErrors(t *testing.T) {
	errClient := errors.New("client error")

	cfg := DefaultConfig("test")
	cfg.FailureThreshold = 1
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errClient)
	}
	cb := New[int](cfg)

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, errClient })
	}

	if cb.IsOpen() {
		t.Error("client errors should not open the breaker")
	}

	v, err := cb.Execute(func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Errorf("expected 42, got %d (%v)", v, err)
	}
}

func TestIsRejection(t *testing.T) {
	if IsRejection(errBoom) {
		t.Error("plain error is not a rejection")
	}
	if !IsRejection(gobreaker.ErrTooManyRequests) {
		t.Error("ErrTooManyRequests is a rejection")
	}
}
