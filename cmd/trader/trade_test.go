package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/fd1az/artcoin-trader/internal/apperror"
)

func TestParseTradeArgs(t *testing.T) {
	tests := []struct {
		name    string
		command string
		args    []string
		wantErr string
	}{
		{"buy", "buy", []string{"-coin", "0x1111111111111111111111111111111111111111", "-amount", "0.01"}, ""},
		{"sell with creator", "sell", []string{"-coin", "usdc", "-amount", "5", "-creator", "0x2222222222222222222222222222222222222222"}, ""},
		{"swap", "swap", []string{"-coin", "usdc", "-buy", "weth", "-amount", "5"}, ""},
		{"missing coin", "buy", []string{"-amount", "1"}, "-coin is required"},
		{"missing amount", "sell", []string{"-coin", "usdc"}, "-amount is required"},
		{"swap missing buy", "swap", []string{"-coin", "usdc", "-amount", "1"}, "-buy is required"},
		{"buy has no creator flag", "buy", []string{"-coin", "usdc", "-amount", "1", "-creator", "0x2222222222222222222222222222222222222222"}, "flag provided but not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseTradeArgs(tt.command, tt.args)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if a.command != tt.command {
					t.Errorf("expected command %s, got %s", tt.command, a.command)
				}
				return
			}
			var u *usageError
			if !errors.As(err, &u) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected usage error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTradeArgsOptions(t *testing.T) {
	a := tradeArgs{recipient: "0x2222222222222222222222222222222222222222", slippage: "0.1"}
	opts, err := a.options()
	if err != nil || len(opts) != 2 {
		t.Fatalf("expected 2 options, got %d (%v)", len(opts), err)
	}

	for _, bad := range []tradeArgs{
		{recipient: "nope"},
		{creator: "0x12"},
		{slippage: "ten percent"},
	} {
		if _, err := bad.options(); err == nil {
			t.Errorf("expected error for %+v", bad)
		}
	}
}

func TestWrapTrade(t *testing.T) {
	if wrapTrade(nil) != nil {
		t.Error("nil stays nil")
	}

	u := &usageError{msg: "bad flag"}
	if got := wrapTrade(u); got != u {
		t.Errorf("usage errors pass through, got %v", got)
	}

	err := wrapTrade(apperror.New(apperror.CodeInsufficientGas))
	if !strings.Contains(err.Error(), "gas") {
		t.Errorf("expected the short trade message, got %q", err.Error())
	}
	if !apperror.HasCode(err, apperror.CodeInsufficientGas) {
		t.Error("wrapped error must keep its code")
	}
}
