package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/artcoin-trader/business/trading/app"
	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/asset"
)

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// tradeError prints as the short trade message.
type tradeError struct {
	err error
}

func (e *tradeError) Error() string { return app.ToastMessage(e.err) }

func (e *tradeError) Unwrap() error { return e.err }

// wrapTrade marks err as a trade failure unless it is a usage error.
func wrapTrade(err error) error {
	var u *usageError
	if err == nil || errors.As(err, &u) {
		return err
	}
	return &tradeError{err: err}
}

// tradeArgs are the flags of the buy, sell and swap commands.
type tradeArgs struct {
	command   string
	coin      string
	buyCoin   string
	amount    string
	recipient string
	creator   string
	slippage  string
}

func parseTradeArgs(command string, args []string) (tradeArgs, error) {
	a := tradeArgs{command: command}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&a.coin, "coin", "", "coin to trade: symbol, token address, or native")
	fs.StringVar(&a.amount, "amount", "", "amount to spend, in human units")
	fs.StringVar(&a.recipient, "recipient", "", "address receiving the bought asset (default: sender)")
	fs.StringVar(&a.slippage, "slippage", "", "slippage tolerance as a fraction, e.g. 0.05")
	if command != "buy" {
		fs.StringVar(&a.creator, "creator", "", "coin creator address, enables the vesting check")
	}
	if command == "swap" {
		fs.StringVar(&a.buyCoin, "buy", "", "coin to receive")
	}

	if err := fs.Parse(args); err != nil {
		return a, &usageError{msg: fmt.Sprintf("%s: %v", command, err)}
	}
	if a.coin == "" {
		return a, &usageError{msg: command + ": -coin is required"}
	}
	if a.amount == "" {
		return a, &usageError{msg: command + ": -amount is required"}
	}
	if command == "swap" && a.buyCoin == "" {
		return a, &usageError{msg: "swap: -buy is required"}
	}
	return a, nil
}

func (a tradeArgs) options() ([]app.TradeOption, error) {
	var opts []app.TradeOption

	if a.recipient != "" {
		if !common.IsHexAddress(a.recipient) {
			return nil, &usageError{msg: "invalid -recipient address"}
		}
		opts = append(opts, app.WithRecipient(common.HexToAddress(a.recipient)))
	}
	if a.creator != "" {
		if !common.IsHexAddress(a.creator) {
			return nil, &usageError{msg: "invalid -creator address"}
		}
		opts = append(opts, app.WithCreator(common.HexToAddress(a.creator)))
	}
	if a.slippage != "" {
		s, err := decimal.NewFromString(a.slippage)
		if err != nil {
			return nil, &usageError{msg: "invalid -slippage: " + err.Error()}
		}
		opts = append(opts, app.WithSlippage(s))
	}
	return opts, nil
}

func (a tradeArgs) execute(ctx context.Context, trader *app.Trader, registry *asset.Registry) (*domain.TradeResult, error) {
	coin, err := registry.Resolve(a.coin)
	if err != nil {
		return nil, &usageError{msg: "invalid -coin: " + err.Error()}
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}

	switch a.command {
	case "buy":
		return trader.BuyWithNative(ctx, coin, a.amount, opts...)
	case "sell":
		return trader.SellForNative(ctx, coin, a.amount, opts...)
	default:
		buy, err := registry.Resolve(a.buyCoin)
		if err != nil {
			return nil, &usageError{msg: "invalid -buy: " + err.Error()}
		}
		return trader.SwapERC20(ctx, coin, buy, a.amount, opts...)
	}
}
