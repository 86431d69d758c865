package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/asset"
)

// TradeDefaults fill in what a caller leaves out.
type TradeDefaults struct {
	Sender   common.Address
	Slippage decimal.Decimal
}

// TradeOption adjusts a single trade call.
type TradeOption func(*tradeOptions)

type tradeOptions struct {
	sender    *common.Address
	recipient common.Address
	slippage  *decimal.Decimal
	creator   *common.Address
}

// WithSender trades from addr instead of the configured wallet.
func WithSender(addr common.Address) TradeOption {
	return func(o *tradeOptions) { o.sender = &addr }
}

// WithRecipient delivers the bought asset to addr.
func WithRecipient(addr common.Address) TradeOption {
	return func(o *tradeOptions) { o.recipient = addr }
}

// WithSlippage overrides the default slippage tolerance.
func WithSlippage(s decimal.Decimal) TradeOption {
	return func(o *tradeOptions) { o.slippage = &s }
}

// WithCreator marks the sold coin's creator so the vesting rule can apply.
func WithCreator(addr common.Address) TradeOption {
	return func(o *tradeOptions) { o.creator = &addr }
}

// Trader is the directional entry point: it turns human amounts into
// normalized requests and hands them to the engine.
type Trader struct {
	engine   TradeExecutor
	decimals *DecimalsResolver
	registry *asset.Registry
	defaults TradeDefaults
	newID    func() string
}

// NewTrader creates a Trader.
func NewTrader(engine TradeExecutor, decimals *DecimalsResolver, registry *asset.Registry, defaults TradeDefaults) *Trader {
	return &Trader{
		engine:   engine,
		decimals: decimals,
		registry: registry,
		defaults: defaults,
		newID:    uuid.NewString,
	}
}

// BuyWithNative spends amount of the native coin on coin.
func (t *Trader) BuyWithNative(ctx context.Context, coin asset.Descriptor, amount string, opts ...TradeOption) (*domain.TradeResult, error) {
	return t.trade(ctx, domain.DirectionBuy, asset.Native(), coin, amount, opts)
}

// SellForNative sells amount of coin for the native coin.
func (t *Trader) SellForNative(ctx context.Context, coin asset.Descriptor, amount string, opts ...TradeOption) (*domain.TradeResult, error) {
	return t.trade(ctx, domain.DirectionSell, coin, asset.Native(), amount, opts)
}

// SwapERC20 spends amount of sellCoin on buyCoin. Spending a registered
// quote asset such as USDC counts as a buy; anything else is a sell.
func (t *Trader) SwapERC20(ctx context.Context, sellCoin, buyCoin asset.Descriptor, amount string, opts ...TradeOption) (*domain.TradeResult, error) {
	dir := domain.DirectionSell
	if t.registry != nil {
		if _, ok := t.registry.Get(sellCoin); ok {
			dir = domain.DirectionBuy
		}
	}
	return t.trade(ctx, dir, sellCoin, buyCoin, amount, opts)
}

func (t *Trader) trade(ctx context.Context, dir domain.Direction, sell, buy asset.Descriptor, amount string, opts []TradeOption) (*domain.TradeResult, error) {
	if !sell.Valid() || !buy.Valid() {
		return nil, apperror.New(apperror.CodeInvalidTradeRequest,
			apperror.WithMessage("Sell and buy assets must be native or a token address"),
			apperror.WithDetail("sell", sell.String()),
			apperror.WithDetail("buy", buy.String()))
	}

	// Syntax first, so a bad amount never costs a decimals read.
	if err := CheckAmountSyntax(amount); err != nil {
		return nil, err
	}

	raw, err := NormalizeAmount(amount, t.decimals.Resolve(ctx, sell))
	if err != nil {
		return nil, err
	}

	o := tradeOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	req := &domain.TradeRequest{
		ID:        t.newID(),
		Direction: dir,
		SellAsset: sell,
		BuyAsset:  buy,
		AmountIn:  raw,
		Sender:    t.defaults.Sender,
		Recipient: o.recipient,
		Slippage:  t.defaults.Slippage,
		Creator:   o.creator,
	}
	if o.sender != nil {
		req.Sender = *o.sender
	}
	if o.slippage != nil {
		req.Slippage = *o.slippage
	}

	return t.engine.ExecuteTrade(ctx, req)
}
