package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/asset"
)

// TradeRequest is one normalized trade intent. AmountIn is in the sell
// asset's smallest unit.
type TradeRequest struct {
	ID        string
	Direction Direction
	SellAsset asset.Descriptor
	BuyAsset  asset.Descriptor
	AmountIn  *big.Int
	Sender    common.Address
	Recipient common.Address
	Slippage  decimal.Decimal

	// Creator is the sell coin's creator, when known.
	Creator *common.Address
}

// Validate checks the request before any I/O happens.
func (r *TradeRequest) Validate() error {
	if r.AmountIn == nil || r.AmountIn.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidAmount, apperror.WithContext(r.ID))
	}

	if !r.Direction.Valid() {
		return apperror.New(apperror.CodeInvalidTradeRequest,
			apperror.WithContext(r.ID),
			apperror.WithDetail("direction", string(r.Direction)))
	}

	if !r.SellAsset.Valid() || !r.BuyAsset.Valid() {
		return apperror.New(apperror.CodeInvalidTradeRequest,
			apperror.WithContext(r.ID),
			apperror.WithMessage("Sell and buy assets must be native or a token address"))
	}

	if r.SellAsset.Equal(r.BuyAsset) {
		return apperror.New(apperror.CodeInvalidTradeRequest,
			apperror.WithContext(r.ID),
			apperror.WithMessage("Sell and buy assets must differ"),
			apperror.WithDetail("asset", r.SellAsset.String()))
	}

	if r.Sender == (common.Address{}) {
		return apperror.New(apperror.CodeInvalidTradeRequest,
			apperror.WithContext(r.ID),
			apperror.WithMessage("Sender address is required"))
	}

	if err := asset.CheckMagnitude(r.Slippage, 0); err != nil {
		return apperror.New(apperror.CodeInvalidSlippage,
			apperror.WithContext(r.ID),
			apperror.WithCause(err))
	}
	if r.Slippage.IsNegative() || r.Slippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return apperror.New(apperror.CodeInvalidSlippage,
			apperror.WithContext(r.ID),
			apperror.WithDetail("slippage", r.Slippage.String()))
	}

	return nil
}

// RecipientOrSender returns Recipient, falling back to Sender when unset.
func (r *TradeRequest) RecipientOrSender() common.Address {
	if r.Recipient == (common.Address{}) {
		return r.Sender
	}
	return r.Recipient
}

// SenderIsCreator reports whether the vesting rule applies to this request.
func (r *TradeRequest) SenderIsCreator() bool {
	// Addresses compare as bytes, so hex casing never matters here.
	return r.Creator != nil && *r.Creator == r.Sender
}

// Receipt is the provider's confirmation of a submitted trade.
type Receipt struct {
	TransactionHash common.Hash
	Status          uint64
	BlockNumber     uint64
	GasUsed         uint64
}

// Succeeded reports whether the transaction executed.
func (r *Receipt) Succeeded() bool {
	return r.Status == 1
}

// TradeResult is returned only for a completed trade.
type TradeResult struct {
	TradeID         string
	TransactionHash common.Hash
	Receipt         Receipt
	Attempts        int
	AmountIn        *big.Int
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Duration returns how long the trade call took.
func (r *TradeResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
