// Package app contains application services and port definitions for the trading context.
package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainDomain "github.com/fd1az/artcoin-trader/business/blockchain/domain"
	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/asset"
)

// WalletSession exposes the connected wallet's network.
type WalletSession interface {
	ChainID(ctx context.Context) (uint64, error)
}

// ChainSwitcher is the optional capability to ask the wallet to change networks.
type ChainSwitcher interface {
	SwitchChain(ctx context.Context, chainID uint64) error
}

// BalanceReader returns fresh balance snapshots.
type BalanceReader interface {
	Balance(ctx context.Context, owner common.Address, d asset.Descriptor) (*blockchainDomain.BalanceSnapshot, error)
}

// DecimalsReader reads decimals() from a token contract.
type DecimalsReader interface {
	Decimals(ctx context.Context, token common.Address) (uint8, error)
}

// SubmitRequest is what the trading provider receives.
type SubmitRequest struct {
	TradeID   string
	SellAsset asset.Descriptor
	BuyAsset  asset.Descriptor
	AmountIn  *big.Int
	Slippage  decimal.Decimal
	Sender    common.Address
	Recipient common.Address
}

// TradingProvider executes a trade and waits for its receipt.
type TradingProvider interface {
	Submit(ctx context.Context, req SubmitRequest) (*domain.Receipt, error)
}

// Notifier receives a Notice on every state transition.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notice)
}

// Guard ensures the wallet is on the required chain.
type Guard interface {
	Ensure(ctx context.Context) error
}

// Validator checks the sender can afford a trade.
type Validator interface {
	Validate(ctx context.Context, req *domain.TradeRequest) error
}

// TradeExecutor runs a normalized trade request.
type TradeExecutor interface {
	ExecuteTrade(ctx context.Context, req *domain.TradeRequest) (*domain.TradeResult, error)
}

// ProviderError is a structured error reply from the trading provider.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("provider error %d: %s", e.StatusCode, e.Message)
}
